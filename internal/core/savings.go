package core

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// SavingsPercentage is the month-over-month reduction of consumption,
// rounded to two decimals. A zero previous consumption yields 0.
func SavingsPercentage(previous, current float64) float64 {
	if previous == 0 {
		return 0
	}
	prev := decimal.NewFromFloat(previous)
	diff := prev.Sub(decimal.NewFromFloat(current))
	return diff.Div(prev).Mul(hundred).Round(2).InexactFloat64()
}

// RecomputeSavings rewrites SavingsPercentage of every record in place,
// using sequence order. The first record always gets 0.
func RecomputeSavings(records []Record) {
	for i := range records {
		if i == 0 {
			records[i].SavingsPercentage = 0
			continue
		}
		records[i].SavingsPercentage = SavingsPercentage(records[i-1].Consumption, records[i].Consumption)
	}
}
