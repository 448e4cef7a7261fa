package core

import "github.com/shopspring/decimal"

// GoodSavingsThreshold is the average savings percentage at or above which
// performance is reported as good.
const GoodSavingsThreshold = 10.0

// Summary aggregates a record sequence for the dashboard cards.
type Summary struct {
	Records           int     `json:"records"`
	TotalConsumption  float64 `json:"totalConsumption"`
	TotalCost         float64 `json:"totalCost"`
	TotalSaved        float64 `json:"totalSaved"`
	TotalMoneySaved   float64 `json:"totalMoneySaved"`
	AverageSavings    float64 `json:"averageSavings"`
	PerformanceIsGood bool    `json:"performanceIsGood"`
}

// Summarize totals records. Sums are accumulated as decimals so that
// currency totals do not drift.
func Summarize(records []Record) Summary {
	var consumption, cost, saved, moneySaved, pct decimal.Decimal
	for _, r := range records {
		consumption = consumption.Add(decimal.NewFromFloat(r.Consumption))
		cost = cost.Add(decimal.NewFromFloat(r.Cost))
		saved = saved.Add(decimal.NewFromFloat(r.Saved))
		moneySaved = moneySaved.Add(decimal.NewFromFloat(r.MoneySaved))
		pct = pct.Add(decimal.NewFromFloat(r.SavingsPercentage))
	}
	s := Summary{
		Records:          len(records),
		TotalConsumption: consumption.InexactFloat64(),
		TotalCost:        cost.Round(2).InexactFloat64(),
		TotalSaved:       saved.InexactFloat64(),
		TotalMoneySaved:  moneySaved.Round(2).InexactFloat64(),
	}
	if len(records) > 0 {
		s.AverageSavings = pct.Div(decimal.NewFromInt(int64(len(records)))).Round(2).InexactFloat64()
	}
	s.PerformanceIsGood = s.AverageSavings >= GoodSavingsThreshold
	return s
}
