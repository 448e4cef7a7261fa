package core

import (
	"fmt"
	"math"
	"time"
)

// Tariff is the flat price per kWh used by the seed data.
const Tariff = 0.12

// SeedMonths is the number of months SeedRecords produces.
const SeedMonths = 12

// periodLayout is the time layout of seeded and generated period labels.
const periodLayout = "January 2006"

// PeriodLabel formats a month the way records display it, e.g. "March 2025".
func PeriodLabel(t time.Time) string {
	return t.Format(periodLayout)
}

// SeedRecords generates SeedMonths months of demo data ending with the month
// of now. The output only depends on the months involved, so two calls in
// the same month return identical records.
func SeedRecords(now time.Time) []Record {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(SeedMonths - 1), 0)
	records := make([]Record, 0, SeedMonths)
	for i := 0; i < SeedMonths; i++ {
		month := first.AddDate(0, i, 0)
		month0 := int(month.Month()) - 1
		seed := month.Year()*12 + month0

		base := 800 + seededRandom(seed)*400
		seasonal := math.Sin(float64(month0)*math.Pi/6)*0.3 + 1
		consumption := math.Round(base * seasonal)
		saved := math.Max(0, 1000-consumption)

		records = append(records, Record{
			ID:          fmt.Sprintf("energy-%d", seed),
			Period:      PeriodLabel(month),
			Consumption: consumption,
			Cost:        Round2(consumption * Tariff),
			Saved:       saved,
			MoneySaved:  Round2(saved * Tariff),
		})
	}
	RecomputeSavings(records)
	return records
}

// seededRandom maps an integer to [0, 1) deterministically.
func seededRandom(seed int) float64 {
	x := math.Sin(float64(seed)) * 10000
	return x - math.Floor(x)
}
