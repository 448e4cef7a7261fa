// Package importer turns uploaded files into candidate records.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"energydash/internal/core"
)

// Result is the outcome of parsing one file.
type Result struct {
	Records []core.Record
	// Skipped counts data rows dropped because they had no period.
	Skipped int
}

// ErrNoHeader is returned for an empty file.
var ErrNoHeader = errors.New("missing header row")

// headerAliases maps lower-cased header names to canonical fields. The
// legacy names come from files exported by older versions of the dashboard.
var headerAliases = map[string]string{
	"id":                "id",
	"period":            core.FieldPeriod,
	"date":              core.FieldPeriod,
	"month":             core.FieldPeriod,
	"consumption":       core.FieldConsumption,
	"energyconsumption": core.FieldConsumption,
	"cost":              core.FieldCost,
	"energycost":        core.FieldCost,
	"saved":             core.FieldSaved,
	"energysaved":       core.FieldSaved,
	"moneysaved":        core.FieldMoneySaved,
	"savingspercentage": core.FieldSavingsPercentage,
}

// ParseCSV reads a CSV file with a header row.
//
// Numeric cells that are missing or unparseable become 0, rows without a
// period are dropped and missing ids are synthesized from now and the row
// index. Any syntax error fails the whole file.
func ParseCSV(r io.Reader, now time.Time) (Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return Result{}, fmt.Errorf("%w: %w", core.ErrImport, ErrNoHeader)
	}
	if err != nil {
		return Result{}, fmt.Errorf("%w: read header: %w", core.ErrImport, err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF")))
		if field, ok := headerAliases[key]; ok {
			if _, dup := columns[field]; !dup {
				columns[field] = i
			}
		}
	}
	if _, ok := columns[core.FieldPeriod]; !ok {
		return Result{}, fmt.Errorf("%w: no period column in header", core.ErrImport)
	}

	var res Result
	for row := 0; ; row++ {
		cells, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("%w: %w", core.ErrImport, err)
		}

		cell := func(field string) string {
			i, ok := columns[field]
			if !ok || i >= len(cells) {
				return ""
			}
			return strings.TrimSpace(cells[i])
		}

		period := cell(core.FieldPeriod)
		if period == "" {
			res.Skipped++
			continue
		}
		id := cell("id")
		if id == "" {
			id = fmt.Sprintf("imported-%d-%d", now.UnixMilli(), row)
		}
		res.Records = append(res.Records, core.Record{
			ID:                id,
			Period:            period,
			Consumption:       core.ParseMeasureOrZero(cell(core.FieldConsumption)),
			Cost:              core.ParseMeasureOrZero(cell(core.FieldCost)),
			Saved:             core.ParseMeasureOrZero(cell(core.FieldSaved)),
			MoneySaved:        core.ParseMeasureOrZero(cell(core.FieldMoneySaved)),
			SavingsPercentage: core.ParseNumberOrZero(cell(core.FieldSavingsPercentage)),
		})
	}
	return res, nil
}

// AcceptsFilename reports whether a file name looks like something ParseCSV
// can read.
func AcceptsFilename(name string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(name)), ".csv")
}
