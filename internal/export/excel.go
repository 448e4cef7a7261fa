package export

import (
	"io"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"energydash/internal/core"
)

const (
	excelSheet    = "Energy Data"
	minColumnWide = 10
)

func encodeExcel(w io.Writer, records []core.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), excelSheet); err != nil {
		return err
	}

	widths := make([]int, len(core.Fields))
	header := make([]any, len(core.Fields))
	for i, name := range core.Fields {
		header[i] = name
		widths[i] = max(minColumnWide, utf8.RuneCountInString(name))
	}
	if err := f.SetSheetRow(excelSheet, "A1", &header); err != nil {
		return err
	}

	for n, r := range records {
		values := []any{r.ID, r.Period, r.Consumption, r.Cost, r.Saved, r.MoneySaved, r.SavingsPercentage}
		for i, s := range row(r) {
			widths[i] = max(widths[i], utf8.RuneCountInString(s))
		}
		cell, err := excelize.CoordinatesToCellName(1, n+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(excelSheet, cell, &values); err != nil {
			return err
		}
	}

	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(excelSheet, col, col, float64(width)); err != nil {
			return err
		}
	}
	return f.Write(w)
}
