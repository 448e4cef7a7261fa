// Package export encodes record sequences into downloadable files.
package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"energydash/internal/core"
)

// Format identifies an export encoding.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatExcel Format = "excel"
	FormatPDF   Format = "pdf"
	FormatJSON  Format = "json"
	FormatXML   Format = "xml"
)

// Formats lists every supported format in menu order.
var Formats = []Format{FormatCSV, FormatExcel, FormatPDF, FormatJSON, FormatXML}

// ParseFormat accepts a format name or its file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "excel", "xlsx":
		return FormatExcel, nil
	case "pdf":
		return FormatPDF, nil
	case "json":
		return FormatJSON, nil
	case "xml":
		return FormatXML, nil
	}
	return "", core.NewValidationError("format", s, "unsupported export format")
}

// Extension returns the file extension without the dot.
func (f Format) Extension() string {
	if f == FormatExcel {
		return "xlsx"
	}
	return string(f)
}

// ContentType returns the MIME type of the encoded file.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	case FormatJSON:
		return "application/json"
	case FormatXML:
		return "application/xml; charset=utf-8"
	}
	return "application/octet-stream"
}

// Filename returns the download name, e.g. energy-data-2025-03-17.csv.
func (f Format) Filename(now time.Time) string {
	return fmt.Sprintf("energy-data-%s.%s", now.Format("2006-01-02"), f.Extension())
}

// Meta carries the human-facing text of document formats.
type Meta struct {
	Title          string
	GeneratedLabel string
	GeneratedAt    time.Time
	// Columns are display titles in canonical field order. Machine formats
	// always use canonical field names.
	Columns []string
	// FormatDate renders GeneratedAt. Defaults to 2006-01-02.
	FormatDate func(time.Time) string
}

// DefaultMeta returns English document text.
func DefaultMeta(now time.Time) Meta {
	return Meta{
		Title:          "Energy Consumption Report",
		GeneratedLabel: "Generated on",
		GeneratedAt:    now,
		Columns:        []string{"ID", "Period", "Consumption (kWh)", "Cost", "Saved (kWh)", "Money Saved", "Savings %"},
	}
}

func (m Meta) column(i int) string {
	if i < len(m.Columns) && m.Columns[i] != "" {
		return m.Columns[i]
	}
	return core.Fields[i]
}

func (m Meta) generatedAt() string {
	if m.FormatDate != nil {
		return m.FormatDate(m.GeneratedAt)
	}
	return m.GeneratedAt.Format("2006-01-02")
}

// Encode writes records to w in format f.
func Encode(w io.Writer, f Format, records []core.Record, meta Meta) error {
	var err error
	switch f {
	case FormatCSV:
		err = encodeCSV(w, records)
	case FormatExcel:
		err = encodeExcel(w, records)
	case FormatPDF:
		err = encodePDF(w, records, meta)
	case FormatJSON:
		err = encodeJSON(w, records)
	case FormatXML:
		err = encodeXML(w, records)
	default:
		return core.NewValidationError("format", string(f), "unsupported export format")
	}
	if err != nil {
		return fmt.Errorf("export %s: %w", f, err)
	}
	return nil
}

// row renders a record as canonical-order strings.
func row(r core.Record) []string {
	return []string{
		r.ID,
		r.Period,
		formatNumber(r.Consumption),
		formatNumber(r.Cost),
		formatNumber(r.Saved),
		formatNumber(r.MoneySaved),
		formatNumber(r.SavingsPercentage),
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
