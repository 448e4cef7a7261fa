package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"energydash/internal/core"
)

var now = time.Date(2025, time.March, 17, 9, 30, 0, 0, time.UTC)

func sample() []core.Record {
	return []core.Record{
		{ID: "a", Period: "January 2025", Consumption: 1000, Cost: 120, Saved: 0, MoneySaved: 0, SavingsPercentage: 0},
		{ID: "b", Period: "February 2025", Consumption: 900, Cost: 108, Saved: 100, MoneySaved: 12, SavingsPercentage: 10},
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"csv": FormatCSV, "XLSX": FormatExcel, "excel": FormatExcel, " pdf ": FormatPDF, "json": FormatJSON, "xml": FormatXML} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("docx")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "energy-data-2025-03-17.csv", FormatCSV.Filename(now))
	assert.Equal(t, "energy-data-2025-03-17.xlsx", FormatExcel.Filename(now))
}

func TestEncodeCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, FormatCSV, sample(), DefaultMeta(now)))
	want := "id,period,consumption,cost,saved,moneySaved,savingsPercentage\n" +
		"a,January 2025,1000,120,0,0,0\n" +
		"b,February 2025,900,108,100,12,10\n"
	assert.Equal(t, want, buf.String())
}

func TestEncodeJSONFieldOrder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, FormatJSON, sample()[:1], DefaultMeta(now)))
	out := buf.String()

	last := -1
	for _, f := range core.Fields {
		i := strings.Index(out, `"`+f+`"`)
		require.GreaterOrEqual(t, i, 0, f)
		assert.Greater(t, i, last, "field %s out of order", f)
		last = i
	}

	buf.Reset()
	require.NoError(t, Encode(&buf, FormatJSON, nil, DefaultMeta(now)))
	assert.Equal(t, "[]\n", buf.String())
}

func TestEncodeXML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, FormatXML, sample(), DefaultMeta(now)))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.Contains(t, out, "<energyData>")
	assert.Equal(t, 2, strings.Count(out, "<record>"))
	assert.Contains(t, out, "<moneySaved>12</moneySaved>")
	assert.Less(t, strings.Index(out, "<id>a</id>"), strings.Index(out, "<period>January 2025</period>"))
}

func TestEncodeExcel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, FormatExcel, sample(), DefaultMeta(now)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, "Energy Data", f.GetSheetName(0))
	rows, err := f.GetRows("Energy Data")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, core.Fields, rows[0])
	assert.Equal(t, "February 2025", rows[2][1])
	assert.Equal(t, "900", rows[2][2])

	width, err := f.GetColWidth("Energy Data", "B")
	require.NoError(t, err)
	assert.Equal(t, 13.0, width)
}

func TestEncodePDF(t *testing.T) {
	var buf bytes.Buffer
	meta := DefaultMeta(now)
	meta.Title = "Raport zużycia energii"
	require.NoError(t, Encode(&buf, FormatPDF, sample(), meta))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestEncodePDFManyRowsPaginates(t *testing.T) {
	records := make([]core.Record, 0, 120)
	for i := 0; i < 120; i++ {
		records = append(records, core.Record{ID: "r", Period: "May 2025", Consumption: float64(i)})
	}
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, FormatPDF, records, DefaultMeta(now)))
	assert.Contains(t, buf.String(), "%%EOF")
}

func TestFoldLatin(t *testing.T) {
	assert.Equal(t, "Raport zuzycia energii", foldLatin("Raport zużycia energii"))
	assert.Equal(t, "Laczne oszczednosci", foldLatin("Łączne oszczędności"))
}
