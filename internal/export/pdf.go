package export

import (
	"io"
	"strings"
	"unicode"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"energydash/internal/core"
)

var (
	pdfColumnWidths = []float64{36, 30, 24, 20, 22, 24, 22}
	pdfHeaderFill   = [3]int{41, 128, 185}
)

const (
	pdfMarginLeft = 14.0
	pdfRowHeight  = 7.0
	pdfPageBottom = 280.0
)

func encodePDF(w io.Writer, records []core.Record, meta Meta) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMarginLeft, 14, pdfMarginLeft)
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	text := func(s string) string { return tr(foldLatin(s)) }

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 20)
	pdf.Text(pdfMarginLeft, 22, text(meta.Title))
	pdf.SetFont("Helvetica", "", 12)
	pdf.Text(pdfMarginLeft, 32, text(meta.GeneratedLabel+": "+meta.generatedAt()))

	header := func() {
		pdf.SetFillColor(pdfHeaderFill[0], pdfHeaderFill[1], pdfHeaderFill[2])
		pdf.SetTextColor(255, 255, 255)
		pdf.SetFont("Helvetica", "B", 8)
		for i := range core.Fields {
			pdf.CellFormat(pdfColumnWidths[i], pdfRowHeight, text(meta.column(i)), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont("Helvetica", "", 8)
	}

	pdf.SetXY(pdfMarginLeft, 40)
	header()
	for _, r := range records {
		if pdf.GetY()+pdfRowHeight > pdfPageBottom {
			pdf.AddPage()
			header()
		}
		for i, cell := range row(r) {
			align := "R"
			if i < 2 {
				align = "L"
			}
			pdf.CellFormat(pdfColumnWidths[i], pdfRowHeight, text(cell), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	return pdf.Output(w)
}

// foldLatin strips diacritics the built-in PDF fonts cannot render.
func foldLatin(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.NewReplacer("ł", "l", "Ł", "L").Replace(out)
}
