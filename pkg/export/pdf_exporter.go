package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders datasets as a sequence of labelled blocks, one per row.
// Values may span several lines, which a fixed grid cannot hold.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with an optional title.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if err := data.validate("pdf"); err != nil {
		return nil, err
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(12, 15, 12)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.MultiCell(0, 8, tr(title), "", "C", false)
		pdf.Ln(4)
	}

	if len(data.Rows) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.CellFormat(0, 8, "No data", "", 1, "L", false, 0, "")
	}

	labelWidth := 30.0
	for i, row := range data.Rows {
		if i > 0 {
			pdf.Ln(3)
		}
		for _, header := range data.Headers {
			value := row[header]
			if value == "" {
				continue
			}
			pdf.SetFont("Arial", "B", 10)
			pdf.CellFormat(labelWidth, 6, tr(header), "", 0, "L", false, 0, "")
			pdf.SetFont("Arial", "", 10)
			pdf.MultiCell(0, 6, tr(value), "", "L", false)
		}
		x, y := pdf.GetXY()
		pdf.Line(x, y+1, 198, y+1)
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("layout pdf: %w", err)
	}
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
