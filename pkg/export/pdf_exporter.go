package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders a timetable Grid into a printable PDF page.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a landscape A4 document with the timetable grid.
func (e *PDFExporter) Render(grid Grid) ([]byte, error) {
	if len(grid.Columns) == 0 {
		return nil, fmt.Errorf("pdf requires at least one column")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	// grid labels carry Spanish accents, core fonts are cp1252
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if grid.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(strings.ToUpper(grid.Title)), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	labelWidth := 30.0
	colWidth := (277.0 - labelWidth) / float64(len(grid.Columns))

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(labelWidth, 8, tr(grid.Corner), "1", 0, "C", false, 0, "")
	for _, column := range grid.Columns {
		pdf.CellFormat(colWidth, 8, tr(column), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range grid.Rows {
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(labelWidth, 10, tr(row.Label), "1", 0, "C", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		for i := range grid.Columns {
			value := ""
			if i < len(row.Cells) {
				value = row.Cells[i]
			}
			pdf.CellFormat(colWidth, 10, tr(value), "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
