package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Grid defines a rendered timetable: one labelled row per period, one column
// per weekday.
type Grid struct {
	Title   string
	Corner  string
	Columns []string
	Rows    []GridRow
}

// GridRow is a single period row.
type GridRow struct {
	Label string
	Cells []string
}

// CSVExporter renders a Grid into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the grid.
func (e *CSVExporter) Render(grid Grid) ([]byte, error) {
	if len(grid.Columns) == 0 {
		return nil, fmt.Errorf("csv requires at least one column")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)

	header := append([]string{grid.Corner}, grid.Columns...)
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range grid.Rows {
		record := make([]string, 0, len(grid.Columns)+1)
		record = append(record, row.Label)
		for i := range grid.Columns {
			if i < len(row.Cells) {
				record = append(record, row.Cells[i])
			} else {
				record = append(record, "")
			}
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
