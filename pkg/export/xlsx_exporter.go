package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Report"

// XLSXExporter renders datasets into a single-sheet workbook.
type XLSXExporter struct{}

// NewXLSXExporter constructs an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Render writes headers in bold on row 1 followed by one row per record.
func (e *XLSXExporter) Render(data Dataset) ([]byte, error) {
	if err := data.validate("xlsx"); err != nil {
		return nil, err
	}
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return nil, fmt.Errorf("name xlsx sheet: %w", err)
	}

	for i, header := range data.Headers {
		if err := setCell(f, i+1, 1, header); err != nil {
			return nil, err
		}
	}
	for r, row := range data.Rows {
		for i, value := range data.record(row) {
			if err := setCell(f, i+1, r+2, value); err != nil {
				return nil, err
			}
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create xlsx header style: %w", err)
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(data.Headers), 1)
	if err != nil {
		return nil, fmt.Errorf("resolve xlsx header range: %w", err)
	}
	if err := f.SetCellStyle(xlsxSheet, "A1", lastHeader, headerStyle); err != nil {
		return nil, fmt.Errorf("apply xlsx header style: %w", err)
	}

	lastCol, err := excelize.ColumnNumberToName(len(data.Headers))
	if err != nil {
		return nil, fmt.Errorf("resolve xlsx columns: %w", err)
	}
	if err := f.SetColWidth(xlsxSheet, "A", lastCol, 32); err != nil {
		return nil, fmt.Errorf("size xlsx columns: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func setCell(f *excelize.File, col, row int, value string) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("resolve xlsx cell: %w", err)
	}
	if err := f.SetCellValue(xlsxSheet, cell, value); err != nil {
		return fmt.Errorf("write xlsx cell %s: %w", cell, err)
	}
	return nil
}
