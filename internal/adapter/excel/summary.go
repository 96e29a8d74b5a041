// Package excel exports monthly summaries as XLSX workbooks.
package excel

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/fars-census-service/internal/domain"
)

// SheetName is the worksheet holding the summary table.
const SheetName = "monthly_accidents"

// WriteSummary writes the table as a workbook to w. Null cells stay blank.
func WriteSummary(w io.Writer, table domain.SummaryTable) error {
	f, err := build(table)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// SaveSummary writes the table as a workbook at path.
func SaveSummary(path string, table domain.SummaryTable) error {
	f, err := build(table)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func build(table domain.SummaryTable) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	for col, label := range table.Header() {
		if err := setCell(f, col+1, 1, label); err != nil {
			f.Close()
			return nil, err
		}
	}

	for r, row := range table.Rows {
		excelRow := r + 2
		if err := setCell(f, 1, excelRow, row.Month); err != nil {
			f.Close()
			return nil, err
		}
		for i, n := range row.Counts {
			if n == nil {
				continue
			}
			if err := setCell(f, i+2, excelRow, *n); err != nil {
				f.Close()
				return nil, err
			}
		}
	}

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   "FARS monthly accident counts",
		Created: table.GeneratedAt.Format("2006-01-02T15:04:05Z"),
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("set properties: %w", err)
	}
	return f, nil
}

func setCell(f *excelize.File, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetCellValue(SheetName, cell, value); err != nil {
		return fmt.Errorf("set %s: %w", cell, err)
	}
	return nil
}
