package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Reconciliations"

// WriteXLSX renders rows as a single-sheet workbook for operator download.
// Same columns as the CSV contract.
func WriteXLSX(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("remove default sheet: %w", err)
	}

	for col, name := range Header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, name); err != nil {
			return fmt.Errorf("set header %s: %w", name, err)
		}
	}

	for i, row := range rows {
		for col, value := range row.fields() {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return fmt.Errorf("row cell: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
