// report.go
package presenter

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"github.com/xuri/excelize/v2"
)

// NamedTable pairs an aggregate table with its report sheet name.
type NamedTable struct {
	Name  string
	Table dataframe.DataFrame
}

// Report writes one workbook with a sheet per aggregate table and returns
// its path.
func (p *Presenter) Report(file string, tables []NamedTable) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	for _, t := range tables {
		if _, err := f.NewSheet(t.Name); err != nil {
			return "", fmt.Errorf("failed to create sheet %q: %w", t.Name, err)
		}
		if err := writeSheet(f, t.Name, t.Table); err != nil {
			return "", err
		}
	}

	if len(tables) > 0 {
		// drop the default sheet once real ones exist
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return "", fmt.Errorf("failed to drop default sheet: %w", err)
		}
	}

	path := p.path(file)
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save report: %w", err)
	}
	return path, nil
}

func writeSheet(f *excelize.File, sheetName string, df dataframe.DataFrame) error {
	colNames := df.Names()
	for i, name := range colNames {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, name); err != nil {
			return fmt.Errorf("failed to write header of %q: %w", sheetName, err)
		}
	}

	for rowIdx := 0; rowIdx < df.Nrow(); rowIdx++ {
		for colIdx, colName := range colNames {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			val := df.Col(colName).Val(rowIdx)
			if err := f.SetCellValue(sheetName, cell, val); err != nil {
				return fmt.Errorf("failed to write %s!%s: %w", sheetName, cell, err)
			}
		}
	}
	return nil
}
