package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const maxSheetName = 31

// WriteXLSX writes one sheet per table with a styled header row.
func WriteXLSX(w io.Writer, tables []Table) error {
	if len(tables) == 0 {
		return fmt.Errorf("no datasets to export")
	}
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#1E3A8A"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return err
	}

	for i, t := range tables {
		sheet := t.Name
		if len(sheet) > maxSheetName {
			sheet = sheet[:maxSheetName]
		}
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return err
		}

		for colIdx, col := range t.Columns {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, 1)
			f.SetCellValue(sheet, cell, col.Label)
			f.SetCellStyle(sheet, cell, cell, headerStyle)
			name, _ := excelize.ColumnNumberToName(colIdx + 1)
			f.SetColWidth(sheet, name, name, 20)
		}
		for rowIdx, row := range t.Rows {
			for colIdx, col := range t.Columns {
				cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
				if err := f.SetCellValue(sheet, cell, row[col.Key]); err != nil {
					return err
				}
			}
		}
	}
	f.SetActiveSheet(0)

	_, err = f.WriteTo(w)
	return err
}
