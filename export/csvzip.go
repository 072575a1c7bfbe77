package export

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// WriteCSVZip writes a zip archive with one "<name>.csv" per table.
func WriteCSVZip(w io.Writer, tables []Table) error {
	if len(tables) == 0 {
		return fmt.Errorf("no datasets to export")
	}
	zw := zip.NewWriter(w)
	for _, t := range tables {
		f, err := zw.Create(t.Name + ".csv")
		if err != nil {
			return err
		}
		if err := writeCSV(f, t); err != nil {
			return fmt.Errorf("write %s.csv: %w", t.Name, err)
		}
	}
	return zw.Close()
}

func writeCSV(w io.Writer, t Table) error {
	writer := csv.NewWriter(w)

	header := make([]string, 0, len(t.Columns))
	for _, col := range t.Columns {
		header = append(header, col.Key)
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, row := range t.Rows {
		record := make([]string, 0, len(t.Columns))
		for _, col := range t.Columns {
			record = append(record, formatValue(row[col.Key]))
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}
