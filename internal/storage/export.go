package storage

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// HistorySheet is the worksheet name used by ExportXLSX
const HistorySheet = "History"

// maxCellChars is Excel's per-cell character limit
const maxCellChars = 32767

// ExportXLSX renders records as a single-sheet workbook, one row per record
func ExportXLSX(records []Record) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(HistorySheet); err != nil {
		return nil, err
	}
	index, _ := f.GetSheetIndex(HistorySheet)
	f.SetActiveSheet(index)
	// drop the default sheet so the workbook has one tab
	_ = f.DeleteSheet("Sheet1")

	headers := []string{"ID", "Title", "Created At", "Word Count", "Text"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(HistorySheet, cell, h)
	}

	for i, r := range records {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(HistorySheet, cell, v)
		}

		write(1, r.ID)
		write(2, r.Title)
		write(3, r.CreatedAt.UTC().Format("2006-01-02 15:04:05"))
		write(4, r.WordCount)
		write(5, truncate(r.Text, maxCellChars))
	}

	_ = f.SetColWidth(HistorySheet, "A", "A", 38) // id
	_ = f.SetColWidth(HistorySheet, "B", "B", 28) // title
	_ = f.SetColWidth(HistorySheet, "C", "C", 20) // created
	_ = f.SetColWidth(HistorySheet, "D", "D", 12) // words
	_ = f.SetColWidth(HistorySheet, "E", "E", 80) // text

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n])
}
