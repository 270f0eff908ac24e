package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// maxSheetName is the sheet name length limit of the xlsx format.
const maxSheetName = 31

// TextSheetName holds the narrative text blocks of non-statement reports.
const TextSheetName = "Text_Content"

// Sheet is one worksheet worth of rows.
type Sheet struct {
	Name string
	Rows [][]any
}

// tableSheet renders a table with its header rows first. Tables without header cells
// get the column indices as header.
func tableSheet(t Table) Sheet {
	s := Sheet{Name: truncateName(t.Name)}
	width := t.Width()

	if len(t.Header) == 0 {
		header := make([]any, width)
		for i := range header {
			header[i] = strconv.Itoa(i)
		}
		s.Rows = append(s.Rows, header)
	}
	for _, row := range t.Header {
		s.Rows = append(s.Rows, stringRow(row))
	}
	for _, row := range t.Rows {
		values := make([]any, len(row))
		for i, cell := range row {
			values[i] = cellValue(cell)
		}
		s.Rows = append(s.Rows, values)
	}
	return s
}

func textSheet(blocks []TextBlock) Sheet {
	s := Sheet{Name: TextSheetName, Rows: [][]any{{"Tag", "Text"}}}
	for _, b := range blocks {
		s.Rows = append(s.Rows, []any{b.Tag, b.Text})
	}
	return s
}

func stringRow(row []string) []any {
	out := make([]any, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}

func truncateName(name string) string {
	if utf8.RuneCountInString(name) <= maxSheetName {
		return name
	}
	return string([]rune(name)[:maxSheetName])
}

// writeWorkbook writes sheets to dest atomically: the workbook is written to a temp file
// in dest's directory and renamed over dest only once complete.
func writeWorkbook(dest string, sheets []Sheet) (err error) {
	if len(sheets) == 0 {
		return fmt.Errorf("%w: no sheets to write", ErrWriteFailed)
	}

	f := excelize.NewFile()
	defer f.Close()

	first := f.GetSheetName(0)
	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName(first, sheet.Name); err != nil {
				return fmt.Errorf("%w: rename sheet %q: %v", ErrWriteFailed, sheet.Name, err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return fmt.Errorf("%w: create sheet %q: %v", ErrWriteFailed, sheet.Name, err)
		}

		for r, row := range sheet.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrWriteFailed, err)
			}
			if err := f.SetSheetRow(sheet.Name, cell, &row); err != nil {
				return fmt.Errorf("%w: write %s!%s: %v", ErrWriteFailed, sheet.Name, cell, err)
			}
		}
	}
	f.SetActiveSheet(0)

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrWriteFailed, dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".export-*.xlsx")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", ErrWriteFailed, err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if err := f.Write(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: write workbook: %v", ErrWriteFailed, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: chmod temp file: %v", ErrWriteFailed, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close temp file: %v", ErrWriteFailed, err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return fmt.Errorf("%w: rename to %s: %v", ErrWriteFailed, dest, err)
	}
	return nil
}
