// Package sheet appends extracted usage rows to an xlsx workbook.
package sheet

import (
	"errors"
	"fmt"
	"os"
	"time"

	"usage-mail-llm/internal/models"

	"github.com/xuri/excelize/v2"
)

// DateLayout is the text format of the Date column
const DateLayout = "2006-01-02 15:04:05"

// Header is written once, as the first row of a new sheet
var Header = []string{"Date", "User", "Consumed Data", "Remaining Data", "Notify"}

const defaultSheet = "Sheet1"

type Writer struct {
	path      string
	sheet     string
	overwrite bool
}

// NewWriter returns a writer for path. mode "overwrite" replaces the workbook on every write,
// anything else appends.
func NewWriter(path, sheet, mode string) *Writer {
	if sheet == "" {
		sheet = defaultSheet
	}
	return &Writer{path: path, sheet: sheet, overwrite: mode == "overwrite"}
}

func (w *Writer) Path() string { return w.path }

// Write stores rows and returns how many were written. No rows leaves the file untouched.
func (w *Writer) Write(rows []models.UsageRow) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	f, err := w.open()
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()

	existing, err := f.GetRows(w.sheet)
	if err != nil {
		return 0, fmt.Errorf("read sheet %s: %w", w.sheet, err)
	}

	next := len(existing) + 1
	if len(existing) == 0 {
		if err := setRow(f, w.sheet, 1, toInterfaces(Header)); err != nil {
			return 0, err
		}
		next = 2
	}

	for i, row := range rows {
		values := []interface{}{
			row.Date.Format(DateLayout),
			row.User,
			row.Consumed,
			row.Remaining,
			row.Notify,
		}
		if err := setRow(f, w.sheet, next+i, values); err != nil {
			return i, err
		}
	}

	if err := f.SaveAs(w.path); err != nil {
		return 0, fmt.Errorf("save workbook %s: %w", w.path, err)
	}
	return len(rows), nil
}

func (w *Writer) open() (*excelize.File, error) {
	if !w.overwrite {
		f, err := excelize.OpenFile(w.path)
		switch {
		case err == nil:
			return f, ensureSheet(f, w.sheet)
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("open workbook %s: %w", w.path, err)
		}
	}

	f := excelize.NewFile()
	if w.sheet != defaultSheet {
		if err := f.SetSheetName(defaultSheet, w.sheet); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("rename sheet: %w", err)
		}
	}
	return f, nil
}

func ensureSheet(f *excelize.File, name string) error {
	idx, err := f.GetSheetIndex(name)
	if err != nil {
		return err
	}
	if idx >= 0 {
		return nil
	}
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}

func toInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// ReadRows loads the data rows (header excluded) written by Writer
func ReadRows(path, sheet string) ([]models.UsageRow, error) {
	if sheet == "" {
		sheet = defaultSheet
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	raw, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}

	var rows []models.UsageRow
	for i, cells := range raw {
		if i == 0 && len(cells) > 0 && cells[0] == Header[0] {
			continue
		}
		padded := make([]string, len(Header))
		copy(padded, cells)

		row := models.UsageRow{
			User:      padded[1],
			Consumed:  padded[2],
			Remaining: padded[3],
			Notify:    padded[4],
		}
		if t, err := time.ParseInLocation(DateLayout, padded[0], time.UTC); err == nil {
			row.Date = t
		}
		rows = append(rows, row)
	}
	return rows, nil
}
