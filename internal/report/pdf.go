// Package report exports recorded usage rows as a PDF table.
package report

import (
	"fmt"
	"time"

	"usage-mail-llm/internal/models"
	"usage-mail-llm/internal/sheet"

	"github.com/jung-kurt/gofpdf"
)

var columnWidths = []float64{45, 55, 35, 35, 20}

// WritePDF renders rows as a landscape table, rows flagged for notification highlighted.
// The core Helvetica font only covers cp1252, other characters are transliterated.
func WritePDF(rows []models.UsageRow, title, path string) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(title, true)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, tr(title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, fmt.Sprintf("%d rows, generated %s", len(rows), time.Now().Format(sheet.DateLayout)), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	header := func() {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(220, 220, 220)
		for i, name := range sheet.Header {
			pdf.CellFormat(columnWidths[i], 8, name, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 10)
	}
	header()

	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for _, row := range rows {
		if pdf.GetY()+7 > pageHeight-bottom-12 {
			pdf.AddPage()
			header()
		}

		fill := row.WantsNotify()
		if fill {
			pdf.SetFillColor(255, 224, 178)
		}
		date := ""
		if !row.Date.IsZero() {
			date = row.Date.Format(sheet.DateLayout)
		}
		cells := []string{date, row.User, row.Consumed, row.Remaining, row.Notify}
		for i, cell := range cells {
			pdf.CellFormat(columnWidths[i], 7, tr(cell), "1", 0, "L", fill, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}
