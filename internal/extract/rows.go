package extract

import (
	"strings"
	"time"

	"usage-mail-llm/internal/models"
)

// ParseRows pulls table rows out of the model output. Lines without a pipe, header lines and
// separator lines are skipped; everything else is accepted as-is.
func ParseRows(output string, emailTime time.Time) []models.UsageRow {
	var rows []models.UsageRow
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		if !strings.Contains(line, "|") || strings.Contains(line, "User") || isSeparator(line) {
			continue
		}

		cells := splitCells(line)
		if len(cells) == 0 {
			continue
		}
		row := models.UsageRow{Date: emailTime}
		fields := []*string{&row.User, &row.Consumed, &row.Remaining, &row.Notify}
		for i, cell := range cells {
			if i >= len(fields) {
				break
			}
			*fields[i] = cell
		}
		rows = append(rows, row)
	}
	return rows
}

func splitCells(line string) []string {
	parts := strings.Split(line, "|")
	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		cells = append(cells, strings.TrimSpace(p))
	}
	// "| a | b |" yields empty edge cells
	if len(cells) > 0 && cells[0] == "" {
		cells = cells[1:]
	}
	if len(cells) > 0 && cells[len(cells)-1] == "" {
		cells = cells[:len(cells)-1]
	}
	return cells
}

func isSeparator(line string) bool {
	trimmed := strings.TrimSpace(line)
	if !strings.Contains(trimmed, "-") {
		return false
	}
	return strings.Trim(trimmed, "-|: ") == ""
}

// WantsNotification reports whether the model flagged the report for a notification
func WantsNotification(output string) bool {
	return strings.Contains(strings.ToLower(output), "notify the user")
}
