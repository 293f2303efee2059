package models

import (
	"strings"
	"time"
)

// UsageRow is one line of a usage report as extracted by the language model.
// Values are kept verbatim, malformed percentages included.
type UsageRow struct {
	Date      time.Time
	User      string
	Consumed  string
	Remaining string
	Notify    string
}

// WantsNotify reports whether the Notify column says yes
func (r UsageRow) WantsNotify() bool {
	return strings.EqualFold(strings.TrimSpace(r.Notify), "yes")
}
