package models

import "time"

// Email represents a normalized parsed email message
type Email struct {
	UID          uint32
	From         string
	To           []string
	ToPrimary    string
	Subject      string
	BodyText     string
	Date         time.Time
	InternalDate time.Time
	TraceID      string
}

// ReceivedAt returns the Date header time, or the server internal date when the header was unusable.
func (e *Email) ReceivedAt() time.Time {
	if !e.Date.IsZero() {
		return e.Date
	}
	return e.InternalDate
}
