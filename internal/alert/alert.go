// Package alert mails usage warnings to the reported users.
package alert

import (
	"context"
	"fmt"

	"usage-mail-llm/internal/extract"
	"usage-mail-llm/internal/logging"
	"usage-mail-llm/internal/models"
)

const (
	ModeNone    = "none"
	ModeKeyword = "keyword"
	ModeColumn  = "column"

	ConfirmPrompt = "prompt"
	ConfirmAlways = "always"
	ConfirmNever  = "never"

	KeywordSubject = "Data Usage Alert"
	ColumnSubject  = "Consumption Report from Admin"
)

type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Confirmer answers whether an alert may go out
type Confirmer interface {
	Confirm(question string) (bool, error)
}

type Notifier struct {
	mode      string
	confirm   string
	to        string
	threshold int
	sender    Sender
	confirmer Confirmer
}

// NewNotifier creates a Notifier from the alert settings. threshold is only used in the keyword mail body.
func NewNotifier(cfg models.AlertConfig, threshold int, sender Sender, confirmer Confirmer) *Notifier {
	return &Notifier{
		mode:      cfg.Mode,
		confirm:   cfg.Confirm,
		to:        cfg.To,
		threshold: threshold,
		sender:    sender,
		confirmer: confirmer,
	}
}

// Handle decides which alerts the LLM output calls for and sends the approved ones.
// It returns the number of mails sent; failures are logged and never returned.
func (n *Notifier) Handle(ctx context.Context, email *models.Email, output string, rows []models.UsageRow) int {
	locallog := logging.WithTrace(email.TraceID)

	recipient := n.to
	if recipient == "" {
		recipient = email.From
	}

	var sent int
	switch n.mode {
	case ModeKeyword:
		if !extract.WantsNotification(output) {
			return 0
		}
		locallog.Info("LLM suggests sending a notification to the user")
		if n.approved("LLM suggests notifying the user. Send an email alert?") {
			body := fmt.Sprintf("Hi,\n\nYour data consumption has exceeded %d%%.\nPlease take necessary action.\n\nThanks", n.threshold)
			if n.send(ctx, recipient, KeywordSubject, body, email.TraceID) {
				sent++
			}
		} else {
			locallog.Info("Notification declined")
		}

	case ModeColumn:
		for _, row := range rows {
			if !row.WantsNotify() {
				continue
			}
			locallog.Infof("User %s has consumed %s, notify flag set", row.User, row.Consumed)
			if !n.approved(fmt.Sprintf("User %s has consumed %s. Notify the user?", row.User, row.Consumed)) {
				locallog.Infof("Notification for %s declined", row.User)
				continue
			}
			body := fmt.Sprintf("Hi %s,\n\nYour data usage is %s.\nPlease take necessary action.\n\nThanks,\nAdmin", row.User, row.Consumed)
			if n.send(ctx, recipient, ColumnSubject, body, email.TraceID) {
				sent++
			}
		}
	}
	return sent
}

func (n *Notifier) approved(question string) bool {
	switch n.confirm {
	case ConfirmAlways:
		return true
	case ConfirmNever:
		return false
	}
	if n.confirmer == nil {
		return false
	}
	ok, err := n.confirmer.Confirm(question)
	if err != nil {
		logging.Log.WithError(err).Warn("Confirmation unavailable, alert not sent")
		return false
	}
	return ok
}

func (n *Notifier) send(ctx context.Context, to, subject, body, traceID string) bool {
	locallog := logging.WithTrace(traceID)
	if n.sender == nil {
		locallog.Warn("No mail sender configured, alert skipped")
		return false
	}
	if err := n.sender.Send(ctx, to, subject, body); err != nil {
		locallog.WithError(err).Errorf("Failed to send alert email to %s", to)
		return false
	}
	locallog.Infof("Alert email sent to %s", to)
	return true
}
