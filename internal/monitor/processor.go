// Package monitor polls the inbox for usage reports and runs them through the extraction pipeline.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"usage-mail-llm/internal/extract"
	imapclient "usage-mail-llm/internal/imap"
	"usage-mail-llm/internal/llm"
	"usage-mail-llm/internal/logging"
	"usage-mail-llm/internal/mailparse"
	"usage-mail-llm/internal/models"
)

// ErrIMAPConnect marks a cycle that never reached the server
var ErrIMAPConnect = errors.New("imap connect failed")

type RowWriter interface {
	Write(rows []models.UsageRow) (int, error)
}

type Alerter interface {
	Handle(ctx context.Context, email *models.Email, output string, rows []models.UsageRow) int
}

type Checkpoint interface {
	LoadOr(fallback time.Time) (time.Time, error)
	Save(t time.Time) error
}

// Printer shows the raw model output to whoever runs the monitor
type Printer interface {
	Section(title, body string)
}

type Deps struct {
	NewClient  func() imapclient.Client
	Generator  llm.Generator
	Writer     RowWriter
	Alerter    Alerter
	Checkpoint Checkpoint
	Printer    Printer
}

type Processor struct {
	cfg       *models.Config
	startDate time.Time
	deps      Deps
}

// NewProcessor creates a Processor. startDate is used until a checkpoint has been written.
func NewProcessor(cfg *models.Config, startDate time.Time, deps Deps) *Processor {
	return &Processor{cfg: cfg, startDate: startDate, deps: deps}
}

// RunCycle connects to the mailbox and processes, oldest first, the reports newer than the checkpoint.
// It returns how many emails were consumed. A failing email stops the cycle so it is retried next time;
// the checkpoint only advances past a timestamp once every email carrying it has been processed.
func (p *Processor) RunCycle(ctx context.Context) (int, error) {
	client := p.deps.NewClient()

	if err := client.Connect(p.cfg.Email.Imap); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrIMAPConnect, err)
	}
	defer func(client imapclient.Client) {
		_ = client.Close()
	}(client)

	if err := client.Login(p.cfg.Email.Login, p.cfg.Email.Password); err != nil {
		return 0, fmt.Errorf("login error: %w", err)
	}

	if err := client.SelectMailbox(p.cfg.Email.MailBox); err != nil {
		return 0, fmt.Errorf("folder selection error: %w", err)
	}

	since, err := p.deps.Checkpoint.LoadOr(p.startDate)
	if err != nil {
		return 0, fmt.Errorf("read checkpoint: %w", err)
	}

	uids, err := client.SearchFrom(p.cfg.Email.TargetSender, since)
	if err != nil {
		return 0, err
	}
	if len(uids) == 0 {
		return 0, nil
	}

	pending := p.collect(client, uids, since)
	if len(pending) == 0 {
		logging.Log.Debugf("No new emails since %s", since.Format(time.RFC3339))
		return 0, nil
	}

	if limit := p.cfg.Email.MaxPerCycle; limit > 0 && len(pending) > limit {
		cut := limit
		// the checkpoint only holds a timestamp, emails sharing it must be consumed together
		for cut < len(pending) && pending[cut].ReceivedAt().Equal(pending[cut-1].ReceivedAt()) {
			cut++
		}
		logging.Log.Infof("%d new emails, processing the oldest %d this cycle", len(pending), cut)
		pending = pending[:cut]
	}

	var processed int
	for i, email := range pending {
		if err := ctx.Err(); err != nil {
			return processed, err
		}

		locallog := logging.WithTrace(email.TraceID)
		if err := p.ProcessEmail(ctx, email); err != nil {
			locallog.WithError(err).Errorf("Error processing email UID %d, will retry next cycle", email.UID)
			return processed, nil
		}
		processed++

		received := email.ReceivedAt()
		if i+1 < len(pending) && pending[i+1].ReceivedAt().Equal(received) {
			continue
		}
		if err := p.deps.Checkpoint.Save(received); err != nil {
			return processed, fmt.Errorf("save checkpoint: %w", err)
		}
	}

	return processed, nil
}

// collect fetches and parses the candidates, keeping only those strictly newer than since
func (p *Processor) collect(client imapclient.Client, uids []uint32, since time.Time) []*models.Email {
	var pending []*models.Email
	for _, uid := range uids {
		msg, err := client.FetchMessage(uid)
		if err != nil {
			logging.Log.WithField("trace_id", "unknown").Errorf("Error fetching email UID %d: %v", uid, err)
			continue
		}

		email, err := mailparse.Parse(msg)
		if err != nil {
			logging.Log.WithField("trace_id", "unknown").Errorf("Error parsing email UID %d: %v", uid, err)
			continue
		}

		locallog := logging.WithTrace(email.TraceID)

		// IMAP FROM search is a substring match
		if !mailparse.SameAddress(email.From, p.cfg.Email.TargetSender) {
			locallog.Debugf("Email UID %d received from %s, skip ...", uid, email.From)
			continue
		}

		received := email.ReceivedAt()
		if received.IsZero() {
			locallog.Warnf("Email UID %d has no usable date, skipping", uid)
			continue
		}
		if !received.After(since) {
			continue
		}

		pending = append(pending, email)
	}

	sort.SliceStable(pending, func(i, j int) bool {
		a, b := pending[i].ReceivedAt(), pending[j].ReceivedAt()
		if a.Equal(b) {
			return pending[i].UID < pending[j].UID
		}
		return a.Before(b)
	})
	return pending
}

// ProcessEmail runs one report through the model, the spreadsheet and the alert policy:
// prompt → parse rows → append → alert
func (p *Processor) ProcessEmail(ctx context.Context, email *models.Email) error {
	locallog := logging.WithTrace(email.TraceID)
	received := email.ReceivedAt()

	locallog.Infof("New email from %s at %s: %s", email.From, received.Format(time.RFC3339), email.Subject)

	prompt := extract.BuildPrompt(extract.Style(p.cfg.Extraction.Style), p.cfg.Extraction.Threshold, email.BodyText)
	output, err := p.deps.Generator.Generate(ctx, prompt)
	if errors.Is(err, llm.ErrEmptyResponse) {
		locallog.Warn("LLM returned an empty response, nothing to record")
		return nil
	}
	if err != nil {
		return err
	}

	if p.deps.Printer != nil {
		p.deps.Printer.Section("LLM output", output)
	}

	rows := extract.ParseRows(output, received)
	if len(rows) == 0 {
		locallog.Info("No table rows found in LLM output")
	} else {
		n, err := p.deps.Writer.Write(rows)
		if err != nil {
			return fmt.Errorf("append rows: %w", err)
		}
		locallog.Infof("Appended %d rows to spreadsheet", n)
	}

	if p.deps.Alerter != nil {
		p.deps.Alerter.Handle(ctx, email, output, rows)
	}
	return nil
}
