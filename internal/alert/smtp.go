package alert

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"time"

	"usage-mail-llm/internal/models"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

// SMTPSender delivers plain text mails with PLAIN authentication
type SMTPSender struct {
	server   string
	login    string
	password string
	from     string
	useTLS   bool
	now      func() time.Time
}

func NewSMTPSender(cfg models.SMTPConfig) *SMTPSender {
	return &SMTPSender{
		server:   cfg.Server,
		login:    cfg.Login,
		password: cfg.Password,
		from:     cfg.From,
		useTLS:   cfg.UseTLS(),
		now:      time.Now,
	}
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := BuildMessage(s.from, to, subject, body, s.now())
	if err != nil {
		return err
	}

	c, err := s.dial()
	if err != nil {
		return fmt.Errorf("smtp connect %s: %w", s.server, err)
	}
	defer func() { _ = c.Close() }()

	if err := c.Auth(sasl.NewPlainClient("", s.login, s.password)); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	if err := c.SendMail(s.from, []string{to}, bytes.NewReader(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return c.Quit()
}

func (s *SMTPSender) dial() (*smtp.Client, error) {
	host, _, err := net.SplitHostPort(s.server)
	if err != nil {
		return nil, err
	}
	tlsConfig := &tls.Config{ServerName: host}
	if s.useTLS {
		return smtp.DialTLS(s.server, tlsConfig)
	}
	return smtp.DialStartTLS(s.server, tlsConfig)
}

// BuildMessage renders a single part text/plain mail
func BuildMessage(from, to, subject, body string, date time.Time) ([]byte, error) {
	var h mail.Header
	h.SetDate(date)
	h.SetAddressList("From", []*mail.Address{{Address: from}})
	h.SetAddressList("To", []*mail.Address{{Address: to}})
	h.SetSubject(subject)
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("message id: %w", err)
	}

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	if _, err := io.WriteString(w, body); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
