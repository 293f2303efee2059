package mailparse

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"regexp"
	"strings"

	"usage-mail-llm/internal/models"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"
	"github.com/tmc/langchaingo/documentloaders"
)

// ErrNoBody is returned when the fetched message carries no body section
var ErrNoBody = errors.New("message body not retrieved")

var addressRe = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// Parse turns a fetched IMAP message into a normalized Email
func Parse(msg *imap.Message) (*models.Email, error) {
	section := &imap.BodySectionName{}
	r := msg.GetBody(section)
	if r == nil {
		return nil, ErrNoBody
	}

	email, err := ParseReader(r)
	if err != nil {
		return nil, err
	}
	email.UID = msg.Uid
	email.InternalDate = msg.InternalDate.UTC()
	return email, nil
}

// ParseReader parses a raw RFC 5322 message
func ParseReader(r io.Reader) (*models.Email, error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return nil, err
	}

	email := &models.Email{
		TraceID: uuid.New().String(),
	}

	header := mr.Header

	email.From = extractEmailAddress(header.Get("From"))

	if toList, err := header.AddressList("To"); err == nil {
		for _, addr := range toList {
			email.To = append(email.To, addr.Address)
		}
		if len(toList) > 0 {
			email.ToPrimary = toList[0].Address
		}
	}

	email.Subject = header.Get("Subject")
	if decoded, err := DecodeHeader(email.Subject); err == nil {
		email.Subject = decoded
	}

	// An unparseable Date header leaves Date zero; callers fall back to the internal date.
	if date, err := header.Date(); err == nil && !date.IsZero() {
		email.Date = date.UTC()
	}

	var plain strings.Builder
	var html string
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}

		h, ok := p.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, err := h.ContentType()
		if err != nil {
			continue
		}
		body, err := io.ReadAll(p.Body)
		if err != nil {
			continue
		}
		switch contentType {
		case "text/plain":
			plain.Write(body)
		case "text/html":
			if html == "" {
				html = string(body)
			}
		}
	}

	email.BodyText = plain.String()
	if email.BodyText == "" && html != "" {
		email.BodyText = HTMLToText(html)
	}

	return email, nil
}

// HTMLToText strips markup from an HTML body
func HTMLToText(html string) string {
	docs, err := documentloaders.NewHTML(bytes.NewReader([]byte(html))).Load(context.Background())
	if err != nil || len(docs) == 0 {
		return ""
	}
	return strings.TrimSpace(docs[0].PageContent)
}

// Simple regex to extract email address from "From" header, which may contain name and email
func extractEmailAddress(fromHeader string) string {
	return addressRe.FindString(fromHeader)
}

// SameAddress compares two addresses case-insensitively, ignoring display names
func SameAddress(a, b string) bool {
	return strings.EqualFold(extractEmailAddress(a), extractEmailAddress(b))
}

// DecodeHeader decodes MIME-encoded headers (e.g., "=?UTF-8?B?...?=") to plain text
func DecodeHeader(encoded string) (string, error) {
	decoder := new(mime.WordDecoder)
	decoded, err := decoder.DecodeHeader(encoded)
	if err != nil {
		return "", err
	}
	return decoded, nil
}
