package mailparse

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-imap"
)

const multipartReport = "From: \"ISP Reports\" <reports@isp.example>\r\n" +
	"To: admin@example.com, other@example.com\r\n" +
	"Subject: =?UTF-8?Q?Rapport_de_consommation?=\r\n" +
	"Date: Sat, 26 Jul 2025 10:15:00 +0200\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/alternative; boundary=\"b1\"\r\n" +
	"\r\n" +
	"--b1\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Hello Mandar, you have consumed 87% of your data.\r\n" +
	"--b1\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<p>Hello Mandar</p>\r\n" +
	"--b1--\r\n"

const htmlOnlyReport = "From: reports@isp.example\r\n" +
	"To: admin@example.com\r\n" +
	"Subject: Usage\r\n" +
	"Date: not a date\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<html><body><p>Priya consumed 91% and has 9% remaining</p></body></html>\r\n"

func TestParseReader_Multipart(t *testing.T) {
	email, err := ParseReader(strings.NewReader(multipartReport))
	if err != nil {
		t.Fatalf("ParseReader() error: %v", err)
	}

	if email.From != "reports@isp.example" {
		t.Errorf("From = %q, want reports@isp.example", email.From)
	}
	if email.ToPrimary != "admin@example.com" || len(email.To) != 2 {
		t.Errorf("To = %v / %q, want two recipients starting with admin@example.com", email.To, email.ToPrimary)
	}
	if email.Subject != "Rapport de consommation" {
		t.Errorf("Subject = %q", email.Subject)
	}
	wantDate := time.Date(2025, 7, 26, 8, 15, 0, 0, time.UTC)
	if !email.Date.Equal(wantDate) {
		t.Errorf("Date = %v, want %v", email.Date, wantDate)
	}
	if !strings.Contains(email.BodyText, "consumed 87%") {
		t.Errorf("BodyText = %q, want the text/plain part", email.BodyText)
	}
	if strings.Contains(email.BodyText, "<p>") {
		t.Errorf("BodyText should not include the HTML alternative: %q", email.BodyText)
	}
	if email.TraceID == "" {
		t.Error("Expected a trace id")
	}
}

func TestParseReader_HTMLFallbackAndBadDate(t *testing.T) {
	email, err := ParseReader(strings.NewReader(htmlOnlyReport))
	if err != nil {
		t.Fatalf("ParseReader() error: %v", err)
	}
	if !email.Date.IsZero() {
		t.Errorf("Expected zero Date for unparseable header, got %v", email.Date)
	}
	if !strings.Contains(email.BodyText, "91%") || strings.Contains(email.BodyText, "<p>") {
		t.Errorf("BodyText = %q, want markup-free text", email.BodyText)
	}
}

func TestParse_IMAPMessage(t *testing.T) {
	internal := time.Date(2025, 7, 26, 9, 0, 0, 0, time.UTC)
	msg := &imap.Message{
		Uid:          42,
		InternalDate: internal,
		Body: map[*imap.BodySectionName]imap.Literal{
			{}: bytes.NewBufferString(htmlOnlyReport),
		},
	}

	email, err := Parse(msg)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if email.UID != 42 {
		t.Errorf("UID = %d, want 42", email.UID)
	}
	if !email.ReceivedAt().Equal(internal) {
		t.Errorf("ReceivedAt() = %v, want internal date %v", email.ReceivedAt(), internal)
	}
}

func TestParse_NoBody(t *testing.T) {
	if _, err := Parse(&imap.Message{Uid: 1}); !errors.Is(err, ErrNoBody) {
		t.Errorf("Parse() error = %v, want ErrNoBody", err)
	}
}

func TestDecodeHeader(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{
			name:     "Plain ASCII",
			input:    "Hello World",
			expected: "Hello World",
			wantErr:  false,
		},
		{
			name:     "UTF-8 encoded",
			input:    "=?UTF-8?Q?Rapport_de_consommation_=C3=A0_jour?=",
			expected: "Rapport de consommation à jour",
			wantErr:  false,
		},
		{
			name:     "ISO-8859-1 encoded",
			input:    "=?ISO-8859-1?Q?Caf=E9?=",
			expected: "Café",
			wantErr:  false,
		},
		{
			name:     "Base64 encoded",
			input:    "=?UTF-8?B?SGVsbG8gV29ybGQ=?=",
			expected: "Hello World",
			wantErr:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeHeader(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("DecodeHeader() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.expected {
				t.Errorf("DecodeHeader() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestExtractEmailAddress(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Simple email",
			input:    "reports@isp.example",
			expected: "reports@isp.example",
		},
		{
			name:     "Email with name",
			input:    "ISP Reports <reports@isp.example>",
			expected: "reports@isp.example",
		},
		{
			name:     "Email with quotes",
			input:    `"ISP Team" <reports@isp.example>`,
			expected: "reports@isp.example",
		},
		{
			name:     "No email",
			input:    "Just some text",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractEmailAddress(tt.input)
			if got != tt.expected {
				t.Errorf("extractEmailAddress() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSameAddress(t *testing.T) {
	if !SameAddress("Reports <REPORTS@isp.example>", "reports@isp.example") {
		t.Error("Expected case-insensitive match through display name")
	}
	if SameAddress("reports@isp.example", "billing@isp.example") {
		t.Error("Expected different addresses not to match")
	}
}
