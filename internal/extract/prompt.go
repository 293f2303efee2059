package extract

import (
	"fmt"
	"strings"
)

// Style selects which prompt is sent for a usage report
type Style string

const (
	// StyleTable asks for user, consumed and remaining percentages only
	StyleTable Style = "table"
	// StyleSmart adds a free-text warning when consumption is above the threshold
	StyleSmart Style = "smart"
	// StyleNotify adds a Notify column that is Yes above the threshold
	StyleNotify Style = "notify"
)

// WarningPhrase is the sentence the smart prompt asks the model to emit for heavy users
const WarningPhrase = "Data consumption is high. Would you like to notify the user?"

// BuildPrompt renders the extraction prompt for body
func BuildPrompt(style Style, threshold int, body string) string {
	var b strings.Builder
	switch style {
	case StyleTable:
		b.WriteString("You are an AI assistant. Read the email text below and extract key information like user name, ")
		b.WriteString("consumed data percentage, and remaining data percentage. Return the output in the following table format:\n\n")
		b.WriteString("User | Consumed Data | Remaining Data\n")
		b.WriteString("-----|---------------|----------------\n")
		b.WriteString("Mandar | 80% | 20%\n\n")
		b.WriteString("Use plain text, no Markdown, and extract only what's available.\n")
	case StyleSmart:
		b.WriteString("You are an assistant. Extract the user's name, consumed data %, and remaining data % from the email below. ")
		b.WriteString("Output it in this format:\n\n")
		b.WriteString("User | Consumed Data | Remaining Data\n")
		b.WriteString("Mandar | 80% | 20%\n\n")
		fmt.Fprintf(&b, "If consumed data is more than %d%%, also say:\n%q\n\n", threshold, WarningPhrase)
		b.WriteString("Only return plain text table and optional warning.\n")
	default:
		fmt.Fprintf(&b, "Extract user name, consumed %%, remaining %%, and recommend if admin should notify the user if consumption > %d%%. Format:\n\n", threshold)
		b.WriteString("User | Consumed Data | Remaining Data | Notify\n")
		b.WriteString("Mandar | 87% | 13% | Yes\n")
	}

	b.WriteString("\nEmail:\n---\n")
	b.WriteString(body)
	b.WriteString("\n---\n")
	return b.String()
}
