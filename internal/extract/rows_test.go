package extract

import (
	"strings"
	"testing"
	"time"

	"usage-mail-llm/internal/models"
)

func TestParseRows(t *testing.T) {
	emailTime := time.Date(2025, 7, 26, 8, 15, 0, 0, time.UTC)

	tests := []struct {
		name   string
		output string
		want   []models.UsageRow
	}{
		{
			name: "Notify style",
			output: `User | Consumed Data | Remaining Data | Notify
Mandar | 87% | 13% | Yes
Priya | 40% | 60% | No`,
			want: []models.UsageRow{
				{Date: emailTime, User: "Mandar", Consumed: "87%", Remaining: "13%", Notify: "Yes"},
				{Date: emailTime, User: "Priya", Consumed: "40%", Remaining: "60%", Notify: "No"},
			},
		},
		{
			name: "Table style with separator",
			output: `User | Consumed Data | Remaining Data
-----|---------------|----------------
Mandar | 80% | 20%`,
			want: []models.UsageRow{
				{Date: emailTime, User: "Mandar", Consumed: "80%", Remaining: "20%"},
			},
		},
		{
			name: "Smart style with warning",
			output: `Mandar | 92% | 8%

"❗ Data consumption is high. Would you like to notify the user?"`,
			want: []models.UsageRow{
				{Date: emailTime, User: "Mandar", Consumed: "92%", Remaining: "8%"},
			},
		},
		{
			name: "Markdown pipes",
			output: `| User | Consumed Data | Remaining Data |
| :--- | :---: | ---: |
| Mandar | 87% | 13% |`,
			want: []models.UsageRow{
				{Date: emailTime, User: "Mandar", Consumed: "87%", Remaining: "13%"},
			},
		},
		{
			name:   "Malformed values kept verbatim",
			output: "Mandar | about ninety | ?",
			want: []models.UsageRow{
				{Date: emailTime, User: "Mandar", Consumed: "about ninety", Remaining: "?"},
			},
		},
		{
			name:   "No table",
			output: "I could not find any usage information in this email.",
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseRows(tt.output, emailTime)
			if len(got) != len(tt.want) {
				t.Fatalf("ParseRows() returned %d rows, want %d\nGot: %+v", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ParseRows()[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestWantsNotification(t *testing.T) {
	if !WantsNotification("❗ Data consumption is high. Would you like to NOTIFY THE USER?") {
		t.Error("Expected warning phrase to be detected regardless of case")
	}
	if WantsNotification("Mandar | 20% | 80%") {
		t.Error("Expected plain table not to trigger a notification")
	}
}

func TestBuildPrompt(t *testing.T) {
	body := "Hello Mandar, you used 87% of your plan."

	tests := []struct {
		style    Style
		contains []string
		excludes []string
	}{
		{StyleTable, []string{"User | Consumed Data | Remaining Data", "no Markdown"}, []string{"Notify", WarningPhrase}},
		{StyleSmart, []string{"more than 90%", WarningPhrase}, []string{"| Notify"}},
		{StyleNotify, []string{"consumption > 90%", "| Notify", "Mandar | 87% | 13% | Yes"}, nil},
	}

	for _, tt := range tests {
		t.Run(string(tt.style), func(t *testing.T) {
			prompt := BuildPrompt(tt.style, 90, body)
			if !strings.Contains(prompt, "---\n"+body+"\n---") {
				t.Errorf("Prompt does not embed the email body between fences:\n%s", prompt)
			}
			for _, c := range tt.contains {
				if !strings.Contains(prompt, c) {
					t.Errorf("Prompt missing %q:\n%s", c, prompt)
				}
			}
			for _, e := range tt.excludes {
				if strings.Contains(prompt, e) {
					t.Errorf("Prompt should not contain %q:\n%s", e, prompt)
				}
			}
		})
	}
}
