package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"usage-mail-llm/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// ErrInvalid is wrapped by every validation failure
var ErrInvalid = errors.New("invalid configuration")

// Load reads the configuration from the specified YAML file and returns a Config struct.
// Values from a .env file in the working directory and from the process environment
// override the file. A missing YAML file is not an error when the environment provides the rest.
func Load(filepath string) (*models.Config, error) {
	_ = godotenv.Load()

	var config models.Config
	configFile, err := os.ReadFile(filepath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(configFile, &config); err != nil {
			return nil, fmt.Errorf("parse %s: %w", filepath, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	applyEnv(&config)
	applyDefaults(&config)
	return &config, nil
}

func applyEnv(cfg *models.Config) {
	overrides := map[string]*string{
		"GMAIL_USER":         &cfg.Email.Login,
		"GMAIL_APP_PASSWORD": &cfg.Email.Password,
		"TARGET_SENDER":      &cfg.Email.TargetSender,
		"FILTER_START_DATE":  &cfg.Email.FilterStartDate,
		"OLLAMA_HOST":        &cfg.LLM.Host,
		"ALERT_TO":           &cfg.Alert.To,
	}
	for key, dst := range overrides {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
}

func applyDefaults(cfg *models.Config) {
	setString(&cfg.Email.Imap, "imap.gmail.com:993")
	setString(&cfg.Email.MailBox, "INBOX")
	if cfg.Email.RefreshTime <= 0 {
		cfg.Email.RefreshTime = 30 * time.Second
	}
	if cfg.Email.MaxPerCycle <= 0 {
		cfg.Email.MaxPerCycle = 10
	}

	setString(&cfg.SMTP.Server, "smtp.gmail.com:465")
	setString(&cfg.SMTP.Login, cfg.Email.Login)
	setString(&cfg.SMTP.Password, cfg.Email.Password)
	setString(&cfg.SMTP.From, cfg.SMTP.Login)

	setString(&cfg.LLM.Host, "http://localhost:11434")
	setString(&cfg.LLM.Model, "gemma3")
	if cfg.LLM.Timeout <= 0 {
		cfg.LLM.Timeout = 5 * time.Minute
	}

	setString(&cfg.Extraction.Style, "notify")
	if cfg.Extraction.Threshold <= 0 {
		cfg.Extraction.Threshold = 85
	}

	setString(&cfg.Sheet.Path, "output.xlsx")
	setString(&cfg.Sheet.Sheet, "Sheet1")
	setString(&cfg.Sheet.Mode, "append")

	setString(&cfg.Checkpoint.Path, "last_time.txt")

	setString(&cfg.Alert.Mode, "column")
	setString(&cfg.Alert.Confirm, "prompt")

	setString(&cfg.RAG.Model, "mistral")
	setString(&cfg.RAG.EmbeddingModel, cfg.RAG.Model)
	if cfg.RAG.Temperature == nil {
		temp := 0.7
		cfg.RAG.Temperature = &temp
	}
	if cfg.RAG.ChunkSize <= 0 {
		cfg.RAG.ChunkSize = 500
	}
	if cfg.RAG.ChunkOverlap <= 0 || cfg.RAG.ChunkOverlap >= cfg.RAG.ChunkSize {
		cfg.RAG.ChunkOverlap = 50
	}
	if cfg.RAG.TopK <= 0 {
		cfg.RAG.TopK = 4
	}
	setString(&cfg.RAG.Store, "memory")
	setString(&cfg.RAG.StorePath, "rag.db")
	setString(&cfg.RAG.Prompt, "augmented")

	setString(&cfg.Logging.Level, "info")
	setString(&cfg.Logging.Format, "json")
}

func setString(dst *string, def string) {
	if strings.TrimSpace(*dst) == "" {
		*dst = def
	}
}

// Validate checks the settings the inbox monitor cannot run without
func Validate(cfg *models.Config) error {
	var problems []string
	if cfg.Email.Login == "" {
		problems = append(problems, "email.login (GMAIL_USER) is required")
	}
	if cfg.Email.Password == "" {
		problems = append(problems, "email.password (GMAIL_APP_PASSWORD) is required")
	}
	if cfg.Email.TargetSender == "" {
		problems = append(problems, "email.targetSender (TARGET_SENDER) is required")
	}
	if _, err := StartDate(cfg); err != nil {
		problems = append(problems, err.Error())
	}
	problems = append(problems, checkEnum("extraction.style", cfg.Extraction.Style, "table", "smart", "notify")...)
	problems = append(problems, checkEnum("sheet.mode", cfg.Sheet.Mode, "append", "overwrite")...)
	problems = append(problems, checkEnum("alert.mode", cfg.Alert.Mode, "none", "keyword", "column")...)
	problems = append(problems, checkEnum("alert.confirm", cfg.Alert.Confirm, "prompt", "always", "never")...)

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// Warnings lists accepted settings that can never trigger an alert
func Warnings(cfg *models.Config) []string {
	var warnings []string
	switch {
	case cfg.Alert.Mode == "column" && cfg.Extraction.Style != "notify":
		warnings = append(warnings, fmt.Sprintf("alert.mode column needs extraction.style notify, style %q never yields a Notify column", cfg.Extraction.Style))
	case cfg.Alert.Mode == "keyword" && cfg.Extraction.Style != "smart":
		warnings = append(warnings, fmt.Sprintf("alert.mode keyword needs extraction.style smart, style %q never yields a NOTIFY block", cfg.Extraction.Style))
	}
	return warnings
}

// ValidateRAG checks the settings used by the rag commands
func ValidateRAG(cfg *models.Config) error {
	problems := checkEnum("rag.store", cfg.RAG.Store, "memory", "sqlite")
	problems = append(problems, checkEnum("rag.prompt", cfg.RAG.Prompt, "strict", "augmented")...)
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

func checkEnum(field, value string, allowed ...string) []string {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return []string{fmt.Sprintf("%s must be one of %s, got %q", field, strings.Join(allowed, "|"), value)}
}

// StartDate parses email.filterStartDate (RFC3339, e.g. 2025-07-26T00:00:00Z) in UTC
func StartDate(cfg *models.Config) (time.Time, error) {
	raw := strings.TrimSpace(cfg.Email.FilterStartDate)
	if raw == "" {
		return time.Time{}, errors.New("email.filterStartDate (FILTER_START_DATE) is required")
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("email.filterStartDate %q is not an ISO-8601 date, use e.g. 2025-07-26T00:00:00Z", raw)
}
