package models

import "time"

// Config represents the application configuration
type Config struct {
	Email      EmailConfig      `yaml:"email"`
	SMTP       SMTPConfig       `yaml:"smtp"`
	LLM        LLMConfig        `yaml:"llm"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Sheet      SheetConfig      `yaml:"sheet"`
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
	Alert      AlertConfig      `yaml:"alert"`
	RAG        RAGConfig        `yaml:"rag"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// EmailConfig represents IMAP email configuration
type EmailConfig struct {
	Imap            string        `yaml:"imap"`
	Login           string        `yaml:"login"`
	Password        string        `yaml:"password"`
	RefreshTime     time.Duration `yaml:"refreshTime"`
	Schedule        string        `yaml:"schedule"`
	MailBox         string        `yaml:"mailbox"`
	TargetSender    string        `yaml:"targetSender"`
	FilterStartDate string        `yaml:"filterStartDate"`
	MaxPerCycle     int           `yaml:"maxPerCycle"`
}

// SMTPConfig represents the outgoing mail server used for alerts
type SMTPConfig struct {
	Server   string `yaml:"server"`
	Login    string `yaml:"login"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	TLS      *bool  `yaml:"tls"`
}

// UseTLS reports whether the SMTP connection uses implicit TLS. Unset means true.
func (s SMTPConfig) UseTLS() bool {
	return s.TLS == nil || *s.TLS
}

// LLMConfig points at the local Ollama server used by the mail tools
type LLMConfig struct {
	Host        string        `yaml:"host"`
	Model       string        `yaml:"model"`
	Temperature *float64      `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// ExtractionConfig selects the prompt used on report emails
type ExtractionConfig struct {
	Style     string `yaml:"style"`
	Threshold int    `yaml:"threshold"`
}

// SheetConfig describes the spreadsheet receiving extracted rows
type SheetConfig struct {
	Path  string `yaml:"path"`
	Sheet string `yaml:"sheet"`
	Mode  string `yaml:"mode"`
}

// CheckpointConfig locates the last-processed timestamp file
type CheckpointConfig struct {
	Path string `yaml:"path"`
}

// AlertConfig controls notification mails sent after extraction
type AlertConfig struct {
	Mode    string `yaml:"mode"`
	Confirm string `yaml:"confirm"`
	To      string `yaml:"to"`
}

// RAGConfig configures the retrieval-augmented generation pipeline
type RAGConfig struct {
	Model          string   `yaml:"model"`
	EmbeddingModel string   `yaml:"embeddingModel"`
	Temperature    *float64 `yaml:"temperature"`
	ChunkSize      int      `yaml:"chunkSize"`
	ChunkOverlap   int      `yaml:"chunkOverlap"`
	TopK           int      `yaml:"topK"`
	MinScore       float32  `yaml:"minScore"`
	Store          string   `yaml:"store"`
	StorePath      string   `yaml:"storePath"`
	Prompt         string   `yaml:"prompt"`
}

// LoggingConfig selects log level and output format
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}
