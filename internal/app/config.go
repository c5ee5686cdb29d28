package app

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/vk/blockbind/internal/dispatch"
)

// Report formats.
const (
	ReportText = "text"
	ReportJSON = "json"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	DocumentPath string // .hcl file or directory
	ScriptPath   string // edit script replayed after loading
	IndexPath    string // SQLite binding index, written after each run
	OutputPath   string // normalized document; "-" writes to the output stream

	ReportFormat      string
	FailOnDiagnostics bool
	MaxEvents         int

	EditorURL          string
	EditorNamespace    string
	InsecureSkipVerify bool
	ConnectTimeout     time.Duration

	Debounce time.Duration

	LogFormat       string
	LogLevel        string
	LogOutput       io.Writer // defaults to the app's output stream
	HealthcheckPort int
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.DocumentPath == "" && cfg.EditorURL == "" {
		return nil, errors.New("DocumentPath is a required configuration field and cannot be empty")
	}
	if cfg.ScriptPath != "" && cfg.DocumentPath == "" {
		return nil, errors.New("ScriptPath needs a DocumentPath to replay on")
	}

	switch cfg.ReportFormat {
	case "":
		cfg.ReportFormat = ReportText
	case ReportText, ReportJSON:
	default:
		return nil, fmt.Errorf("invalid report format %q: must be 'text' or 'json'", cfg.ReportFormat)
	}
	switch cfg.LogFormat {
	case "":
		cfg.LogFormat = "auto"
	case "auto", "text", "json":
	default:
		return nil, fmt.Errorf("invalid log format %q: must be 'auto', 'text' or 'json'", cfg.LogFormat)
	}
	switch cfg.LogLevel {
	case "":
		cfg.LogLevel = "info"
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn' or 'error'", cfg.LogLevel)
	}

	if cfg.MaxEvents < 0 {
		return nil, errors.New("MaxEvents cannot be negative")
	}
	if cfg.MaxEvents == 0 {
		cfg.MaxEvents = dispatch.DefaultMaxEvents
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("invalid health check port %d", cfg.HealthcheckPort)
	}
	if cfg.Debounce < 0 || cfg.ConnectTimeout < 0 {
		return nil, errors.New("durations cannot be negative")
	}
	return &cfg, nil
}
