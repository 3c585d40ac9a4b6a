package app

import (
	"errors"
	"fmt"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Paths       []string // hcl files or directories
	HistoryPath string   // badger directory, empty keeps history in memory

	LogFormat       string
	LogLevel        string
	ReportFormat    string
	HealthcheckPort int
	WorkerCount     int

	ProgressURL string // socket.io dashboard, empty disables streaming
	ChromePath  string // overrides browser detection
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.WorkerCount == 0 {
		cfg.WorkerCount = 1
	}
	if cfg.WorkerCount < 0 {
		return nil, errors.New("WorkerCount must be a positive number")
	}

	switch cfg.ReportFormat {
	case "":
		cfg.ReportFormat = "text"
	case "text", "json":
	default:
		return nil, fmt.Errorf("invalid ReportFormat %q: must be 'text' or 'json'", cfg.ReportFormat)
	}

	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("invalid HealthcheckPort %d", cfg.HealthcheckPort)
	}

	return &cfg, nil
}
