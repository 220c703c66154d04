// Package config defines the analyzer configuration file format.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/diag"
)

// Config represents the complete analyzer configuration.
type Config struct {
	BaseDir    string            `yaml:"-"` // Directory containing config file, for resolving relative paths
	Workspace  WorkspaceConfig   `yaml:"workspace"`
	Output     OutputConfig      `yaml:"output"`
	Watch      WatchConfig       `yaml:"watch"`
	Logging    LoggingConfig     `yaml:"logging"`
	Severities map[string]string `yaml:"severities"` // diagnostic code -> "error", "warning", or "information"
}

// WorkspaceConfig locates the scripts under analysis.
type WorkspaceConfig struct {
	Root      string `yaml:"root"`       // Volume root directory for resolving run targets (default: ".")
	CacheSize int    `yaml:"cache_size"` // Loaded-text LRU entries (default: 64)
}

// OutputConfig controls diagnostic reporting.
type OutputConfig struct {
	Format string `yaml:"format"` // "text" or "json" (default: "text")
}

// WatchConfig controls watch mode.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"` // Delay before re-validating after a change (default: 200ms)
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or text
	Output string `yaml:"output"` // stderr, stdout, or file path
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Workspace: WorkspaceConfig{
			Root:      ".",
			CacheSize: 64,
		},
		Output: OutputConfig{
			Format: "text",
		},
		Watch: WatchConfig{
			Debounce: 200 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// Severity maps an override name from the config file onto a severity level.
func Severity(name string) (diag.Severity, bool) {
	switch name {
	case "error":
		return diag.SeverityError, true
	case "warning":
		return diag.SeverityWarning, true
	case "information":
		return diag.SeverityInformation, true
	}
	return 0, false
}

// ApplySeverities rewrites diagnostic severities according to the configured
// per-code overrides. Diagnostics whose code has no override pass unchanged.
func (c *Config) ApplySeverities(diags []diag.Diagnostic) []diag.Diagnostic {
	if len(c.Severities) == 0 {
		return diags
	}
	for i := range diags {
		if name, ok := c.Severities[diags[i].Code]; ok {
			if sev, valid := Severity(name); valid {
				diags[i].Severity = sev
			}
		}
	}
	return diags
}

// NewLogger builds a logger from the logging settings. The returned closer is
// non-nil when the output is a file.
func NewLogger(cfg LoggingConfig) (*slog.Logger, io.Closer, error) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, nil, fmt.Errorf("invalid log level: %s", cfg.Level)
	}

	var w io.Writer
	var closer io.Closer
	switch cfg.Output {
	case "stderr", "":
		w = os.Stderr
	case "stdout":
		w = os.Stdout
	default:
		f, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log output: %w", err)
		}
		w = f
		closer = f
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler), closer, nil
}
