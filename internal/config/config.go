// Package config provides configuration management for go-script-editor.
package config

import "time"

// Config holds all configuration options for the editor.
type Config struct {
	// Interpreter
	Interpreter     string        `json:"interpreter"`
	InterpreterArgs []string      `json:"interpreter_args"`
	Suffix          string        `json:"suffix"`
	TempDir         string        `json:"temp_dir"` // "" = OS temp dir
	Env             []string      `json:"env"`      // KEY=VALUE, appended to the editor's environment
	TerminateGrace  time.Duration `json:"terminate_grace"`
	SyntaxTimeout   time.Duration `json:"syntax_timeout"`
	DrainTimeout    time.Duration `json:"drain_timeout"`

	// Modes
	File     string `json:"file"` // positional argument
	Headless bool   `json:"headless"`
	Check    bool   `json:"check"`

	// Editor
	TemplatesPath string `json:"templates_path"`
	HistorySize   int    `json:"history_size"`

	// Observability
	MetricsAddr string `json:"metrics_addr"` // "" = disabled
	MetricsDump string `json:"metrics_dump"` // path, "-" = stdout, "" = off
	Verbose     bool   `json:"verbose"`
	LogFormat   string `json:"log_format"` // json, text
	LogFile     string `json:"log_file"`

	// Diagnostics
	SkipPreflight bool `json:"skip_preflight"`
	PrintVersion  bool `json:"print_version"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		// Interpreter
		Interpreter:    "python3",
		Suffix:         ".py",
		Env:            []string{"PYTHONUNBUFFERED=1"},
		TerminateGrace: 2 * time.Second,
		SyntaxTimeout:  10 * time.Second,
		DrainTimeout:   5 * time.Second,

		// Editor
		HistorySize: 50,

		// Observability
		MetricsAddr: "", // Disabled
		Verbose:     false,
		LogFormat:   "json",
	}
}

// Mode returns which top-level mode the config selects:
// "check", "headless" or "tui".
func (c *Config) Mode() string {
	switch {
	case c.Check:
		return "check"
	case c.Headless:
		return "headless"
	default:
		return "tui"
	}
}
