// Package main provides the go-script-editor CLI entry point.
//
// go-script-editor is a beginner-oriented script editor for the terminal.
// It runs the edited program as a child interpreter process, streams its
// output into a terminal panel and relays typed input lines to it.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/randomizedcoder/go-script-editor/internal/config"
	"github.com/randomizedcoder/go-script-editor/internal/editor"
	"github.com/randomizedcoder/go-script-editor/internal/logging"
	"github.com/randomizedcoder/go-script-editor/internal/orchestrator"
	"github.com/randomizedcoder/go-script-editor/internal/tui"
)

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0" ./cmd/go-script-editor
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// Handle version flag early (before flag parsing)
	if len(os.Args) > 1 {
		arg := os.Args[1]
		if arg == "-version" || arg == "--version" || arg == "version" {
			fmt.Printf("go-script-editor %s\n", version)
			return 0
		}
	}

	// Parse command-line flags
	cfg, err := config.ParseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		return 1
	}
	if cfg.PrintVersion {
		fmt.Printf("go-script-editor %s\n", version)
		return 0
	}

	// Validate configuration
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return 1
	}

	// Initialize logger
	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
		return 1
	}
	defer closeLog()
	logging.SetDefault(logger)

	logger.Info("starting",
		"version", version,
		"mode", cfg.Mode(),
		"interpreter", cfg.Interpreter,
		"file", cfg.File,
		"metrics_addr", cfg.MetricsAddr,
	)

	doc, code, err := openSource(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	orch := orchestrator.New(cfg, logger, version)

	if cfg.Mode() == "check" {
		return runCheck(orch, code)
	}

	// Run preflight checks
	if err := orch.Preflight(os.Stderr); err != nil {
		logger.Error("preflight_failed", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if err := orch.Start(); err != nil {
		logger.Error("metrics_failed", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	var status int
	if cfg.Mode() == "headless" {
		status, err = orch.RunHeadless(context.Background(), code, os.Stdin, os.Stdout)
		if err != nil {
			logger.Error("headless_failed", "error", err)
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	} else {
		status = runTUI(cfg, orch, doc, code, logger)
	}

	if err := orch.Shutdown(context.Background()); err != nil {
		logger.Warn("shutdown_error", "error", err)
	}
	if err := orch.DumpMetrics(os.Stdout); err != nil {
		logger.Warn("metrics_dump_failed", "error", err)
	}

	// Keep stdout for the program's own output in headless mode
	if cfg.Mode() == "headless" {
		if cfg.Verbose {
			orch.PrintExitSummary(os.Stderr)
		}
	} else {
		orch.PrintExitSummary(os.Stdout)
	}

	return status
}

// newLogger builds the logger for cfg's mode. The TUI owns the screen, so
// its logs go to -log-file or nowhere.
func newLogger(cfg *config.Config) (*slog.Logger, func(), error) {
	nop := func() {}

	level := "info"
	if cfg.Verbose {
		level = "debug"
	}

	if cfg.LogFile != "" {
		logger, f, err := logging.OpenLogFile(cfg.LogFile, cfg.LogFormat, level, cfg.Verbose)
		if err != nil {
			return nil, nop, err
		}
		return logger, func() { f.Close() }, nil
	}

	if cfg.Mode() == "tui" {
		return logging.Discard(), nop, nil
	}
	return logging.NewLogger(cfg.LogFormat, level, cfg.Verbose), nop, nil
}

// openSource loads the positional file argument. In the TUI a missing file
// is a new, empty document that will be created on save.
func openSource(cfg *config.Config) (*editor.Document, string, error) {
	if cfg.File == "" {
		return editor.NewDocument(), "", nil
	}

	doc, code, err := editor.Open(cfg.File)
	if errors.Is(err, fs.ErrNotExist) && cfg.Mode() == "tui" {
		return &editor.Document{Path: cfg.File}, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	return doc, code, nil
}

// runCheck only runs the syntax check: exit 0 when the file compiles.
func runCheck(orch *orchestrator.Orchestrator, code string) int {
	ok, err := orch.CheckSyntax(context.Background(), code, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	if !ok {
		return 1
	}
	return 0
}

// runTUI runs the editor until the user quits.
func runTUI(cfg *config.Config, orch *orchestrator.Orchestrator, doc *editor.Document, code string, logger *slog.Logger) int {
	templates, err := loadTemplates(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading templates: %v\n", err)
		return 1
	}

	model := tui.New(tui.Config{
		Executor:    orch.Controller(),
		Checker:     orch.Interpreter(),
		Recorder:    orch.Metrics(),
		Templates:   templates,
		History:     orch.History(),
		Document:    doc,
		Code:        code,
		Interpreter: orch.Interpreter().Name(),
		Logger:      logger,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.Error("tui_failed", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// loadTemplates merges -templates over the built-in templates.
func loadTemplates(cfg *config.Config) (*editor.TemplateSet, error) {
	var extra []editor.Template
	if cfg.TemplatesPath != "" {
		var err error
		extra, err = editor.LoadTemplates(cfg.TemplatesPath)
		if err != nil {
			return nil, err
		}
	}
	return editor.NewTemplateSet(editor.BuiltinTemplates(), extra), nil
}
