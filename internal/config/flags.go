package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

// stringList is a custom flag type for repeatable flags.
type stringList []string

func (l *stringList) String() string {
	return strings.Join(*l, ", ")
}

func (l *stringList) Set(value string) error {
	*l = append(*l, value)
	return nil
}

// ParseFlags parses the process's command-line flags and returns a Config.
func ParseFlags() (*Config, error) {
	return ParseArgs(os.Args[0], os.Args[1:], os.Stderr)
}

// ParseArgs parses args into a Config. Usage and parse errors are written
// to output. Returns flag.ErrHelp for -h.
func ParseArgs(name string, args []string, output io.Writer) (*Config, error) {
	cfg := DefaultConfig()
	var interpArgs, env stringList

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)

	// Custom usage message
	fs.Usage = func() {
		fmt.Fprintf(output, `go-script-editor - a beginner code editor that runs your script as a child process

Usage:
  go-script-editor [flags] [file]

Interpreter:
`)
		// Print flags by category
		printFlagCategory(fs, output, []string{"interpreter", "interpreter-arg", "env", "suffix", "temp-dir"})

		fmt.Fprintf(output, "\nExecution:\n")
		printFlagCategory(fs, output, []string{"terminate-grace", "drain-timeout", "syntax-timeout"})

		fmt.Fprintf(output, "\nModes:\n")
		printFlagCategory(fs, output, []string{"headless", "check", "skip-preflight", "version"})

		fmt.Fprintf(output, "\nEditor:\n")
		printFlagCategory(fs, output, []string{"templates", "history"})

		fmt.Fprintf(output, "\nObservability:\n")
		printFlagCategory(fs, output, []string{"metrics", "metrics-dump", "v", "log-format", "log-file"})

		fmt.Fprintf(output, `
Keys (TUI):
  F5 run  F6 stop  F7 check syntax  F8 format  F3 next template
  Ctrl+S save  Ctrl+L clear terminal  Ctrl+_ toggle comment
  Tab switch editor/input  F1 help  F2 history  Ctrl+Q quit

Examples:
  # Edit and run a file in the terminal UI
  go-script-editor hello.py

  # Run once without the UI, forwarding stdin to the program
  go-script-editor -headless ask_name.py

  # Syntax check only (exit status 1 on error)
  go-script-editor -check hello.py

`)
	}

	// Interpreter
	fs.StringVar(&cfg.Interpreter, "interpreter", cfg.Interpreter, "Interpreter binary (looked up in PATH)")
	fs.Var(&interpArgs, "interpreter-arg", "Extra interpreter argument before the source file (can repeat)")
	fs.Var(&env, "env", "Extra environment KEY=VALUE for the program (can repeat; PYTHONUNBUFFERED=1 is always set first)")
	fs.StringVar(&cfg.Suffix, "suffix", cfg.Suffix, "Suffix for the temporary source file")
	fs.StringVar(&cfg.TempDir, "temp-dir", cfg.TempDir, "Directory for temporary source files (default OS temp dir)")

	// Execution
	fs.DurationVar(&cfg.TerminateGrace, "terminate-grace", cfg.TerminateGrace, "Time a stopped program gets before it is killed")
	fs.DurationVar(&cfg.DrainTimeout, "drain-timeout", cfg.DrainTimeout, "Wait for trailing output after the program exits")
	fs.DurationVar(&cfg.SyntaxTimeout, "syntax-timeout", cfg.SyntaxTimeout, "Limit for a single syntax check")

	// Modes
	fs.BoolVar(&cfg.Headless, "headless", cfg.Headless, "Run the file once without the UI and exit with its code")
	fs.BoolVar(&cfg.Check, "check", cfg.Check, "Syntax check the file and exit")
	fs.BoolVar(&cfg.SkipPreflight, "skip-preflight", cfg.SkipPreflight, "Skip preflight checks")
	fs.BoolVar(&cfg.PrintVersion, "version", cfg.PrintVersion, "Print version and exit")

	// Editor
	fs.StringVar(&cfg.TemplatesPath, "templates", cfg.TemplatesPath, "YAML template library to add to the built-in templates")
	fs.IntVar(&cfg.HistorySize, "history", cfg.HistorySize, "Number of runs kept in the history view")

	// Observability
	fs.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "Serve Prometheus metrics on this address (e.g. 127.0.0.1:17092)")
	fs.StringVar(&cfg.MetricsDump, "metrics-dump", cfg.MetricsDump, `Write a metrics snapshot on exit to this path ("-" = stdout)`)
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Verbose logging (also logs every output line)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, `Log format: "json" or "text"`)
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Write logs to this file (the TUI discards them otherwise)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.InterpreterArgs = interpArgs
	cfg.Env = append(cfg.Env, env...)

	// Positional argument: source file
	if rest := fs.Args(); len(rest) >= 1 {
		cfg.File = rest[0]
	}

	return cfg, nil
}

// printFlagCategory prints flags matching the given names (helper for usage).
func printFlagCategory(fs *flag.FlagSet, w io.Writer, names []string) {
	fs.VisitAll(func(f *flag.Flag) {
		for _, name := range names {
			if f.Name == name {
				fmt.Fprintf(w, "  -%s %s\n    \t%s", f.Name, flagType(f), f.Usage)
				if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" && f.DefValue != "0s" && f.DefValue != "[]" {
					fmt.Fprintf(w, " (default %s)", f.DefValue)
				}
				fmt.Fprintln(w)
				return
			}
		}
	})
}

// flagType returns a type hint for the flag value.
func flagType(f *flag.Flag) string {
	if _, ok := f.Value.(*stringList); ok {
		return "value"
	}

	// Infer type from default value format
	switch f.DefValue {
	case "true", "false":
		return ""
	}

	// Check if it looks like a duration
	if strings.HasSuffix(f.DefValue, "s") || strings.HasSuffix(f.DefValue, "m") || strings.HasSuffix(f.DefValue, "h") {
		if _, err := fmt.Sscanf(f.DefValue, "%d", new(int)); err == nil {
			return "duration"
		}
	}

	// Check if numeric
	if _, err := fmt.Sscanf(f.DefValue, "%d", new(int)); err == nil {
		return "int"
	}

	return "string"
}
