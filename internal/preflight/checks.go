// Package preflight provides startup validation checks.
package preflight

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Note: syscall.RLIMIT_NPROC is not exported in Go's syscall package,
// so we read process limits from /proc/self/limits instead.

const (
	// requiredProcesses is the headroom needed for the editor, one child and
	// whatever the child spawns itself.
	requiredProcesses = 16

	// requiredFDs covers the child's three pipes plus logging and metrics.
	requiredFDs = 64

	versionTimeout = 5 * time.Second
)

// Check represents the result of a single preflight check.
type Check struct {
	Name     string // Name of the check
	Required int    // Required value (if applicable)
	Actual   int    // Actual value found
	Passed   bool   // Whether the check passed
	Warning  bool   // True if it's a warning (non-fatal)
	Message  string // Additional context
}

// Result holds the results of all preflight checks.
type Result struct {
	Checks []Check
	Passed bool
}

// Options selects what RunAll checks.
type Options struct {
	Interpreter string
	TempDir     string // "" = OS temp dir
}

// String returns a human-readable summary of the check.
func (c Check) String() string {
	status := "✓"
	if !c.Passed {
		status = "✗"
	} else if c.Warning {
		status = "⚠"
	}

	if c.Required > 0 {
		return fmt.Sprintf("  %s %s: %d available (need %d)", status, c.Name, c.Actual, c.Required)
	}
	return fmt.Sprintf("  %s %s: %s", status, c.Name, c.Message)
}

// RunAll executes all preflight checks.
func RunAll(opts Options) *Result {
	result := &Result{
		Checks: make([]Check, 0, 4),
		Passed: true,
	}

	for _, check := range []Check{
		checkInterpreter(opts.Interpreter),
		checkTempDir(opts.TempDir),
		checkProcessLimit(),
		checkFileDescriptors(),
	} {
		result.Checks = append(result.Checks, check)
		if !check.Passed {
			result.Passed = false
		}
	}

	return result
}

// checkInterpreter verifies the interpreter resolves and reports a version.
func checkInterpreter(binary string) Check {
	path, err := exec.LookPath(binary)
	if err != nil {
		return Check{
			Name:    "interpreter",
			Passed:  false,
			Message: fmt.Sprintf("%s not found: %v", binary, err),
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), versionTimeout)
	defer cancel()

	// Python 2 printed its version on stderr.
	output, err := exec.CommandContext(ctx, path, "--version").CombinedOutput()
	if err != nil {
		return Check{
			Name:    "interpreter",
			Passed:  true,
			Warning: true,
			Message: fmt.Sprintf("found at %s (version unknown: %v)", path, err),
		}
	}

	return Check{
		Name:    "interpreter",
		Passed:  true,
		Message: fmt.Sprintf("found at %s (%s)", path, parseVersion(string(output))),
	}
}

// parseVersion extracts the first line of --version output,
// e.g. "Python 3.11.7".
func parseVersion(output string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(output), "\n")
	line = strings.TrimSpace(line)
	if line == "" {
		return "version unknown"
	}
	return line
}

// checkTempDir verifies temporary source files can be created.
func checkTempDir(dir string) Check {
	shown := dir
	if shown == "" {
		shown = os.TempDir()
	}

	f, err := os.CreateTemp(dir, "preflight-*")
	if err != nil {
		return Check{
			Name:    "temp_dir",
			Passed:  false,
			Message: fmt.Sprintf("%s not writable: %v", shown, err),
		}
	}
	name := f.Name()
	f.Close()
	os.Remove(name)

	return Check{
		Name:    "temp_dir",
		Passed:  true,
		Message: fmt.Sprintf("%s writable", shown),
	}
}

// checkProcessLimit verifies sufficient process slots are available.
func checkProcessLimit() Check {
	// Read soft limit from /proc/self/limits
	data, err := os.ReadFile("/proc/self/limits")
	if err != nil {
		// Non-Linux or restricted access, assume OK
		return Check{
			Name:    "process_limit",
			Passed:  true,
			Warning: true,
			Message: "unable to check (non-Linux or restricted)",
		}
	}

	actual := parseMaxProcesses(string(data))
	if actual == 0 {
		return Check{
			Name:    "process_limit",
			Passed:  true,
			Warning: true,
			Message: "unable to determine (assuming OK)",
		}
	}

	return Check{
		Name:     "process_limit",
		Required: requiredProcesses,
		Actual:   actual,
		Passed:   actual >= requiredProcesses,
		Message:  fmt.Sprintf("ulimit -u %d (need %d)", actual, requiredProcesses),
	}
}

// parseMaxProcesses reads the soft "Max processes" limit from the contents
// of /proc/self/limits. Returns 0 if absent.
func parseMaxProcesses(limits string) int {
	actual := 0
	for _, line := range strings.Split(limits, "\n") {
		if strings.HasPrefix(line, "Max processes") {
			fields := strings.Fields(line)
			if len(fields) >= 4 {
				if fields[2] == "unlimited" {
					actual = 1000000
				} else {
					fmt.Sscanf(fields[2], "%d", &actual)
				}
			}
			break
		}
	}
	return actual
}

// fdCheck builds the file descriptor check from the soft limit.
func fdCheck(actual int) Check {
	return Check{
		Name:     "file_descriptors",
		Required: requiredFDs,
		Actual:   actual,
		Passed:   actual >= requiredFDs,
		Message:  fmt.Sprintf("ulimit -n %d (need %d)", actual, requiredFDs),
	}
}

// PrintResults prints the preflight check results to w.
func PrintResults(w io.Writer, result *Result) {
	fmt.Fprintln(w, "Preflight checks:")
	for _, check := range result.Checks {
		fmt.Fprintln(w, check.String())
		if !check.Passed {
			fmt.Fprintf(w, "    Fix: %s\n", suggestFix(check.Name))
		}
	}
	fmt.Fprintln(w)
}

// suggestFix returns a suggestion for fixing a failed check.
func suggestFix(name string) string {
	switch name {
	case "interpreter":
		return "install python3 (apt install python3 / brew install python) or pass -interpreter"
	case "temp_dir":
		return "pass -temp-dir with a writable directory"
	case "file_descriptors":
		return "ulimit -n 1024 (or edit /etc/security/limits.conf)"
	case "process_limit":
		return "ulimit -u 256 (or edit /etc/security/limits.conf)"
	default:
		return "see documentation"
	}
}
