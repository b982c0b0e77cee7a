package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// syntaxChecker compiles stdin without executing it and prints a JSON verdict.
const syntaxChecker = `import json, sys
src = sys.stdin.buffer.read()
try:
    compile(src, "<editor>", "exec")
    print(json.dumps({"ok": True}))
except SyntaxError as e:
    print(json.dumps({"ok": False, "line": e.lineno or 0, "column": e.offset or 0, "message": e.msg}))
except ValueError as e:
    print(json.dumps({"ok": False, "line": 0, "column": 0, "message": str(e)}))
`

// SyntaxResult represents the checker's verdict.
type SyntaxResult struct {
	OK      bool   `json:"ok"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Message string `json:"message"`
}

// String returns the text shown to the user.
func (s SyntaxResult) String() string {
	if s.OK {
		return "Syntax is correct!"
	}
	if s.Line > 0 {
		return fmt.Sprintf("Line %d: %s", s.Line, s.Message)
	}
	return s.Message
}

// CheckSyntax compiles code with the interpreter without running it.
// A syntax error is reported in the result, not as an error; the error
// return is for when the check itself could not run.
func (r *Interpreter) CheckSyntax(ctx context.Context, code string) (SyntaxResult, error) {
	if r.config.SyntaxTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.SyntaxTimeout)
		defer cancel()
	}

	path, err := exec.LookPath(r.config.BinaryPath)
	if err != nil {
		return SyntaxResult{}, &SpawnError{Path: r.config.BinaryPath, Err: err}
	}

	cmd := exec.CommandContext(ctx, path, "-c", syntaxChecker)
	cmd.Stdin = strings.NewReader(code)
	cmd.Env = append(os.Environ(), "PYTHONIOENCODING=utf-8")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	// Execute
	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return SyntaxResult{}, fmt.Errorf("syntax check timed out: %w", ctx.Err())
		}
		return SyntaxResult{}, fmt.Errorf("syntax check failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	// Parse JSON output
	var result SyntaxResult
	if err := json.Unmarshal(bytes.TrimSpace(output), &result); err != nil {
		return SyntaxResult{}, fmt.Errorf("failed to parse syntax check output: %w", err)
	}

	r.logger.Debug("syntax_checked",
		"ok", result.OK,
		"line", result.Line,
	)

	return result, nil
}
