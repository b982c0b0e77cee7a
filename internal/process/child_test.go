package process

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// =============================================================================
// Helpers
// =============================================================================

// requireShell skips the test if sh is not available.
func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not found in PATH")
	}
}

// newShellRunner returns an Interpreter that runs scripts with sh.
func newShellRunner(grace time.Duration) *Interpreter {
	return NewInterpreter(&InterpreterConfig{
		BinaryPath:     "sh",
		TerminateGrace: grace,
	})
}

// writeScript writes content to a temp file and returns its path.
func writeScript(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.sh")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

// readAll collects chunks until EOF or timeout.
func readAll(t *testing.T, h Handle, timeout time.Duration) string {
	t.Helper()
	var b strings.Builder
	deadline := time.After(timeout)
	for {
		select {
		case chunk, ok := <-h.Lines():
			if !ok {
				return b.String()
			}
			b.WriteString(chunk)
		case <-deadline:
			t.Fatalf("timed out reading output; got so far: %q", b.String())
		}
	}
}

// waitExit waits for the child to exit and returns its code.
func waitExit(t *testing.T, h Handle, timeout time.Duration) int {
	t.Helper()
	select {
	case <-h.Done():
	case <-time.After(timeout):
		t.Fatal("child did not exit in time")
	}
	code, exited := h.Poll()
	if !exited {
		t.Fatal("Poll() reports running after Done closed")
	}
	return code
}

// =============================================================================
// Tests: Start / ReadLine / Poll
// =============================================================================

func TestInterpreter_Start_ReadsLinesInOrder(t *testing.T) {
	requireShell(t)

	path := writeScript(t, "echo one\necho two\necho three\n")
	h, err := newShellRunner(time.Second).Start(context.Background(), path)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer h.Close()

	var lines []string
	for {
		line, err := h.ReadLine()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("ReadLine() error = %v", err)
		}
		lines = append(lines, line)
	}

	want := []string{"one\n", "two\n", "three\n"}
	if strings.Join(lines, "") != strings.Join(want, "") {
		t.Errorf("output = %q, want %q", lines, want)
	}

	if code := waitExit(t, h, 5*time.Second); code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
}

func TestInterpreter_Start_MergesStderr(t *testing.T) {
	requireShell(t)

	path := writeScript(t, "echo out\necho err 1>&2\necho out2\n")
	h, err := newShellRunner(time.Second).Start(context.Background(), path)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer h.Close()

	got := readAll(t, h, 5*time.Second)
	if got != "out\nerr\nout2\n" {
		t.Errorf("combined output = %q, want stdout and stderr interleaved in order", got)
	}
}

func TestInterpreter_Start_NonZeroExit(t *testing.T) {
	requireShell(t)

	path := writeScript(t, "echo failing\nexit 3\n")
	h, err := newShellRunner(time.Second).Start(context.Background(), path)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer h.Close()

	readAll(t, h, 5*time.Second)
	if code := waitExit(t, h, 5*time.Second); code != 3 {
		t.Errorf("exit code = %d, want 3", code)
	}
}

func TestInterpreter_Start_MissingBinary(t *testing.T) {
	runner := NewInterpreter(&InterpreterConfig{BinaryPath: "definitely-not-an-interpreter-xyz"})

	h, err := runner.Start(context.Background(), "/nonexistent/script.py")
	if err == nil {
		h.Close()
		t.Fatal("Start() with missing binary should fail")
	}

	var spawnErr *SpawnError
	if !errors.As(err, &spawnErr) {
		t.Fatalf("error = %T %v, want *SpawnError", err, err)
	}
	if spawnErr.Path != "definitely-not-an-interpreter-xyz" {
		t.Errorf("SpawnError.Path = %q", spawnErr.Path)
	}
	if !errors.Is(err, exec.ErrNotFound) {
		t.Errorf("SpawnError should wrap exec.ErrNotFound, got %v", err)
	}
}

func TestInterpreter_Start_EmptyBinary(t *testing.T) {
	runner := NewInterpreter(&InterpreterConfig{})

	_, err := runner.Start(context.Background(), "x.py")
	var spawnErr *SpawnError
	if !errors.As(err, &spawnErr) {
		t.Fatalf("error = %v, want *SpawnError", err)
	}
}

func TestChild_Poll_WhileRunning(t *testing.T) {
	requireShell(t)

	path := writeScript(t, "sleep 5\n")
	h, err := newShellRunner(0).Start(context.Background(), path)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer h.Close()

	if _, exited := h.Poll(); exited {
		t.Error("Poll() reports exited for a sleeping child")
	}
	if h.Pid() <= 0 {
		t.Errorf("Pid() = %d, want positive", h.Pid())
	}

	h.Terminate()
	waitExit(t, h, 5*time.Second)
}

// =============================================================================
// Tests: WriteLine
// =============================================================================

func TestChild_WriteLine_DeliversInput(t *testing.T) {
	requireShell(t)

	path := writeScript(t, "read name\necho \"hello $name\"\n")
	h, err := newShellRunner(time.Second).Start(context.Background(), path)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer h.Close()

	if err := h.WriteLine("ada"); err != nil {
		t.Fatalf("WriteLine() error = %v", err)
	}

	got := readAll(t, h, 5*time.Second)
	if got != "hello ada\n" {
		t.Errorf("output = %q, want %q", got, "hello ada\n")
	}
}

func TestChild_WriteLine_AfterExitIsSilent(t *testing.T) {
	requireShell(t)

	path := writeScript(t, "exit 0\n")
	h, err := newShellRunner(time.Second).Start(context.Background(), path)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer h.Close()

	readAll(t, h, 5*time.Second)
	waitExit(t, h, 5*time.Second)

	if err := h.WriteLine("too late"); err != nil {
		t.Errorf("WriteLine() after exit = %v, want nil", err)
	}
}

func TestChild_PromptWithoutNewline(t *testing.T) {
	requireShell(t)

	path := writeScript(t, "printf 'Name: '\nread name\necho \"hi $name\"\n")
	h, err := newShellRunner(time.Second).Start(context.Background(), path)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer h.Close()

	// The prompt must arrive before any input is sent.
	select {
	case chunk := <-h.Lines():
		if chunk != "Name: " {
			t.Fatalf("first chunk = %q, want %q", chunk, "Name: ")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("prompt was not delivered while the child waited for input")
	}

	h.WriteLine("bob")
	if got := readAll(t, h, 5*time.Second); got != "hi bob\n" {
		t.Errorf("rest of output = %q, want %q", got, "hi bob\n")
	}
}

func TestChild_LinesOfOneReadShareAChunk(t *testing.T) {
	requireShell(t)

	path := writeScript(t, "printf 'a\\nb\\nc\\nName: '\nread name\n")
	h, err := newShellRunner(time.Second).Start(context.Background(), path)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer h.Close()

	next := func() string {
		t.Helper()
		select {
		case chunk := <-h.Lines():
			return chunk
		case <-time.After(5 * time.Second):
			t.Fatal("no chunk delivered")
			return ""
		}
	}

	if got := next(); got != "a\nb\nc\n" {
		t.Errorf("first chunk = %q, want the three complete lines together", got)
	}
	if got := next(); got != "Name: " {
		t.Errorf("second chunk = %q, want the trailing prompt", got)
	}

	h.WriteLine("x")
	readAll(t, h, 5*time.Second)
}

// =============================================================================
// Tests: Terminate / Close
// =============================================================================

func TestChild_Terminate(t *testing.T) {
	requireShell(t)

	path := writeScript(t, "echo started\nsleep 30\n")
	h, err := newShellRunner(2 * time.Second).Start(context.Background(), path)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer h.Close()

	if line, _ := h.ReadLine(); line != "started\n" {
		t.Fatalf("first line = %q", line)
	}

	start := time.Now()
	if err := h.Terminate(); err != nil {
		t.Fatalf("Terminate() error = %v", err)
	}
	// Second call is a no-op.
	if err := h.Terminate(); err != nil {
		t.Errorf("second Terminate() error = %v", err)
	}

	code := waitExit(t, h, 5*time.Second)
	if code == 0 {
		t.Error("terminated child reported exit code 0")
	}
	if elapsed := time.Since(start); elapsed > 4*time.Second {
		t.Errorf("termination took %v", elapsed)
	}

	// The group (including sleep) is gone, so the stream reaches EOF.
	readAll(t, h, 5*time.Second)
}

func TestChild_TerminateZeroGraceKills(t *testing.T) {
	requireShell(t)

	path := writeScript(t, "trap '' TERM\nsleep 30\n")
	h, err := newShellRunner(0).Start(context.Background(), path)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer h.Close()

	h.Terminate()
	if code := waitExit(t, h, 5*time.Second); code != 128+9 {
		t.Errorf("exit code = %d, want %d (SIGKILL)", code, 128+9)
	}
}

func TestChild_TerminateAfterExit(t *testing.T) {
	requireShell(t)

	path := writeScript(t, "exit 0\n")
	h, err := newShellRunner(time.Second).Start(context.Background(), path)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer h.Close()

	waitExit(t, h, 5*time.Second)
	if err := h.Terminate(); err != nil {
		t.Errorf("Terminate() after exit = %v, want nil", err)
	}
}

func TestChild_CloseIsIdempotent(t *testing.T) {
	requireShell(t)

	path := writeScript(t, "echo hi\n")
	h, err := newShellRunner(time.Second).Start(context.Background(), path)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	readAll(t, h, 5*time.Second)
	waitExit(t, h, 5*time.Second)

	if err := h.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := h.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if h.Err() != nil {
		t.Errorf("Err() = %v, want nil after clean EOF", h.Err())
	}
}

func TestInterpreter_ContextCancelKillsChild(t *testing.T) {
	requireShell(t)

	ctx, cancel := context.WithCancel(context.Background())
	path := writeScript(t, "sleep 30\n")
	h, err := newShellRunner(time.Second).Start(ctx, path)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer h.Close()

	cancel()
	if code := waitExit(t, h, 5*time.Second); code == 0 {
		t.Error("cancelled child reported exit code 0")
	}
}
