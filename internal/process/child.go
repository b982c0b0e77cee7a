package process

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

const (
	// readBufferSize is the size of a single read from the output pipe.
	readBufferSize = 32 * 1024

	// chunkBufferSize is how many chunks may wait for the worker before
	// the reader (and eventually the child) blocks.
	chunkBufferSize = 256
)

// Child is the Handle for one spawned interpreter.
type Child struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	out    *os.File
	grace  time.Duration
	logger *slog.Logger

	chunks   chan string
	done     chan struct{}
	released chan struct{}

	mu       sync.Mutex
	exitCode int
	readErr  error

	stdinMu     sync.Mutex
	closeOnce   sync.Once
	terminating atomic.Bool
}

func newChild(cmd *exec.Cmd, stdin io.WriteCloser, out *os.File, grace time.Duration, logger *slog.Logger) *Child {
	c := &Child{
		cmd:      cmd,
		stdin:    stdin,
		out:      out,
		grace:    grace,
		logger:   logger,
		chunks:   make(chan string, chunkBufferSize),
		done:     make(chan struct{}),
		released: make(chan struct{}),
	}
	go c.pump()
	go c.wait()
	return c
}

// pump reads the combined output pipe until EOF and splits it into chunks.
// MUST close c.chunks on exit.
func (c *Child) pump() {
	defer close(c.chunks)

	buf := make([]byte, readBufferSize)
	for {
		n, err := c.out.Read(buf)
		if n > 0 {
			if !c.emit(buf[:n]) {
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				c.mu.Lock()
				c.readErr = &StreamError{Op: "read", Err: err}
				c.mu.Unlock()
			}
			return
		}
	}
}

// emit sends the complete lines of one read as a single chunk, then
// whatever partial text is left. The remainder is usually a prompt the
// child is waiting on.
// Returns false once the handle has been released.
func (c *Child) emit(data []byte) bool {
	if i := bytes.LastIndexByte(data, '\n'); i >= 0 && i < len(data)-1 {
		if !c.send(string(data[:i+1])) {
			return false
		}
		data = data[i+1:]
	}
	return c.send(string(data))
}

// send hands one chunk to the consumer unless the handle is released.
func (c *Child) send(chunk string) bool {
	select {
	case c.chunks <- chunk:
		return true
	case <-c.released:
		return false
	}
}

// wait reaps the child and records its exit status.
func (c *Child) wait() {
	err := c.cmd.Wait()
	code := ExitCode(err)

	c.mu.Lock()
	c.exitCode = code
	c.mu.Unlock()

	close(c.done)

	c.logger.Debug("child_exited",
		"pid", c.Pid(),
		"exit_code", code,
		"terminated", c.terminating.Load(),
	)
}

// ReadLine implements Handle.
func (c *Child) ReadLine() (string, error) {
	chunk, ok := <-c.chunks
	if !ok {
		return "", io.EOF
	}
	return chunk, nil
}

// Lines implements Handle.
func (c *Child) Lines() <-chan string {
	return c.chunks
}

// WriteLine implements Handle.
func (c *Child) WriteLine(text string) error {
	if c.exited() {
		return nil
	}

	c.stdinMu.Lock()
	defer c.stdinMu.Unlock()

	// Pipe writes are unbuffered, so there is nothing to flush.
	_, err := io.WriteString(c.stdin, text+"\n")
	if err == nil {
		return nil
	}

	// The child closed stdin or exited between the check and the write.
	if c.exited() || errors.Is(err, syscall.EPIPE) || errors.Is(err, os.ErrClosed) {
		c.logger.Debug("input_dropped", "pid", c.Pid(), "reason", err.Error())
		return nil
	}
	return &StreamError{Op: "write", Err: err}
}

// Poll implements Handle.
func (c *Child) Poll() (int, bool) {
	select {
	case <-c.done:
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.exitCode, true
	default:
		return 0, false
	}
}

// Done implements Handle.
func (c *Child) Done() <-chan struct{} {
	return c.done
}

// Terminate implements Handle. It sends SIGTERM to the process group and
// schedules SIGKILL after the grace period if the child is still alive.
func (c *Child) Terminate() error {
	if c.exited() {
		return nil
	}
	if c.terminating.Swap(true) {
		return nil
	}

	if c.grace <= 0 {
		return killGroup(c.cmd.Process)
	}

	err := terminateGroup(c.cmd.Process)

	time.AfterFunc(c.grace, func() {
		if c.exited() {
			return
		}
		c.logger.Warn("force_killing_process", "pid", c.Pid(), "grace", c.grace.String())
		killGroup(c.cmd.Process)
	})

	if err != nil && c.exited() {
		// Raced with a natural exit.
		return nil
	}
	return err
}

// Err implements Handle.
func (c *Child) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readErr
}

// Pid implements Handle.
func (c *Child) Pid() int {
	if c.cmd.Process == nil {
		return 0
	}
	return c.cmd.Process.Pid
}

// Close implements Handle. It unblocks the reader and closes stdin.
// A child that is still running keeps running.
func (c *Child) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.released)
		c.stdinMu.Lock()
		err = c.stdin.Close()
		c.stdinMu.Unlock()
		if cerr := c.out.Close(); err == nil && !errors.Is(cerr, os.ErrClosed) {
			err = cerr
		}
	})
	if errors.Is(err, os.ErrClosed) {
		return nil
	}
	return err
}

func (c *Child) exited() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Ensure Child implements Handle interface
var _ Handle = (*Child)(nil)
