package process

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/smazurov/ffwrap/internal/logging"
)

const (
	// DefaultDelimiter ends a chunk of ffmpeg diagnostic output.
	DefaultDelimiter = "size="

	// maxChunk flushes a chunk that never reaches the delimiter.
	maxChunk = 32 * 1024
)

// ErrTimeout is set on results whose process stopped reporting.
var ErrTimeout = errors.New("process produced no output within the timeout")

// LogParser parses a log line and returns the log level and message.
type LogParser func(line string) (level, msg string)

// ChunkFunc receives each decoded output chunk.
type ChunkFunc func(chunk string)

// Runner launches processes and streams their output.
type Runner struct {
	logger        logging.Logger
	processLogger logging.Logger // logger for process output (nil = use logger)
	logParser     LogParser      // nil = every line logged at debug
	decode        func(string) string
	delimiter     string
	timeout       time.Duration // per chunk, 0 disables
	killTimeout   time.Duration // wait after SIGKILL before giving up
}

// Option configures a Runner.
type Option func(*Runner)

// WithTimeout sets the per-chunk timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) { r.timeout = d }
}

// WithDelimiter sets the chunk delimiter.
func WithDelimiter(delim string) Option {
	return func(r *Runner) { r.delimiter = delim }
}

// WithDecoder sets a function applied to every chunk before it is
// accumulated, logged or handed to the callback.
func WithDecoder(decode func(string) string) Option {
	return func(r *Runner) { r.decode = decode }
}

// WithLogParser logs process output through logger with levels taken from
// parser.
func WithLogParser(logger logging.Logger, parser LogParser) Option {
	return func(r *Runner) {
		r.processLogger = logger
		r.logParser = parser
	}
}

// WithKillTimeout bounds the wait for a killed process to be reaped.
func WithKillTimeout(d time.Duration) Option {
	return func(r *Runner) { r.killTimeout = d }
}

// NewRunner creates a runner.
func NewRunner(logger logging.Logger, opts ...Option) *Runner {
	r := &Runner{
		logger:      logger,
		delimiter:   DefaultDelimiter,
		killTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Timeout returns the configured per-chunk timeout.
func (r *Runner) Timeout() time.Duration {
	return r.timeout
}

// Run executes command and blocks until it exits, stops reporting for longer
// than the timeout, or ctx is canceled. onChunk may be nil; it is called on
// the calling goroutine.
func (r *Runner) Run(ctx context.Context, command string, onChunk ChunkFunc) Result {
	started := time.Now()

	args, err := parseCommand(command)
	if err != nil {
		r.logger.Error("Failed to parse command", "error", err)
		return Result{Status: StatusFailed, ExitCode: -1, Err: err}
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		return Result{Status: StatusFailed, ExitCode: -1, Err: fmt.Errorf("create output pipe: %w", err)}
	}
	defer pr.Close()

	cmd := exec.Command(args[0], args[1:]...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pw.Close()
		r.logger.Error("Failed to start process", "error", err, "command", command)
		return Result{Status: StatusFailed, ExitCode: -1, Err: err, Elapsed: time.Since(started)}
	}
	// The child holds its own copy; EOF arrives once it and its children exit.
	pw.Close()

	pid := cmd.Process.Pid
	r.logger.Debug("Process started", "pid", pid, "command", command)

	stop := make(chan struct{})
	defer close(stop)
	chunks, readErr := r.readChunks(pr, stop)

	var deadline <-chan time.Time
	reset := func() {}
	if r.timeout > 0 {
		timer := time.NewTimer(r.timeout)
		defer timer.Stop()
		deadline = timer.C
		reset = func() { timer.Reset(r.timeout) }
	}

	return r.loop(ctx, cmd, chunks, readErr, onChunk, deadline, reset, started)
}

func (r *Runner) loop(
	ctx context.Context,
	cmd *exec.Cmd,
	chunks <-chan string,
	readErr <-chan error,
	onChunk ChunkFunc,
	deadline <-chan time.Time,
	resetDeadline func(),
	started time.Time,
) Result {
	var output strings.Builder
	pid := cmd.Process.Pid

	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				if err := <-readErr; err != nil {
					r.logger.Warn("Error reading output", "pid", pid, "error", err)
				}
				waitErr := cmd.Wait()
				code := exitCodeFromError(waitErr)
				r.logger.Debug("Process exited", "pid", pid, "exit_code", code)
				res := Result{Status: StatusExited, ExitCode: code, Output: output.String(), PID: pid, Elapsed: time.Since(started)}
				if code != 0 {
					res.Err = waitErr
				}
				return res
			}

			if r.decode != nil {
				chunk = r.decode(chunk)
			}
			output.WriteString(chunk)
			r.logChunk(chunk)
			if onChunk != nil {
				onChunk(chunk)
			}
			resetDeadline()

		case <-deadline:
			r.logger.Warn("Process stopped reporting, killing", "pid", pid, "timeout", r.timeout)
			code := r.kill(cmd)
			return Result{Status: StatusTimedOut, ExitCode: code, Output: output.String(), Err: ErrTimeout, PID: pid, Elapsed: time.Since(started)}

		case <-ctx.Done():
			r.logger.Info("Context canceled, killing process", "pid", pid)
			code := r.kill(cmd)
			return Result{Status: StatusCanceled, ExitCode: code, Output: output.String(), Err: ctx.Err(), PID: pid, Elapsed: time.Since(started)}
		}
	}
}

// readChunks reads the output stream in delimiter-terminated chunks on a
// separate goroutine. The chunk channel closes at EOF, after the read error
// (possibly nil) has been queued.
func (r *Runner) readChunks(f *os.File, stop <-chan struct{}) (<-chan string, <-chan error) {
	chunks := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		defer close(chunks)
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 4096), 2*maxChunk)
		scanner.Split(splitAfter([]byte(r.delimiter)))
		for scanner.Scan() {
			select {
			case chunks <- scanner.Text():
			case <-stop:
				readErr <- nil
				return
			}
		}
		readErr <- scanner.Err()
	}()

	return chunks, readErr
}

// splitAfter is a bufio.SplitFunc yielding tokens that end with delim. Data
// that grows past maxChunk without a delimiter is flushed as is.
func splitAfter(delim []byte) bufio.SplitFunc {
	return func(data []byte, atEOF bool) (int, []byte, error) {
		if atEOF && len(data) == 0 {
			return 0, nil, nil
		}
		if len(delim) > 0 {
			if i := bytes.Index(data, delim); i >= 0 {
				n := i + len(delim)
				return n, data[:n], nil
			}
		}
		if atEOF || len(data) >= maxChunk {
			return len(data), data, nil
		}
		return 0, nil, nil
	}
}

// kill sends SIGKILL to the process group and reaps the process.
func (r *Runner) kill(cmd *exec.Cmd) int {
	pid := cmd.Process.Pid
	if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		r.logger.Warn("Failed to kill process group", "pid", pid, "error", err)
		if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			r.logger.Error("Failed to kill process", "pid", pid, "error", err)
		}
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case err := <-done:
		return exitCodeFromError(err)
	case <-time.After(r.killTimeout):
		r.logger.Error("Process did not exit after kill signal", "pid", pid)
		return 137
	}
}

// logChunk logs each line of a chunk at the level reported by the log
// parser. Informational output goes to debug.
func (r *Runner) logChunk(chunk string) {
	logger := r.processLogger
	if logger == nil {
		logger = r.logger
	}

	for _, line := range strings.FieldsFunc(chunk, func(c rune) bool { return c == '\n' || c == '\r' }) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		level, msg := "info", line
		if r.logParser != nil {
			level, msg = r.logParser(line)
		}

		switch level {
		case "panic", "fatal", "error":
			logger.Error(msg)
		case "warning":
			logger.Warn(msg)
		default:
			logger.Debug(msg)
		}
	}
}

// exitCodeFromError extracts exit code from process error.
// Returns 0 for nil error, the exit code for ExitError (137 when killed by
// SIGKILL), or 1 for other errors.
func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			return 128 + int(status.Signal())
		}
		return exitErr.ExitCode()
	}
	return 1
}
