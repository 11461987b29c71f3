//go:generate mockgen -source=runner.go -destination=mock_runner.go -package=command

// Package command runs user-configured shell commands with a deadline.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// waitDelay bounds how long Wait keeps draining pipes after the process
// group has been killed. Grandchildren holding stdout open would otherwise
// block Wait forever.
const waitDelay = 500 * time.Millisecond

// ErrTimeout is returned when a command exceeds its deadline.
var ErrTimeout = errors.New("command timed out")

// Request describes one shell command execution.
type Request struct {
	// Command is passed to the shell as "sh -c <Command>".
	Command string
	Dir     string
	Stdin   []byte
	// Env is appended to the current process environment.
	Env     []string
	Timeout time.Duration
}

// Result is the outcome of a command that ran.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Runner abstracts command execution for testability.
type Runner interface {
	// Run executes the request. A nonzero exit is reported through
	// Result.ExitCode, not as an error. Spawn failures and timeouts
	// are errors; a timeout wraps ErrTimeout.
	Run(ctx context.Context, req Request) (*Result, error)
}

type shellRunner struct {
	shell string
}

// NewRunner creates a Runner backed by /bin/sh.
func NewRunner() Runner {
	return &shellRunner{shell: "sh"}
}

func (r *shellRunner) Run(ctx context.Context, req Request) (*Result, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.shell, "-c", req.Command)
	cmd.Dir = req.Dir
	cmd.Env = append(os.Environ(), req.Env...)
	if len(req.Stdin) > 0 {
		cmd.Stdin = bytes.NewReader(req.Stdin)
	}
	setProcGroup(cmd)
	cmd.Cancel = func() error {
		return killProcGroup(cmd)
	}
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()

	result := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: -1,
		Duration: time.Since(start),
	}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return result, fmt.Errorf("%w after %v: %s", ErrTimeout, req.Timeout, req.Command)
		}
		return result, fmt.Errorf("command %q cancelled: %w", req.Command, ctxErr)
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return result, nil
		}
		return result, fmt.Errorf("failed to run %q: %w", req.Command, runErr)
	}

	return result, nil
}
