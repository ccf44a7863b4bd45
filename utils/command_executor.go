package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// CommandResult holds the combined stdout+stderr of a finished process.
type CommandResult struct {
	Output   string
	ExitCode int
	Duration time.Duration
}

// Succeeded reports whether the process exited with status zero.
func (r CommandResult) Succeeded() bool {
	return r.ExitCode == 0
}

// Executor runs external programs. The real implementation shells out;
// tests substitute a scripted fake.
type Executor interface {
	// LookPath searches PATH for the named executable.
	LookPath(file string) (string, error)

	// Run executes name with args in dir and blocks until it exits.
	// A nonzero exit status is reported through CommandResult.ExitCode with
	// a nil error; the error is only set when the process could not be
	// started or the context ended.
	Run(ctx context.Context, dir string, name string, args ...string) (CommandResult, error)
}

// CommandExecutor is the os/exec backed Executor.
type CommandExecutor struct {
	// Timeout bounds a single invocation. Zero means no limit beyond ctx.
	Timeout time.Duration
}

// NewCommandExecutor creates a new command executor instance
func NewCommandExecutor(timeout time.Duration) *CommandExecutor {
	return &CommandExecutor{Timeout: timeout}
}

// LookPath searches PATH for the named executable.
func (ce *CommandExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// Run executes the command and captures its output.
func (ce *CommandExecutor) Run(ctx context.Context, dir string, name string, args ...string) (CommandResult, error) {
	if name == "" {
		return CommandResult{}, fmt.Errorf("empty command provided")
	}

	if ce.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ce.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	// Tools interleave diagnostics across both streams, so keep them in one
	// buffer in the order they were written.
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	start := time.Now()
	err := cmd.Run()
	result := CommandResult{Output: output.String(), Duration: time.Since(start)}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, fmt.Errorf("%s: %w", name, ctxErr)
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, fmt.Errorf("failed to start %s: %w", name, err)
	}

	return result, nil
}
