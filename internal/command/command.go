// Package command runs external tools (analyzer, formatter, git) on behalf of
// the suppression pipeline.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
)

// ErrTimeout is returned when a command exceeds Spec.Timeout.
var ErrTimeout = errors.New("command timed out")

// Spec describes one invocation.
type Spec struct {
	Name    string
	Args    []string
	Dir     string
	Env     []string // appended to the current environment
	Stdin   io.Reader
	Timeout time.Duration // 0 = no limit
}

// String renders the command line for messages.
func (s Spec) String() string {
	return strings.Join(append([]string{s.Name}, s.Args...), " ")
}

// Result captures the outcome of a command that started.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Duration time.Duration
}

// Runner executes commands. A non-zero exit status is reported through
// Result.ExitCode; the error is reserved for commands that could not start
// or were interrupted.
type Runner interface {
	Run(ctx context.Context, spec Spec) (Result, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, spec Spec) (Result, error)

func (f RunnerFunc) Run(ctx context.Context, spec Spec) (Result, error) {
	return f(ctx, spec)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, spec Spec) (Result, error) {
	if spec.Name == "" {
		return Result{}, fmt.Errorf("empty command")
	}
	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, spec.Name, spec.Args...)
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = append(cmd.Environ(), spec.Env...)
	}
	cmd.Stdin = spec.Stdin
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
	}
	if err == nil {
		return res, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) && spec.Timeout > 0 {
			return res, fmt.Errorf("%s: %w after %s", spec.Name, ErrTimeout, spec.Timeout)
		}
		return res, fmt.Errorf("%s: %w", spec.Name, ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	return res, fmt.Errorf("run %s: %w", spec.Name, err)
}

// Split turns a command line into name and args on whitespace.
// Quoting is not interpreted.
func Split(line string) (string, []string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], fields[1:]
}

// Tail returns at most the last n bytes of b as trimmed text.
func Tail(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	if n > 0 && len(s) > n {
		return "..." + s[len(s)-n:]
	}
	return s
}
