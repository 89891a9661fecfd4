// Package repository wraps the managed source tree: it runs the configured
// formatter and reports whether the run changed anything.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"upgrade/internal/command"
	"upgrade/internal/trace"
)

// ErrNoFormatter is returned by Format when no formatter command is configured.
var ErrNoFormatter = errors.New("no formatter configured")

// ReformatError reports a formatter that could not run to completion.
// ExitCode is -1 when the process did not finish.
type ReformatError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ReformatError) Error() string {
	var b strings.Builder
	b.WriteString("reformat failed")
	if e.Command != "" {
		fmt.Fprintf(&b, " (%s)", e.Command)
	}
	if e.ExitCode >= 0 {
		fmt.Fprintf(&b, ": exit status %d", e.ExitCode)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.Stderr != "" {
		b.WriteString("\n")
		b.WriteString(e.Stderr)
	}
	return b.String()
}

func (e *ReformatError) Unwrap() error {
	return e.Err
}

// Repository is the managed tree.
type Repository struct {
	Root          string
	FormatCommand []string
	Runner        command.Runner
	// Tracker defaults to a SnapshotTracker over Root.
	Tracker Tracker
}

// Format runs the formatter in Root and reports whether the tree changed.
func (r *Repository) Format(ctx context.Context) (bool, error) {
	if len(r.FormatCommand) == 0 {
		return false, &ReformatError{ExitCode: -1, Err: ErrNoFormatter}
	}
	spec := command.Spec{
		Name: r.FormatCommand[0],
		Args: r.FormatCommand[1:],
		Dir:  r.Root,
	}
	tracker := r.Tracker
	if tracker == nil {
		tracker = SnapshotTracker{Root: r.Root}
	}

	before, err := tracker.Fingerprint(ctx)
	if err != nil {
		return false, &ReformatError{Command: spec.String(), ExitCode: -1, Err: fmt.Errorf("fingerprint before: %w", err)}
	}

	tr := trace.FromContext(ctx)
	span := trace.Begin(tr, trace.ScopeFile, "formatter", trace.CurrentSpan(ctx).SpanID)
	res, err := runner(r.Runner).Run(ctx, spec)
	span.WithExtra("exit", strconv.Itoa(res.ExitCode)).End(spec.String())
	if err != nil {
		return false, &ReformatError{Command: spec.String(), ExitCode: -1, Stderr: command.Tail(res.Stderr, 2000), Err: err}
	}
	if res.ExitCode != 0 {
		return false, &ReformatError{Command: spec.String(), ExitCode: res.ExitCode, Stderr: command.Tail(res.Stderr, 2000)}
	}

	after, err := tracker.Fingerprint(ctx)
	if err != nil {
		return false, &ReformatError{Command: spec.String(), ExitCode: -1, Err: fmt.Errorf("fingerprint after: %w", err)}
	}
	if before.Equal(after) {
		return false, nil
	}
	for _, path := range before.Changed(after) {
		trace.Point(tr, trace.ScopeEdit, "reformatted", path)
	}
	return true, nil
}
