package suppress

import (
	"errors"
	"fmt"
)

var (
	// ErrLineOutOfRange is returned when a diagnostic points past the end of its file.
	ErrLineOutOfRange = errors.New("line out of range")
	// ErrOutsideRoot is returned for paths that resolve outside Options.Root.
	ErrOutsideRoot = errors.New("path is outside the repository root")
)

// SuppressionWriteError reports the file, and line when known, that could not
// be annotated. Line is 0 for file-level failures.
type SuppressionWriteError struct {
	Path string
	Line int
	Err  error
}

func (e *SuppressionWriteError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *SuppressionWriteError) Unwrap() error {
	return e.Err
}
