package diag

import (
	"fmt"
	"strconv"
)

// Code identifies the kind of a diagnostic as reported by the analyzer.
type Code int

func (c Code) String() string {
	return strconv.Itoa(int(c))
}

// Diagnostic is a single finding reported against a file position.
type Diagnostic struct {
	Path    string
	Line    int
	Column  int // 0 when unknown
	Code    Code
	Message string
}

// String renders the diagnostic as path:line[:column] [code] message.
func (d Diagnostic) String() string {
	if d.Column > 0 {
		return fmt.Sprintf("%s:%d:%d [%s] %s", d.Path, d.Line, d.Column, d.Code, d.Message)
	}
	return fmt.Sprintf("%s:%d [%s] %s", d.Path, d.Line, d.Code, d.Message)
}
