package fixme

import (
	"fmt"
	"strings"
)

// ErrorSource selects where diagnostics come from.
type ErrorSource uint8

const (
	// SourceStdin reads a pre-computed feed.
	SourceStdin ErrorSource = iota
	// SourceGenerate runs the project's analyzer.
	SourceGenerate
)

func (s ErrorSource) String() string {
	switch s {
	case SourceStdin:
		return "stdin"
	case SourceGenerate:
		return "generate"
	default:
		return fmt.Sprintf("ErrorSource(%d)", uint8(s))
	}
}

// ParseErrorSource accepts "stdin" or "generate".
func ParseErrorSource(s string) (ErrorSource, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stdin":
		return SourceStdin, nil
	case "generate":
		return SourceGenerate, nil
	default:
		return SourceStdin, fmt.Errorf("invalid error source %q (expected: stdin|generate)", s)
	}
}

// Set implements pflag.Value.
func (s *ErrorSource) Set(v string) error {
	parsed, err := ParseErrorSource(v)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Type implements pflag.Value.
func (s *ErrorSource) Type() string {
	return "stdin|generate"
}
