package diag

import (
	"fmt"
	"strconv"
	"strings"
)

// CodeFilter optionally restricts a batch to a single diagnostic code.
// The zero value is the unset filter.
type CodeFilter struct {
	code Code
	set  bool
}

// NoFilter returns the unset filter.
func NoFilter() CodeFilter {
	return CodeFilter{}
}

// Only returns a filter that keeps diagnostics with code c.
func Only(c Code) CodeFilter {
	return CodeFilter{code: c, set: true}
}

// ParseCodeFilter parses a decimal diagnostic code. An empty string yields NoFilter.
func ParseCodeFilter(s string) (CodeFilter, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return NoFilter(), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return CodeFilter{}, fmt.Errorf("invalid error code %q: %w", s, err)
	}
	if n < 0 {
		return CodeFilter{}, fmt.Errorf("invalid error code %d: must not be negative", n)
	}
	return Only(Code(n)), nil
}

// Code returns the selected code and whether the filter is set.
func (f CodeFilter) Code() (Code, bool) {
	return f.code, f.set
}

// IsSet reports whether the filter selects a code.
func (f CodeFilter) IsSet() bool {
	return f.set
}

// Match reports whether d passes the filter.
func (f CodeFilter) Match(d Diagnostic) bool {
	return !f.set || d.Code == f.code
}

func (f CodeFilter) String() string {
	if !f.set {
		return ""
	}
	return f.code.String()
}

// Filter returns the diagnostics of b that pass f, preserving relative order.
// With an unset filter b itself is returned. b is never modified.
func Filter(b Batch, f CodeFilter) Batch {
	if !f.set {
		return b
	}
	out := make(Batch, 0, len(b))
	for _, d := range b {
		if f.Match(d) {
			out = append(out, d)
		}
	}
	return out
}
