package project

import (
	"fmt"
	"strings"
)

// ConfigurationNotFoundError is returned when no configuration file exists in
// the start directory or any of its parents.
type ConfigurationNotFoundError struct {
	StartDir string
}

func (e *ConfigurationNotFoundError) Error() string {
	return fmt.Sprintf("no %s found in %s or any parent directory\nrun from within a configured project, or create one with:\n  upgrade init",
		strings.Join(ConfigFileNames, " or "), e.StartDir)
}

// AnalysisFailedError reports an analyzer that could not run or produced an
// unusable result. ExitCode is -1 when the process did not finish.
type AnalysisFailedError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *AnalysisFailedError) Error() string {
	var b strings.Builder
	b.WriteString("analysis failed")
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

func (e *AnalysisFailedError) Unwrap() error {
	return e.Err
}
