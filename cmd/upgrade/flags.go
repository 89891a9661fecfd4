package main

import (
	"github.com/spf13/cobra"

	"upgrade/internal/diag"
)

// codeFilterValue exposes diag.CodeFilter as a flag; an unset flag leaves
// the filter empty rather than using a sentinel code.
type codeFilterValue struct {
	filter *diag.CodeFilter
}

func (v codeFilterValue) String() string {
	if v.filter == nil || !v.filter.IsSet() {
		return ""
	}
	return v.filter.String()
}

func (v codeFilterValue) Set(s string) error {
	f, err := diag.ParseCodeFilter(s)
	if err != nil {
		return err
	}
	*v.filter = f
	return nil
}

func (v codeFilterValue) Type() string { return "int" }

type feedFormatValue struct {
	format *diag.FeedFormat
}

func (v feedFormatValue) String() string {
	if v.format == nil {
		return diag.FeedJSON.String()
	}
	return v.format.String()
}

func (v feedFormatValue) Set(s string) error {
	f, err := diag.ParseFeedFormat(s)
	if err != nil {
		return err
	}
	*v.format = f
	return nil
}

func (v feedFormatValue) Type() string { return "json|msgpack" }

// suppressionFlags are shared by every command that edits the tree.
type suppressionFlags struct {
	lint           bool
	comment        string
	maxLineLength  int
	truncate       bool
	formatter      string
	repositoryRoot string
}

func addSuppressionFlags(cmd *cobra.Command, f *suppressionFlags) {
	cmd.Flags().BoolVar(&f.lint, "lint", false, "run the formatter after suppressing and reconverge once")
	cmd.Flags().StringVar(&f.comment, "comment", "", "custom message for every annotation")
	cmd.Flags().IntVar(&f.maxLineLength, "max-line-length", 88, "wrap or truncate annotations longer than this (0 disables)")
	cmd.Flags().BoolVar(&f.truncate, "truncate", false, "truncate long annotations instead of wrapping them")
	cmd.Flags().StringVar(&f.formatter, "formatter", "", "formatter command line (overrides UPGRADE_FORMATTER and [format].command)")
	cmd.Flags().StringVar(&f.repositoryRoot, "repository-root", "", "managed tree (default: git top level, else the working directory)")
}
