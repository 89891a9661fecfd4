package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"upgrade/internal/prof"
)

var profileSession *prof.Session

func profileOptions(cmd *cobra.Command) (prof.Options, error) {
	flags := cmd.Root().PersistentFlags()
	var opts prof.Options
	var err error
	if opts.CPU, err = flags.GetString("cpu-profile"); err != nil {
		return opts, fmt.Errorf("failed to get cpu-profile flag: %w", err)
	}
	if opts.Mem, err = flags.GetString("mem-profile"); err != nil {
		return opts, fmt.Errorf("failed to get mem-profile flag: %w", err)
	}
	if opts.RuntimeTrace, err = flags.GetString("runtime-trace"); err != nil {
		return opts, fmt.Errorf("failed to get runtime-trace flag: %w", err)
	}
	return opts, nil
}

func setupProfiling(cmd *cobra.Command) error {
	opts, err := profileOptions(cmd)
	if err != nil || !opts.Enabled() {
		return err
	}
	s, err := prof.Start(opts)
	if err != nil {
		return err
	}
	profileSession = s
	return nil
}

func stopProfiling() {
	if err := profileSession.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", noteColor.Sprint("note:"), err)
	}
}
