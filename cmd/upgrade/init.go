package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"upgrade/internal/command"
	"upgrade/internal/project"
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Write a starter .upgrade.toml",
	Long: `Create a project configuration (.upgrade.toml) in dir, or in the current
directory when dir is omitted. The directory is created if it does not exist.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

var initFlags struct {
	analyzer  string
	codeFlag  string
	formatter string
	marker    string
	force     bool
}

func init() {
	initCmd.Flags().StringVar(&initFlags.analyzer, "analyzer", "pyre --output=json check", "analyzer command line printing a JSON diagnostic list")
	initCmd.Flags().StringVar(&initFlags.codeFlag, "only-code-flag", "", "analyzer flag that restricts output to one error code")
	initCmd.Flags().StringVar(&initFlags.formatter, "formatter", "", "formatter command line used by --lint")
	initCmd.Flags().StringVar(&initFlags.marker, "marker", project.DefaultMarker, "suppression marker")
	initCmd.Flags().BoolVar(&initFlags.force, "force", false, "overwrite an existing configuration")
}

func runInit(cmd *cobra.Command, args []string) error {
	target := "."
	if len(args) == 1 {
		target = args[0]
	}
	target, err := filepath.Abs(target)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	if st, err := os.Stat(target); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err := os.MkdirAll(target, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", target, err)
		}
	} else if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}

	path := filepath.Join(target, project.ConfigFileNames[0])
	if _, err := os.Stat(path); err == nil && !initFlags.force {
		return fmt.Errorf("project already initialized: %s exists (use --force to overwrite)", path)
	}

	data, err := starterConfig(initFlags.analyzer, initFlags.codeFlag, initFlags.formatter, initFlags.marker)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { // #nosec G306 -- project config is not secret
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet") //nolint:errcheck
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", successColor.Sprint("created"), path)
	}
	return nil
}

// starterConfig renders a configuration that project.Load accepts.
func starterConfig(analyzer, codeFlag, formatter, marker string) ([]byte, error) {
	name, args := command.Split(analyzer)
	if name == "" {
		return nil, fmt.Errorf("--analyzer must not be empty")
	}
	maxLen := project.DefaultMaxLineLength
	cfg := project.Config{
		Analyzer: project.AnalyzerConfig{
			Command:      append([]string{name}, args...),
			OnlyCodeFlag: codeFlag,
			OKExitCodes:  project.DefaultOKExitCodes,
		},
		Suppress: project.SuppressConfig{
			Marker:        marker,
			MaxLineLength: &maxLen,
		},
	}
	if name, args := command.Split(formatter); name != "" {
		cfg.Format.Command = append([]string{name}, args...)
	}

	var buf bytes.Buffer
	buf.WriteString("# upgrade project configuration\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
