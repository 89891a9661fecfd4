package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"upgrade/internal/command"
	"upgrade/internal/diag"
	"upgrade/internal/fixme"
	"upgrade/internal/observ"
	"upgrade/internal/project"
	"upgrade/internal/repository"
	"upgrade/internal/suppress"
	"upgrade/internal/trace"
)

const (
	envFormatter = "UPGRADE_FORMATTER"
	envAnalyzer  = "UPGRADE_ANALYZER"
)

type fixmeOptions struct {
	source      fixme.ErrorSource
	filter      diag.CodeFilter
	inputFormat diag.FeedFormat
	ui          string
	suppressionFlags

	// maxLineLengthSet records whether --max-line-length was given.
	maxLineLengthSet bool
	quiet            bool
	timings          bool
}

var fixmeFlags fixmeOptions

var fixmeCmd = &cobra.Command{
	Use:   "fixme",
	Short: "Suppress the errors reported by the type checker",
	Long: `fixme reads diagnostics from stdin (default) or runs the project's analyzer,
keeps those matching --only-fix-error-code, and inserts a suppression annotation
above every reported line. With --lint and --error-source generate the
formatter runs afterwards; if it changed the tree the analyzer runs once more
and the new errors are suppressed too.`,
	Args: cobra.NoArgs,
	RunE: runFixme,
}

func init() {
	fixmeCmd.Flags().Var(&fixmeFlags.source, "error-source", "where diagnostics come from (stdin|generate)")
	fixmeCmd.Flags().Var(codeFilterValue{&fixmeFlags.filter}, "only-fix-error-code", "only suppress errors with this code")
	fixmeCmd.Flags().Var(feedFormatValue{&fixmeFlags.inputFormat}, "input-format", "stdin feed format (json|msgpack)")
	fixmeCmd.Flags().StringVar(&fixmeFlags.ui, "ui", "auto", "progress view (auto|on|off)")
	addSuppressionFlags(fixmeCmd, &fixmeFlags.suppressionFlags)
}

func runFixme(cmd *cobra.Command, args []string) error {
	opts := fixmeFlags
	opts.maxLineLengthSet = cmd.Flags().Changed("max-line-length")

	var err error
	if opts.quiet, err = cmd.Root().PersistentFlags().GetBool("quiet"); err != nil {
		return err
	}
	if opts.timings, err = cmd.Root().PersistentFlags().GetBool("timings"); err != nil {
		return err
	}
	mode, err := readUIMode(opts.ui)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	timer := observ.NewTimer()
	idx := timer.Begin("configure")
	cfg, err := buildFixmeConfig(cmd.Context(), opts, wd, cmd.InOrStdin(), cmd.ErrOrStderr(), timer)
	timer.End(idx, opts.source.String())
	if err != nil {
		return err
	}

	var res fixme.Result
	if shouldUseTUI(mode, opts.quiet) {
		res, err = runWithUI(cmd.Context(), "upgrade fixme", cfg, cmd.OutOrStdout())
	} else {
		res, err = fixme.Run(cmd.Context(), cfg)
	}
	if err != nil {
		return err
	}

	if !opts.quiet {
		printFixmeSummary(cmd.OutOrStdout(), res)
	}
	if opts.timings {
		fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
	}
	return nil
}

// buildFixmeConfig resolves settings with the precedence flag > environment >
// project file > defaults and wires the collaborators.
func buildFixmeConfig(ctx context.Context, opts fixmeOptions, wd string, stdin io.Reader, stderr io.Writer, timer *observ.Timer) (fixme.Config, error) {
	root, err := resolveRepositoryRoot(ctx, opts.repositoryRoot, wd)
	if err != nil {
		return fixme.Config{}, err
	}

	// The project file is mandatory for generate and optional otherwise; it
	// still supplies the marker and formatter in stdin mode.
	var projectCfg *project.Configuration
	if path, ok, findErr := project.FindConfigFile(wd); findErr == nil && ok {
		loaded, loadErr := project.Load(path)
		switch {
		case loadErr == nil:
			projectCfg = loaded
		case opts.source == fixme.SourceStdin && !opts.quiet:
			fmt.Fprintf(stderr, "%s ignoring %s\n", noteColor.Sprint("note:"), loadErr)
		}
	}

	supOpts := suppress.Options{
		Root:          root,
		Marker:        project.DefaultMarker,
		Comment:       opts.comment,
		MaxLineLength: opts.maxLineLength,
		Truncate:      opts.truncate,
	}
	if projectCfg != nil {
		// Analyzers report paths relative to the project, in both modes.
		supOpts.Base = projectCfg.Root
		supOpts.Marker = projectCfg.Marker()
		if !opts.maxLineLengthSet {
			supOpts.MaxLineLength = projectCfg.MaxLineLength()
		}
	}
	if supOpts.MaxLineLength < 0 {
		return fixme.Config{}, fmt.Errorf("--max-line-length must not be negative")
	}

	cfg := fixme.Config{
		Source:     opts.source,
		Filter:     opts.filter,
		Lint:       opts.lint,
		Suppressor: suppress.New(supOpts),
		Progress: fixme.SinkFunc(func(ev fixme.Event) {
			if ev.Status == fixme.StatusDone || ev.Status == fixme.StatusError {
				timer.Record(phaseName(ev), ev.Elapsed, strconv.Itoa(ev.Count))
			}
		}),
	}

	switch opts.source {
	case fixme.SourceStdin:
		cfg.Feed = fixme.StreamFeed{Reader: stdin, Format: opts.inputFormat}
	case fixme.SourceGenerate:
		resolver := project.Resolver{StartDir: wd, Runner: command.ExecRunner{}}
		if name, args := command.Split(os.Getenv(envAnalyzer)); name != "" {
			resolver.AnalyzerOverride = append([]string{name}, args...)
		}
		cfg.Configurations = fixme.ResolverFunc(func(ctx context.Context) (fixme.Analyzer, error) {
			c, err := resolver.Resolve(ctx)
			if err != nil {
				return nil, err
			}
			return c, nil
		})
		if opts.lint {
			cfg.Repository = &repository.Repository{
				Root:          root,
				FormatCommand: formatterCommand(opts.formatter, projectCfg),
				Runner:        command.ExecRunner{},
				Tracker:       repository.DetectTracker(ctx, command.ExecRunner{}, root),
			}
		}
	}
	trace.Point(trace.FromContext(ctx), trace.ScopeRun, "configured",
		fmt.Sprintf("source=%s filter=%s root=%s marker=%s", opts.source, opts.filter, root, supOpts.Marker))
	return cfg, nil
}

func phaseName(ev fixme.Event) string {
	if ev.Pass == 0 {
		return string(ev.Stage)
	}
	return fmt.Sprintf("%s#%d", ev.Stage, ev.Pass)
}

// formatterCommand picks the formatter: flag, then environment, then project file.
func formatterCommand(flag string, cfg *project.Configuration) []string {
	if name, args := command.Split(flag); name != "" {
		return append([]string{name}, args...)
	}
	if name, args := command.Split(os.Getenv(envFormatter)); name != "" {
		return append([]string{name}, args...)
	}
	if cfg != nil {
		return cfg.FormatCommand()
	}
	return nil
}

func resolveRepositoryRoot(ctx context.Context, flag, wd string) (string, error) {
	if flag != "" {
		abs, err := filepath.Abs(flag)
		if err != nil {
			return "", err
		}
		info, err := os.Stat(abs)
		if err != nil {
			return "", fmt.Errorf("--repository-root: %w", err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("--repository-root: %s is not a directory", abs)
		}
		return abs, nil
	}
	if top, err := repository.Toplevel(ctx, command.ExecRunner{}, wd); err == nil {
		return top, nil
	}
	return wd, nil
}

func printFixmeSummary(w io.Writer, res fixme.Result) {
	for _, p := range res.Passes {
		files := 0
		for _, f := range p.Report.Files {
			if f.Annotations > 0 {
				files++
			}
		}
		fmt.Fprintf(w, "%s %s acquired, %s kept, %s in %s\n",
			dimColor.Sprintf("pass %d:", p.Pass),
			plural(p.Acquired, "diagnostic", "diagnostics"),
			plural(p.Applied, "diagnostic", "diagnostics"),
			successColor.Sprint(plural(p.Report.Annotations(), "annotation", "annotations")),
			plural(files, "file", "files"))
	}
	switch {
	case res.Reformatted && res.TreeChanged:
		fmt.Fprintln(w, noteColor.Sprint("formatter changed the tree; reconverged once"))
	case res.Reformatted:
		fmt.Fprintln(w, noteColor.Sprint("formatter made no changes"))
	}
}
