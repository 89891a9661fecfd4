package project

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"

	"upgrade/internal/command"
	"upgrade/internal/diag"
	"upgrade/internal/trace"
)

const stderrTail = 2000

// Resolver locates and loads the project configuration for live analysis.
type Resolver struct {
	StartDir string
	Runner   command.Runner
	// AnalyzerOverride replaces [analyzer].command when non-empty.
	AnalyzerOverride []string
}

// Resolve finds the nearest configuration and prepares it for GetErrors.
// A missing file yields *ConfigurationNotFoundError; an invalid one yields
// *AnalysisFailedError since the analyzer cannot be run from it.
func (r Resolver) Resolve(ctx context.Context) (*Configuration, error) {
	path, err := FindProjectConfiguration(r.StartDir)
	if err != nil {
		return nil, err
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, &AnalysisFailedError{ExitCode: -1, Err: err}
	}
	if len(r.AnalyzerOverride) > 0 {
		cfg.Config.Analyzer.Command = slices.Clone(r.AnalyzerOverride)
	}
	cfg.runner = r.Runner
	trace.Point(trace.FromContext(ctx), trace.ScopeStage, "config", path)
	return cfg, nil
}

// GetErrors runs the analyzer and returns its diagnostics. When filter is set
// and [analyzer].only_code_flag is configured the code is forwarded to the
// analyzer; callers still filter the result themselves.
func (c *Configuration) GetErrors(ctx context.Context, filter diag.CodeFilter) (diag.Batch, error) {
	argv := c.Config.Analyzer.Command
	if len(argv) == 0 {
		return nil, &AnalysisFailedError{ExitCode: -1, Err: fmt.Errorf("%s: missing [analyzer].command", c.Path)}
	}
	args := slices.Clone(argv[1:])
	if code, ok := filter.Code(); ok && c.Config.Analyzer.OnlyCodeFlag != "" {
		args = append(args, c.Config.Analyzer.OnlyCodeFlag, strconv.Itoa(int(code)))
	}
	spec := command.Spec{
		Name:    argv[0],
		Args:    args,
		Dir:     c.Root,
		Timeout: c.Timeout(),
	}

	runner := c.runner
	if runner == nil {
		runner = command.ExecRunner{}
	}
	tr := trace.FromContext(ctx)
	span := trace.Begin(tr, trace.ScopeFile, "analyzer", trace.CurrentSpan(ctx).SpanID)
	res, err := runner.Run(ctx, spec)
	span.WithExtra("exit", strconv.Itoa(res.ExitCode)).End(spec.String())
	if err != nil {
		return nil, &AnalysisFailedError{
			Command:  spec.String(),
			ExitCode: -1,
			Stderr:   command.Tail(res.Stderr, stderrTail),
			Err:      err,
		}
	}
	if !slices.Contains(c.okExitCodes(), res.ExitCode) {
		return nil, &AnalysisFailedError{
			Command:  spec.String(),
			ExitCode: res.ExitCode,
			Stderr:   command.Tail(res.Stderr, stderrTail),
		}
	}

	batch, err := diag.DecodeBytes(res.Stdout, diag.FeedJSON)
	if err != nil {
		return nil, &AnalysisFailedError{
			Command:  spec.String(),
			ExitCode: res.ExitCode,
			Stderr:   command.Tail(res.Stderr, stderrTail),
			Err:      fmt.Errorf("unusable analyzer output: %w", err),
		}
	}
	for i := range batch {
		if !filepath.IsAbs(batch[i].Path) {
			batch[i].Path = filepath.Join(c.Root, filepath.FromSlash(batch[i].Path))
		}
	}
	return batch, nil
}

func (c *Configuration) okExitCodes() []int {
	if len(c.Config.Analyzer.OKExitCodes) > 0 {
		return c.Config.Analyzer.OKExitCodes
	}
	return DefaultOKExitCodes
}
