// Package fixme drives the suppression convergence workflow: acquire a batch
// of diagnostics, keep the ones that pass the code filter, annotate them, and
// when formatting is enabled reformat the tree and reconverge exactly once.
//
// Acquisition, filtering, application and reformatting are strictly ordered
// blocking steps. The analyzer runs at most twice per Run and the formatter at
// most once.
package fixme

import (
	"context"
	"errors"
	"io"
	"strconv"
	"time"

	"upgrade/internal/diag"
	"upgrade/internal/suppress"
	"upgrade/internal/trace"
)

// Analyzer produces diagnostics by running the project's type checker.
type Analyzer interface {
	GetErrors(ctx context.Context, filter diag.CodeFilter) (diag.Batch, error)
}

// Resolver locates the project configuration that knows how to analyze.
type Resolver interface {
	Resolve(ctx context.Context) (Analyzer, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context) (Analyzer, error)

func (f ResolverFunc) Resolve(ctx context.Context) (Analyzer, error) { return f(ctx) }

// FeedReader yields a pre-computed batch. It never runs external processes.
type FeedReader interface {
	ReadBatch(ctx context.Context) (diag.Batch, error)
}

// Formatter reformats the tree and reports whether any content changed.
type Formatter interface {
	Format(ctx context.Context) (bool, error)
}

// Suppressor annotates a whole batch in one call.
type Suppressor interface {
	Suppress(ctx context.Context, batch diag.Batch) (suppress.Report, error)
}

// StreamFeed decodes a feed from a reader, usually stdin.
type StreamFeed struct {
	Reader io.Reader
	Format diag.FeedFormat
}

func (f StreamFeed) ReadBatch(ctx context.Context) (diag.Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return diag.Decode(f.Reader, f.Format)
}

// Config is built once by the CLI and only read afterwards.
type Config struct {
	Source ErrorSource
	Filter diag.CodeFilter
	// Lint enables the reformat step; it only has an effect with SourceGenerate.
	Lint bool

	Feed           FeedReader // SourceStdin
	Configurations Resolver   // SourceGenerate
	Repository     Formatter  // Lint
	Suppressor     Suppressor

	Progress ProgressSink // optional
}

// PassResult describes one acquire/filter/apply pass.
type PassResult struct {
	Pass     int
	Acquired int
	Applied  int
	Report   suppress.Report
}

// Result summarises a Run.
type Result struct {
	Passes        []PassResult
	Reformatted   bool // the formatter ran
	TreeChanged   bool // and changed the tree
	AnalyzerCalls int
	FormatCalls   int
}

// Annotations returns the number of annotations inserted across passes.
func (r Result) Annotations() int {
	n := 0
	for _, p := range r.Passes {
		n += p.Report.Annotations()
	}
	return n
}

var (
	errNoSuppressor = errors.New("no suppressor configured")
	errNoFeed       = errors.New("no diagnostic feed configured")
	errNoResolver   = errors.New("no configuration resolver configured")
	errNoFormatter  = errors.New("formatting enabled without a repository")
)

type state uint8

const (
	stateIdle state = iota
	stateApplyingFirst
	stateMaybeReformatting
	stateApplyingSecond
	stateDone
)

func (s state) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateApplyingFirst:
		return "applying(1st)"
	case stateMaybeReformatting:
		return "maybe-reformatting"
	case stateApplyingSecond:
		return "applying(2nd)"
	case stateDone:
		return "done"
	default:
		return "unknown"
	}
}

type runner struct {
	cfg    Config
	result Result
	tracer trace.Tracer
}

// Run executes the workflow. Errors are *StageError values naming the stage
// that failed; files edited before the failure stay edited.
func Run(ctx context.Context, cfg Config) (Result, error) {
	if err := cfg.validate(); err != nil {
		return Result{}, err
	}

	r := &runner{cfg: cfg, tracer: trace.FromContext(ctx)}
	span := trace.Begin(r.tracer, trace.ScopeRun, "fixme", trace.CurrentSpan(ctx).SpanID)
	ctx = trace.WithSpan(ctx, span)

	st := stateIdle
	var err error
	for st != stateDone {
		var next state
		next, err = r.step(ctx, st)
		trace.Point(r.tracer, trace.ScopeStage, "transition", st.String()+" -> "+next.String())
		st = next
	}

	span.WithExtra("source", cfg.Source.String()).
		WithExtra("analyzer_calls", strconv.Itoa(r.result.AnalyzerCalls)).
		WithExtra("format_calls", strconv.Itoa(r.result.FormatCalls)).
		End(st.String())
	return r.result, err
}

func (c Config) validate() error {
	if c.Suppressor == nil {
		return errNoSuppressor
	}
	switch c.Source {
	case SourceStdin:
		if c.Feed == nil {
			return errNoFeed
		}
	case SourceGenerate:
		if c.Configurations == nil {
			return errNoResolver
		}
		if c.Lint && c.Repository == nil {
			return errNoFormatter
		}
	default:
		return errors.New("unknown error source " + c.Source.String())
	}
	return nil
}

// step performs the work of st and returns the next state. Any error ends
// the run.
func (r *runner) step(ctx context.Context, st state) (state, error) {
	switch st {
	case stateIdle:
		return stateApplyingFirst, nil

	case stateApplyingFirst:
		if err := r.pass(ctx, 1); err != nil {
			return stateDone, err
		}
		if !r.cfg.Lint {
			return stateDone, nil
		}
		if r.cfg.Source != SourceGenerate {
			// A feed cannot be regenerated after formatting.
			r.emit(Event{Stage: StageFormat, Status: StatusSkipped})
			return stateDone, nil
		}
		return stateMaybeReformatting, nil

	case stateMaybeReformatting:
		changed, err := r.reformat(ctx)
		if err != nil || !changed {
			return stateDone, err
		}
		return stateApplyingSecond, nil

	case stateApplyingSecond:
		return stateDone, r.pass(ctx, 2)
	}
	return stateDone, nil
}

func (r *runner) pass(ctx context.Context, n int) error {
	pr := PassResult{Pass: n}

	batch, err := runStage(ctx, r, StageAcquire, n, func(ctx context.Context) (diag.Batch, int, error) {
		b, err := r.acquire(ctx)
		return b, len(b), err
	})
	if err != nil {
		return err
	}
	pr.Acquired = len(batch)

	filtered, err := runStage(ctx, r, StageFilter, n, func(context.Context) (diag.Batch, int, error) {
		f := diag.Filter(batch, r.cfg.Filter)
		return f, len(f), nil
	})
	if err != nil {
		return err
	}

	report, err := runStage(ctx, r, StageApply, n, func(ctx context.Context) (suppress.Report, int, error) {
		rep, err := r.cfg.Suppressor.Suppress(ctx, filtered)
		return rep, len(filtered), err
	})
	pr.Applied = len(filtered)
	pr.Report = report
	r.result.Passes = append(r.result.Passes, pr)
	return err
}

// acquire dispatches on the error source. Each branch owns its own logic.
func (r *runner) acquire(ctx context.Context) (diag.Batch, error) {
	switch r.cfg.Source {
	case SourceGenerate:
		return r.generate(ctx)
	default:
		return r.cfg.Feed.ReadBatch(ctx)
	}
}

func (r *runner) generate(ctx context.Context) (diag.Batch, error) {
	analyzer, err := r.cfg.Configurations.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	r.result.AnalyzerCalls++
	return analyzer.GetErrors(ctx, r.cfg.Filter)
}

func (r *runner) reformat(ctx context.Context) (bool, error) {
	return runStage(ctx, r, StageFormat, 0, func(ctx context.Context) (bool, int, error) {
		r.result.FormatCalls++
		r.result.Reformatted = true
		changed, err := r.cfg.Repository.Format(ctx)
		r.result.TreeChanged = changed && err == nil
		count := 0
		if changed {
			count = 1
		}
		return changed, count, err
	})
}

// runStage wraps fn with a trace span and progress events and attributes any
// error to stage.
func runStage[T any](ctx context.Context, r *runner, stage Stage, pass int, fn func(context.Context) (T, int, error)) (T, error) {
	span := trace.Begin(r.tracer, trace.ScopeStage, string(stage), trace.CurrentSpan(ctx).SpanID)
	if pass > 0 {
		span.WithExtra("pass", strconv.Itoa(pass))
	}
	r.emit(Event{Stage: stage, Status: StatusWorking, Pass: pass})

	start := time.Now()
	out, count, err := fn(trace.WithSpan(ctx, span))
	elapsed := time.Since(start)

	span.WithExtra("count", strconv.Itoa(count))
	if err != nil {
		span.WithExtra("error", err.Error())
		span.End("error")
		r.emit(Event{Stage: stage, Status: StatusError, Pass: pass, Count: count, Err: err, Elapsed: elapsed})
		return out, &StageError{Stage: stage, Pass: pass, Err: err}
	}
	span.End("")
	r.emit(Event{Stage: stage, Status: StatusDone, Pass: pass, Count: count, Elapsed: elapsed})
	return out, nil
}

func (r *runner) emit(evt Event) {
	if r.cfg.Progress != nil {
		r.cfg.Progress.OnEvent(evt)
	}
}
