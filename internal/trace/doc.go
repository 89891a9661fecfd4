// Package trace provides structured tracing for the upgrade tool.
//
// Tracing is the tool's logging layer: every pipeline stage opens a span, and
// notable facts are recorded as point events. Output goes to a stream (file or
// stderr), a ring buffer dumped when a run fails, or both.
//
// # Usage
//
//	upgrade --trace=- --trace-level=detail fixme --error-source generate
//
// # Levels
//
//   - LevelOff: no tracing
//   - LevelError: ring buffer only, dumped on failure
//   - LevelPhase: run and stage boundaries
//   - LevelDetail: per-file and per-process events
//   - LevelDebug: everything including individual annotations
//
// # Context propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopeStage, "apply", parentID)
//	defer span.End("")
//
// The heartbeat emits periodic events so a hung analyzer or formatter is
// visible in the trace even though no span ends.
package trace
