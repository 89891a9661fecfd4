// Package diag defines the diagnostic model consumed by the suppression pipeline.
//
// # Purpose
//
//   - Provide the Diagnostic record and the ordered Batch produced by an
//     analyzer run or read from a pre-computed feed.
//   - Provide the single place where batches are narrowed to one diagnostic
//     code (Filter).
//   - Decode serialized feeds (JSON, msgpack) into batches.
//
// # Scope
//
// Package diag performs no file editing and runs no external processes.
// Running the analyzer lives in internal/project, writing annotations lives in
// internal/suppress and sequencing lives in internal/fixme.
//
// # Data model
//
// Diagnostic is an immutable value:
//
//   - Path – file path as reported by the producer (relative to the
//     repository root or absolute).
//   - Line – 1-based line, always present.
//   - Column – 1-based column; 0 when the producer did not report one.
//   - Code – non-negative analyzer code.
//   - Message – human oriented description.
//
// Batch keeps acquisition order. Nothing in this package sorts a batch.
//
// # Filtering
//
// CodeFilter is an explicit optional value. The zero value means "no
// filtering"; Only(c) selects a single code. Filter never mutates its input
// and returns the input itself when the filter is unset.
//
// # Feed schema
//
// A feed is a list of records:
//
//	[{"path": "a.py", "line": 5, "column": 3, "code": 10, "description": "..."}]
//
// "file" is accepted in place of "path" and "message" in place of
// "description". A record without a path, a line below 1 or a negative code
// makes the whole feed malformed.
package diag
