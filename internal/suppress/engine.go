// Package suppress inserts suppression annotations above the lines that
// diagnostics point at.
package suppress

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"upgrade/internal/diag"
	"upgrade/internal/trace"
)

// DefaultMarker is used when Options.Marker is empty.
const DefaultMarker = "fixme"

// Options configures the edit engine.
type Options struct {
	Root string // managed tree; annotated files must lie inside it
	// Base is where relative diagnostic paths resolve; defaults to Root.
	Base          string
	Marker        string
	Comment       string // replaces diagnostic messages when non-empty
	MaxLineLength int    // 0 = unlimited
	Truncate      bool   // truncate long annotations instead of wrapping
}

// FileReport summarises one file of a pass.
type FileReport struct {
	Path        string
	Diagnostics int
	Annotations int
}

// Report is the outcome of one Suppress call.
type Report struct {
	Files []FileReport
}

// Annotations returns the number of annotations inserted across all files.
func (r Report) Annotations() int {
	n := 0
	for _, f := range r.Files {
		n += f.Annotations
	}
	return n
}

// Changed reports whether any file was rewritten.
func (r Report) Changed() bool {
	return r.Annotations() > 0
}

// Engine applies batches of diagnostics to files on disk.
type Engine struct {
	opts     Options
	patterns map[string]*regexp.Regexp
}

// New creates an Engine.
func New(opts Options) *Engine {
	if strings.TrimSpace(opts.Marker) == "" {
		opts.Marker = DefaultMarker
	}
	if opts.Root != "" {
		if abs, err := filepath.Abs(opts.Root); err == nil {
			opts.Root = abs
		}
	}
	if opts.Base == "" {
		opts.Base = opts.Root
	} else if abs, err := filepath.Abs(opts.Base); err == nil {
		opts.Base = abs
	}
	return &Engine{opts: opts, patterns: make(map[string]*regexp.Regexp)}
}

// fileGroup collects the diagnostics of one file on disk. path is the first
// spelling the batch used for it.
type fileGroup struct {
	path     string
	resolved string
	err      error
	diags    []diag.Diagnostic
}

// group keys diagnostics by the file they resolve to, so "a.py" and "./a.py"
// are edited in a single bottom-up sweep. Groups keep first-appearance order.
func (e *Engine) group(batch diag.Batch) []*fileGroup {
	var groups []*fileGroup
	byKey := make(map[string]*fileGroup)
	for _, d := range batch {
		resolved, err := e.resolve(d.Path)
		key := resolved
		if err != nil {
			key = "\x00" + d.Path
		}
		g, ok := byKey[key]
		if !ok {
			g = &fileGroup{path: d.Path, resolved: resolved, err: err}
			byKey[key] = g
			groups = append(groups, g)
		}
		g.diags = append(g.diags, d)
	}
	return groups
}

// Suppress annotates every diagnostic in batch. Files are processed in order
// of first appearance; the first failure stops the run and files already
// written stay edited.
func (e *Engine) Suppress(ctx context.Context, batch diag.Batch) (Report, error) {
	var report Report
	if len(batch) == 0 {
		return report, nil
	}

	tr := trace.FromContext(ctx)
	parent := trace.CurrentSpan(ctx).SpanID
	for _, g := range e.group(batch) {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		span := trace.Begin(tr, trace.ScopeFile, "suppress", parent)
		fr, err := e.suppressFile(ctx, g)
		span.WithExtra("annotations", strconv.Itoa(fr.Annotations)).End(g.path)
		if err != nil {
			return report, err
		}
		report.Files = append(report.Files, fr)
	}
	return report, nil
}

func (e *Engine) resolve(path string) (string, error) {
	resolved := filepath.FromSlash(path)
	if !filepath.IsAbs(resolved) && e.opts.Base != "" {
		resolved = filepath.Join(e.opts.Base, resolved)
	}
	resolved = filepath.Clean(resolved)
	if e.opts.Root == "" {
		return resolved, nil
	}
	rel, err := filepath.Rel(e.opts.Root, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	return resolved, nil
}

func (e *Engine) suppressFile(ctx context.Context, g *fileGroup) (FileReport, error) {
	path, resolved, diags := g.path, g.resolved, g.diags
	fr := FileReport{Path: path, Diagnostics: len(diags)}

	if g.err != nil {
		return fr, &SuppressionWriteError{Path: path, Err: g.err}
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return fr, &SuppressionWriteError{Path: path, Err: err}
	}
	if !info.Mode().IsRegular() {
		return fr, &SuppressionWriteError{Path: path, Err: fmt.Errorf("not a regular file")}
	}
	content, err := os.ReadFile(resolved) // #nosec G304 - path validated against root
	if err != nil {
		return fr, &SuppressionWriteError{Path: path, Err: err}
	}

	doc := splitLines(string(content))
	byLine := make(map[int][]diag.Diagnostic)
	for _, d := range diags {
		if d.Line < 1 || d.Line > len(doc.lines) {
			return fr, &SuppressionWriteError{Path: path, Line: d.Line, Err: ErrLineOutOfRange}
		}
		byLine[d.Line] = append(byLine[d.Line], d)
	}
	lineNumbers := make([]int, 0, len(byLine))
	for line := range byLine {
		lineNumbers = append(lineNumbers, line)
	}
	// Bottom-up so earlier insertions do not shift later targets.
	sort.Sort(sort.Reverse(sort.IntSlice(lineNumbers)))

	token := CommentToken(resolved)
	re := e.pattern(token)
	tr := trace.FromContext(ctx)
	for _, line := range lineNumbers {
		idx := line - 1
		ann, ok := e.annotationFor(doc.lines, idx, token, re, byLine[line])
		if !ok {
			continue
		}
		rendered := ann.render(e.opts.MaxLineLength, e.opts.Truncate)
		doc.insert(idx, rendered)
		fr.Annotations++
		trace.Point(tr, trace.ScopeEdit, "annotate", fmt.Sprintf("%s:%d %s", path, line, ann.header()))
	}

	if fr.Annotations == 0 {
		return fr, nil
	}
	if err := writeAtomic(resolved, []byte(doc.join()), info.Mode().Perm()); err != nil {
		return fr, &SuppressionWriteError{Path: path, Err: err}
	}
	return fr, nil
}

func (e *Engine) pattern(token string) *regexp.Regexp {
	re, ok := e.patterns[token]
	if !ok {
		re = markerPattern(token, e.opts.Marker)
		e.patterns[token] = re
	}
	return re
}

// annotationFor merges the diagnostics of one line. It reports false when
// every code is already suppressed above the line.
func (e *Engine) annotationFor(lines []string, idx int, token string, re *regexp.Regexp, diags []diag.Diagnostic) (annotation, bool) {
	present := existingCodes(lines, idx, token, re)

	var codes []diag.Code
	var messages []string
	seenCode := make(map[diag.Code]bool)
	seenMsg := make(map[string]bool)
	for _, d := range diags {
		if present[d.Code] {
			continue
		}
		if !seenCode[d.Code] {
			seenCode[d.Code] = true
			codes = append(codes, d.Code)
		}
		msg := normalizeMessage(d.Message)
		if msg != "" && !seenMsg[msg] {
			seenMsg[msg] = true
			messages = append(messages, msg)
		}
	}
	if len(codes) == 0 {
		return annotation{}, false
	}

	message := strings.Join(messages, "; ")
	if e.opts.Comment != "" {
		message = normalizeMessage(e.opts.Comment)
	}
	return annotation{
		indent:  leadingIndent(lines[idx]),
		token:   token,
		marker:  e.opts.Marker,
		codes:   codes,
		message: message,
	}, true
}

// document keeps a file's lines with their original terminators so untouched
// lines round-trip byte for byte.
type document struct {
	lines    []string // without "\n"; a trailing "\r" is kept
	crlf     bool
	trailing bool // content ended with a newline
}

func splitLines(content string) *document {
	doc := &document{crlf: strings.Contains(content, "\r\n")}
	if content == "" {
		return doc
	}
	doc.lines = strings.Split(content, "\n")
	if last := len(doc.lines) - 1; doc.lines[last] == "" {
		doc.lines = doc.lines[:last]
		doc.trailing = true
	}
	return doc
}

func (d *document) insert(idx int, block []string) {
	added := make([]string, len(block))
	for i, l := range block {
		if d.crlf {
			l += "\r"
		}
		added[i] = l
	}
	d.lines = append(d.lines[:idx], append(added, d.lines[idx:]...)...)
}

func (d *document) join() string {
	out := strings.Join(d.lines, "\n")
	if d.trailing {
		out += "\n"
	}
	return out
}

// writeAtomic replaces path through a temporary file in the same directory.
func writeAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".upgrade-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}
