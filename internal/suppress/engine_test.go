package suppress

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upgrade/internal/diag"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func read(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestSuppressMergesSameLine(t *testing.T) {
	root := t.TempDir()
	write(t, root, "a.py", "import os\ndef f():\n    return x + y\n")

	eng := New(Options{Root: root})
	report, err := eng.Suppress(context.Background(), diag.Batch{
		{Path: "a.py", Line: 3, Code: 10, Message: "Unbound name x."},
		{Path: "a.py", Line: 3, Code: 20, Message: "Unbound   name\ty."},
		{Path: "a.py", Line: 3, Code: 10, Message: "Unbound name x."},
	})
	require.NoError(t, err)

	want := "import os\ndef f():\n    # fixme[10, 20]: Unbound name x.; Unbound name y.\n    return x + y\n"
	assert.Equal(t, want, read(t, filepath.Join(root, "a.py")))
	require.Len(t, report.Files, 1)
	assert.Equal(t, FileReport{Path: "a.py", Diagnostics: 3, Annotations: 1}, report.Files[0])
	assert.True(t, report.Changed())
}

func TestSuppressMultipleLinesAndFiles(t *testing.T) {
	root := t.TempDir()
	write(t, root, "b.go", "package b\n\nfunc f() {\n\tx := 1\n}\n")
	write(t, root, "q.sql", "select *\nfrom t;\n")

	eng := New(Options{Root: root, Marker: "lint-ignore", Comment: "legacy"})
	report, err := eng.Suppress(context.Background(), diag.Batch{
		{Path: "q.sql", Line: 2, Code: 7},
		{Path: "b.go", Line: 4, Code: 1},
		{Path: "b.go", Line: 1, Code: 2},
	})
	require.NoError(t, err)

	assert.Equal(t, "// lint-ignore[2]: legacy\npackage b\n\nfunc f() {\n\t// lint-ignore[1]: legacy\n\tx := 1\n}\n",
		read(t, filepath.Join(root, "b.go")))
	assert.Equal(t, "select *\n-- lint-ignore[7]: legacy\nfrom t;\n", read(t, filepath.Join(root, "q.sql")))
	require.Len(t, report.Files, 2)
	assert.Equal(t, "q.sql", report.Files[0].Path)
	assert.Equal(t, 3, report.Annotations())
}

func TestSuppressGroupsSpellingsOfOneFile(t *testing.T) {
	root := t.TempDir()
	path := write(t, root, "a.py", "l1\nl2\nl3\nl4\nl5\n")

	report, err := New(Options{Root: root}).Suppress(context.Background(), diag.Batch{
		{Path: "a.py", Line: 2, Code: 1, Message: "m"},
		{Path: "./a.py", Line: 4, Code: 2, Message: "m"},
		{Path: path, Line: 5, Code: 3, Message: "m"},
	})
	require.NoError(t, err)

	assert.Equal(t, "l1\n# fixme[1]: m\nl2\nl3\n# fixme[2]: m\nl4\n# fixme[3]: m\nl5\n", read(t, path))
	require.Len(t, report.Files, 1)
	assert.Equal(t, FileReport{Path: "a.py", Diagnostics: 3, Annotations: 3}, report.Files[0])
}

func TestSuppressResolvesAgainstBase(t *testing.T) {
	root := t.TempDir()
	path := write(t, root, "proj/a.py", "x\n")

	_, err := New(Options{Root: root, Base: filepath.Join(root, "proj")}).Suppress(context.Background(), diag.Batch{
		{Path: "a.py", Line: 1, Code: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, "# fixme[4]\nx\n", read(t, path))

	_, err = New(Options{Root: filepath.Join(root, "proj"), Base: root}).Suppress(context.Background(), diag.Batch{
		{Path: "other.py", Line: 1, Code: 4},
	})
	assert.ErrorIs(t, err, ErrOutsideRoot)
}

func TestSuppressIsIdempotent(t *testing.T) {
	root := t.TempDir()
	path := write(t, root, "a.py", "x = 1\ny = z\n")
	batch := diag.Batch{{Path: "a.py", Line: 2, Code: 10, Message: "bad"}}

	eng := New(Options{Root: root})
	_, err := eng.Suppress(context.Background(), batch)
	require.NoError(t, err)
	once := read(t, path)

	// The annotation shifted the target down by one line.
	report, err := eng.Suppress(context.Background(), diag.Batch{{Path: "a.py", Line: 3, Code: 10, Message: "bad"}})
	require.NoError(t, err)
	assert.Equal(t, once, read(t, path))
	assert.False(t, report.Changed())

	report, err = eng.Suppress(context.Background(), diag.Batch{
		{Path: "a.py", Line: 3, Code: 10, Message: "bad"},
		{Path: "a.py", Line: 3, Code: 11, Message: "worse"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Annotations())
	assert.Equal(t, "x = 1\n# fixme[10]: bad\n# fixme[11]: worse\ny = z\n", read(t, path))
}

func TestSuppressPreservesCRLFAndMode(t *testing.T) {
	root := t.TempDir()
	path := write(t, root, "w.py", "a = 1\r\n  b = 2\r\nc = 3")
	require.NoError(t, os.Chmod(path, 0o755))

	_, err := New(Options{Root: root}).Suppress(context.Background(), diag.Batch{
		{Path: "w.py", Line: 2, Code: 3, Message: "m"},
		{Path: "w.py", Line: 3, Code: 4, Message: "n"},
	})
	require.NoError(t, err)

	assert.Equal(t, "a = 1\r\n  # fixme[3]: m\r\n  b = 2\r\n# fixme[4]: n\r\nc = 3", read(t, path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

func TestSuppressWrapsLongMessages(t *testing.T) {
	root := t.TempDir()
	path := write(t, root, "a.py", "value = compute()\n")

	_, err := New(Options{Root: root, MaxLineLength: 30}).Suppress(context.Background(), diag.Batch{
		{Path: "a.py", Line: 1, Code: 16, Message: "Incompatible return type expected int got str"},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(read(t, path), "\n"), "\n")
	require.Greater(t, len(lines), 2)
	assert.True(t, strings.HasPrefix(lines[0], "# fixme[16]: Incompatible"))
	for _, l := range lines[:len(lines)-1] {
		assert.LessOrEqual(t, len(l), 30, l)
		assert.True(t, strings.HasPrefix(l, "#"), l)
	}
	assert.True(t, strings.HasPrefix(lines[1], "#  "))
	assert.Equal(t, "value = compute()", lines[len(lines)-1])
}

func TestSuppressTruncatesLongMessages(t *testing.T) {
	root := t.TempDir()
	path := write(t, root, "a.py", "value = compute()\n")

	_, err := New(Options{Root: root, MaxLineLength: 30, Truncate: true}).Suppress(context.Background(), diag.Batch{
		{Path: "a.py", Line: 1, Code: 16, Message: "Incompatible return type expected int got str"},
	})
	require.NoError(t, err)

	lines := strings.Split(read(t, path), "\n")
	assert.Equal(t, "# fixme[16]: Incompatible r...", lines[0])
	assert.LessOrEqual(t, len(lines[0]), 30)
	assert.Equal(t, "value = compute()", lines[1])
}

func TestSuppressErrors(t *testing.T) {
	root := t.TempDir()
	first := write(t, root, "first.py", "a\n")
	write(t, root, "short.py", "a\n")

	eng := New(Options{Root: root})
	report, err := eng.Suppress(context.Background(), diag.Batch{
		{Path: "first.py", Line: 1, Code: 1},
		{Path: "short.py", Line: 5, Code: 1},
		{Path: "never.py", Line: 1, Code: 1},
	})
	var writeErr *SuppressionWriteError
	require.True(t, errors.As(err, &writeErr))
	assert.Equal(t, "short.py", writeErr.Path)
	assert.Equal(t, 5, writeErr.Line)
	assert.ErrorIs(t, err, ErrLineOutOfRange)
	assert.Equal(t, "# fixme[1]\na\n", read(t, first))
	assert.Len(t, report.Files, 1)

	_, err = eng.Suppress(context.Background(), diag.Batch{{Path: "../escape.py", Line: 1, Code: 1}})
	assert.ErrorIs(t, err, ErrOutsideRoot)

	_, err = eng.Suppress(context.Background(), diag.Batch{{Path: "missing.py", Line: 1, Code: 1}})
	require.True(t, errors.As(err, &writeErr))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSuppressEmptyBatch(t *testing.T) {
	report, err := New(Options{Root: t.TempDir()}).Suppress(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, report.Files)
}

func TestCommentToken(t *testing.T) {
	assert.Equal(t, "#", CommentToken("a.py"))
	assert.Equal(t, "//", CommentToken("dir/b.TS"))
	assert.Equal(t, "--", CommentToken("q.sql"))
	assert.Equal(t, "#", CommentToken("Makefile"))
}
