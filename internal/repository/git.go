package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"

	"upgrade/internal/command"
)

// GitTracker fingerprints only what git considers modified: files in the
// working tree diff against HEAD plus untracked, non-ignored files. Root must
// be the work tree top level since git reports paths relative to it.
type GitTracker struct {
	Root   string
	Runner command.Runner
}

func (g GitTracker) Fingerprint(ctx context.Context) (Fingerprint, error) {
	diffOut, err := g.git(ctx, "diff", "--no-color", "--no-ext-diff", "HEAD")
	if err != nil {
		return nil, err
	}
	files, _, err := gitdiff.Parse(bytes.NewReader(diffOut))
	if err != nil {
		return nil, fmt.Errorf("parsing git diff: %w", err)
	}

	fp := make(Fingerprint, len(files))
	for _, f := range files {
		if f.IsDelete {
			fp[f.OldName] = deletedDigest
			continue
		}
		if err := g.hashInto(fp, f.NewName); err != nil {
			return nil, err
		}
	}

	untracked, err := g.git(ctx, "ls-files", "--others", "--exclude-standard", "-z")
	if err != nil {
		return nil, err
	}
	for _, name := range strings.Split(string(untracked), "\x00") {
		if name == "" {
			continue
		}
		if err := g.hashInto(fp, name); err != nil {
			return nil, err
		}
	}
	return fp, nil
}

func (g GitTracker) hashInto(fp Fingerprint, name string) error {
	sum, err := hashFile(filepath.Join(g.Root, filepath.FromSlash(name)))
	if errors.Is(err, os.ErrNotExist) {
		sum, err = deletedDigest, nil
	}
	if err != nil {
		return err
	}
	fp[name] = sum
	return nil
}

func (g GitTracker) git(ctx context.Context, args ...string) ([]byte, error) {
	res, err := runner(g.Runner).Run(ctx, command.Spec{Name: "git", Args: args, Dir: g.Root})
	if err != nil {
		return nil, fmt.Errorf("git %s: %w", args[0], err)
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("git %s: exit status %d: %s", args[0], res.ExitCode, command.Tail(res.Stderr, 500))
	}
	return res.Stdout, nil
}

// Toplevel returns the git work tree containing dir.
func Toplevel(ctx context.Context, r command.Runner, dir string) (string, error) {
	res, err := runner(r).Run(ctx, command.Spec{Name: "git", Args: []string{"rev-parse", "--show-toplevel"}, Dir: dir})
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("not a git work tree: %s", command.Tail(res.Stderr, 200))
	}
	return filepath.FromSlash(strings.TrimSpace(string(res.Stdout))), nil
}

// DetectTracker picks a GitTracker when root lies in a git work tree with at
// least one commit, and a SnapshotTracker otherwise.
func DetectTracker(ctx context.Context, r command.Runner, root string) Tracker {
	top, err := Toplevel(ctx, r, root)
	if err != nil {
		return SnapshotTracker{Root: root}
	}
	res, err := runner(r).Run(ctx, command.Spec{Name: "git", Args: []string{"rev-parse", "--verify", "-q", "HEAD"}, Dir: top})
	if err != nil || res.ExitCode != 0 {
		return SnapshotTracker{Root: root}
	}
	return GitTracker{Root: top, Runner: r}
}

func runner(r command.Runner) command.Runner {
	if r == nil {
		return command.ExecRunner{}
	}
	return r
}
