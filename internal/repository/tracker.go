package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"maps"
	"os"
	"slices"
)

// Fingerprint maps slash-separated paths, relative to the tracker root, to a
// content digest.
type Fingerprint map[string]string

// Equal reports whether both fingerprints describe the same tree state.
func (f Fingerprint) Equal(other Fingerprint) bool {
	return maps.Equal(f, other)
}

// Changed lists the paths whose digest differs between f and other, sorted.
func (f Fingerprint) Changed(other Fingerprint) []string {
	var out []string
	for path, sum := range f {
		if other[path] != sum {
			out = append(out, path)
		}
	}
	for path := range other {
		if _, ok := f[path]; !ok {
			out = append(out, path)
		}
	}
	slices.Sort(out)
	return out
}

// Tracker captures the state of a tree so a formatter run can be compared
// against it.
type Tracker interface {
	Fingerprint(ctx context.Context) (Fingerprint, error)
}

// deletedDigest marks a path that git reports as deleted.
const deletedDigest = "deleted"

func hashFile(path string) (string, error) {
	f, err := os.Open(path) // #nosec G304 - paths come from the tracked tree
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
