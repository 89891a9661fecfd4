package version

import (
	"testing"

	"github.com/fatih/color"
)

func TestCurrentReflectsOverrides(t *testing.T) {
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	t.Cleanup(func() { Version, GitCommit, BuildDate = origVersion, origCommit, origDate })

	Version = "1.2.3"
	GitCommit = "1234567890abcdef1234"
	BuildDate = "2024-01-15T10:30:00Z"

	info := Current()
	if info.Version != "1.2.3" {
		t.Fatalf("Version = %q", info.Version)
	}
	if got := info.String(); got != "upgrade 1.2.3 (1234567890ab, 2024-01-15T10:30:00Z)" {
		t.Fatalf("String() = %q", got)
	}
	if got := info.ShortCommit(0); got != GitCommit {
		t.Fatalf("ShortCommit(0) = %q", got)
	}
}

func TestStringWithoutMetadata(t *testing.T) {
	info := Info{Version: "0.1.0-dev"}
	if got := info.String(); got != "upgrade 0.1.0-dev" {
		t.Fatalf("String() = %q", got)
	}
}

func TestColored(t *testing.T) {
	orig := color.NoColor
	t.Cleanup(func() { color.NoColor = orig })

	color.NoColor = true
	if got := Colored("0.1.0-dev"); got != "0.1.0-dev" {
		t.Fatalf("Colored without colour = %q", got)
	}
	if got := Colored("nightly"); got != "nightly" {
		t.Fatalf("Colored(non-semver) = %q", got)
	}

	color.NoColor = false
	if got := Colored("1.2.3"); got == "1.2.3" {
		t.Fatalf("expected escape sequences, got %q", got)
	}
}
