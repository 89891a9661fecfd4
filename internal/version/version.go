// Package version holds build metadata for the upgrade CLI.
// The variables are overridden at build time via -ldflags.
package version

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

var (
	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// GitMessage is an optional git commit message.
	GitMessage = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var (
	majorColor = color.New(color.FgYellow, color.Bold)
	minorColor = color.New(color.FgGreen, color.Bold)
	patchColor = color.New(color.FgBlue, color.Bold)
)

// Info is the serialisable form of the build metadata.
type Info struct {
	Version    string `json:"version"`
	GitCommit  string `json:"git_commit,omitempty"`
	GitMessage string `json:"git_message,omitempty"`
	BuildDate  string `json:"build_date,omitempty"`
}

// Current returns the metadata of this binary.
func Current() Info {
	return Info{
		Version:    Version,
		GitCommit:  GitCommit,
		GitMessage: GitMessage,
		BuildDate:  BuildDate,
	}
}

// Colored renders the version with each numeric component highlighted.
// Colour output follows color.NoColor.
func Colored(v string) string {
	core, suffix, _ := strings.Cut(v, "-")
	parts := strings.SplitN(core, ".", 3)
	if len(parts) != 3 {
		return v
	}
	out := majorColor.Sprint(parts[0]) + "." + minorColor.Sprint(parts[1]) + "." + patchColor.Sprint(parts[2])
	if suffix != "" {
		out += "-" + suffix
	}
	return out
}

// ShortCommit returns the first n characters of the commit hash.
func (i Info) ShortCommit(n int) string {
	if n > 0 && len(i.GitCommit) > n {
		return i.GitCommit[:n]
	}
	return i.GitCommit
}

// String renders "upgrade <version> (<commit>, <date>)".
func (i Info) String() string {
	var extra []string
	if c := i.ShortCommit(12); c != "" {
		extra = append(extra, c)
	}
	if i.BuildDate != "" {
		extra = append(extra, i.BuildDate)
	}
	if len(extra) == 0 {
		return fmt.Sprintf("upgrade %s", i.Version)
	}
	return fmt.Sprintf("upgrade %s (%s)", i.Version, strings.Join(extra, ", "))
}
