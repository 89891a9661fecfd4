package suppress

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/unicode/norm"

	"upgrade/internal/diag"
)

const ellipsis = "..."

var slashTokens = map[string]bool{
	".c": true, ".h": true, ".cc": true, ".cpp": true, ".cxx": true, ".hpp": true, ".hh": true,
	".cs": true, ".go": true, ".js": true, ".jsx": true, ".mjs": true, ".cjs": true,
	".ts": true, ".tsx": true, ".mts": true, ".cts": true, ".rs": true, ".java": true,
	".kt": true, ".kts": true, ".swift": true, ".scala": true, ".sc": true,
	".m": true, ".mm": true, ".dart": true, ".php": true,
}

var dashTokens = map[string]bool{
	".sql": true, ".lua": true, ".hs": true, ".lhs": true, ".elm": true, ".ada": true, ".adb": true,
}

// CommentToken returns the line comment token for path, chosen by extension.
func CommentToken(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case slashTokens[ext]:
		return "//"
	case dashTokens[ext]:
		return "--"
	default:
		return "#"
	}
}

// normalizeMessage applies NFC and collapses runs of whitespace.
func normalizeMessage(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// displayWidth counts tabs as four columns.
func displayWidth(s string) int {
	return runewidth.StringWidth(strings.ReplaceAll(s, "\t", "    "))
}

type annotation struct {
	indent  string
	token   string
	marker  string
	codes   []diag.Code
	message string
}

func (a annotation) header() string {
	var b strings.Builder
	b.WriteString(a.indent)
	b.WriteString(a.token)
	b.WriteByte(' ')
	b.WriteString(a.marker)
	b.WriteByte('[')
	for i, c := range a.codes {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Itoa(int(c)))
	}
	b.WriteByte(']')
	return b.String()
}

// render lays the annotation out under maxWidth display columns (0 = no
// limit). Long messages are truncated or wrapped onto continuation lines.
// The header is never split so the codes stay machine readable.
func (a annotation) render(maxWidth int, truncate bool) []string {
	head := a.header()
	if a.message == "" {
		return []string{head}
	}
	full := head + ": " + a.message
	if maxWidth <= 0 || displayWidth(full) <= maxWidth {
		return []string{full}
	}

	if truncate {
		budget := maxWidth - displayWidth(head+": ")
		if budget <= len(ellipsis) {
			return []string{head}
		}
		return []string{head + ": " + runewidth.Truncate(a.message, budget, ellipsis)}
	}

	cont := a.indent + a.token + "  "
	var lines []string
	current := head + ":"
	for _, word := range strings.Fields(a.message) {
		if displayWidth(current+" "+word) <= maxWidth {
			current += " " + word
			continue
		}
		lines = append(lines, current)
		current = cont + word
	}
	return append(lines, current)
}

// existingCodes collects the codes listed by marker annotations in the comment
// block directly above lines[target].
func existingCodes(lines []string, target int, token string, re *regexp.Regexp) map[diag.Code]bool {
	found := make(map[diag.Code]bool)
	for i := target - 1; i >= 0; i-- {
		text := strings.TrimSpace(strings.TrimSuffix(lines[i], "\r"))
		if !strings.HasPrefix(text, token) {
			break
		}
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		for _, part := range strings.Split(m[1], ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err == nil && n >= 0 {
				found[diag.Code(n)] = true
			}
		}
	}
	return found
}

func markerPattern(token, marker string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(token) + `\s*` + regexp.QuoteMeta(marker) + `\[([0-9,\s]*)\]`)
}

// leadingIndent returns the run of spaces and tabs that starts line.
func leadingIndent(line string) string {
	end := strings.IndexFunc(line, func(r rune) bool { return r != ' ' && r != '\t' })
	if end < 0 {
		return strings.TrimSuffix(line, "\r")
	}
	return line[:end]
}
