package project

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTOML(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, ".upgrade.toml")
	writeFile(t, path, `
[analyzer]
command = ["pyre", "--output=json", "check"]
only_code_flag = "--only-code"
ok_exit_codes = [0, 1, 2]
timeout = "90s"

[format]
command = ["black", "."]

[suppress]
marker = "pyre-fixme"
max_line_length = 0
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, root, cfg.Root)
	assert.Equal(t, []string{"pyre", "--output=json", "check"}, cfg.Config.Analyzer.Command)
	assert.Equal(t, "--only-code", cfg.Config.Analyzer.OnlyCodeFlag)
	assert.Equal(t, []int{0, 1, 2}, cfg.okExitCodes())
	assert.Equal(t, 90*time.Second, cfg.Timeout())
	assert.Equal(t, []string{"black", "."}, cfg.FormatCommand())
	assert.Equal(t, "pyre-fixme", cfg.Marker())
	assert.Equal(t, 0, cfg.MaxLineLength())
}

func TestLoadDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".upgrade.toml")
	writeFile(t, path, "[analyzer]\ncommand = [\"mypy\"]\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultMarker, cfg.Marker())
	assert.Equal(t, DefaultMaxLineLength, cfg.MaxLineLength())
	assert.Equal(t, DefaultOKExitCodes, cfg.okExitCodes())
	assert.Nil(t, cfg.FormatCommand())
	assert.Zero(t, cfg.Timeout())
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".upgrade.yaml")
	writeFile(t, path, `
analyzer:
  command: [mypy, --output, json]
format:
  command: [ruff, format]
suppress:
  marker: type-ignore
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"mypy", "--output", "json"}, cfg.Config.Analyzer.Command)
	assert.Equal(t, []string{"ruff", "format"}, cfg.FormatCommand())
	assert.Equal(t, "type-ignore", cfg.Marker())
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{"no analyzer", ".upgrade.toml", "[format]\ncommand = [\"black\"]\n", "missing [analyzer]"},
		{"no command", ".upgrade.toml", "[analyzer]\nonly_code_flag = \"-c\"\n", "missing [analyzer].command"},
		{"unknown key", ".upgrade.toml", "[analyzer]\ncommand = [\"x\"]\ncolour = true\n", "unknown keys"},
		{"bad toml", ".upgrade.toml", "[analyzer\n", "failed to parse TOML"},
		{"bad timeout", ".upgrade.toml", "[analyzer]\ncommand = [\"x\"]\ntimeout = \"soon\"\n", "invalid [analyzer].timeout"},
		{"yaml unknown field", ".upgrade.yaml", "analyzer:\n  command: [x]\n  extra: 1\n", "failed to parse YAML"},
		{"yaml empty", ".upgrade.yaml", "", "missing analyzer.command"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			writeFile(t, path, tt.content)
			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
