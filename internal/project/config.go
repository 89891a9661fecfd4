package project

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"upgrade/internal/command"
)

// Defaults applied when the configuration leaves a value out.
const (
	DefaultMarker        = "fixme"
	DefaultMaxLineLength = 88
)

// DefaultOKExitCodes are analyzer exit codes that still carry a usable report.
// Most type checkers exit 1 when they found errors.
var DefaultOKExitCodes = []int{0, 1}

// Config mirrors the configuration file.
type Config struct {
	Analyzer AnalyzerConfig `toml:"analyzer" yaml:"analyzer"`
	Format   FormatConfig   `toml:"format" yaml:"format"`
	Suppress SuppressConfig `toml:"suppress" yaml:"suppress"`
}

type AnalyzerConfig struct {
	Command      []string `toml:"command" yaml:"command"`
	OnlyCodeFlag string   `toml:"only_code_flag,omitempty" yaml:"only_code_flag,omitempty"`
	OKExitCodes  []int    `toml:"ok_exit_codes,omitempty" yaml:"ok_exit_codes,omitempty"`
	Timeout      string   `toml:"timeout,omitempty" yaml:"timeout,omitempty"`
}

type FormatConfig struct {
	Command []string `toml:"command,omitempty" yaml:"command,omitempty"`
}

type SuppressConfig struct {
	Marker        string `toml:"marker,omitempty" yaml:"marker,omitempty"`
	MaxLineLength *int   `toml:"max_line_length,omitempty" yaml:"max_line_length,omitempty"`
}

// Configuration is a loaded configuration file.
type Configuration struct {
	Path   string
	Root   string
	Config Config

	timeout time.Duration
	runner  command.Runner
}

// Load reads and validates the configuration at path. The format follows the
// file extension.
func Load(path string) (*Configuration, error) {
	var (
		cfg Config
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		cfg, err = loadYAML(path)
	default:
		cfg, err = loadTOML(path)
	}
	if err != nil {
		return nil, err
	}

	timeout, err := cfg.Analyzer.parseTimeout()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &Configuration{
		Path:    path,
		Root:    filepath.Dir(path),
		Config:  cfg,
		timeout: timeout,
	}, nil
}

func loadTOML(path string) (Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("analyzer") {
		return Config{}, fmt.Errorf("%s: missing [analyzer]", path)
	}
	if !meta.IsDefined("analyzer", "command") || len(cfg.Analyzer.Command) == 0 {
		return Config{}, fmt.Errorf("%s: missing [analyzer].command", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

func loadYAML(path string) (Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path comes from discovery
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%s: failed to parse YAML: %w", path, err)
	}
	if len(cfg.Analyzer.Command) == 0 {
		return Config{}, fmt.Errorf("%s: missing analyzer.command", path)
	}
	return cfg, nil
}

func (a AnalyzerConfig) parseTimeout() (time.Duration, error) {
	if strings.TrimSpace(a.Timeout) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(a.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid [analyzer].timeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid [analyzer].timeout: negative duration %s", d)
	}
	return d, nil
}

// Marker returns the suppression marker, defaulting to DefaultMarker.
func (c *Configuration) Marker() string {
	if m := strings.TrimSpace(c.Config.Suppress.Marker); m != "" {
		return m
	}
	return DefaultMarker
}

// MaxLineLength returns the configured limit, or DefaultMaxLineLength.
func (c *Configuration) MaxLineLength() int {
	if c.Config.Suppress.MaxLineLength != nil {
		return *c.Config.Suppress.MaxLineLength
	}
	return DefaultMaxLineLength
}

// FormatCommand returns the formatter command line, or nil when none is configured.
func (c *Configuration) FormatCommand() []string {
	return c.Config.Format.Command
}

// Timeout returns the analyzer timeout; 0 means none.
func (c *Configuration) Timeout() time.Duration {
	return c.timeout
}
