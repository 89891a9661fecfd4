package project

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upgrade/internal/command"
	"upgrade/internal/diag"
)

func newConfigured(t *testing.T, content string, runner command.Runner) *Configuration {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".upgrade.toml"), content)
	cfg, err := Resolver{StartDir: root, Runner: runner}.Resolve(context.Background())
	require.NoError(t, err)
	return cfg
}

const analyzerTOML = "[analyzer]\ncommand = [\"pyre\", \"check\"]\nonly_code_flag = \"--only\"\n"

func TestGetErrorsForwardsFilter(t *testing.T) {
	var got command.Spec
	runner := command.RunnerFunc(func(_ context.Context, spec command.Spec) (command.Result, error) {
		got = spec
		return command.Result{Stdout: []byte(`[{"path":"a.py","line":3,"code":10,"description":"bad"}]`), ExitCode: 1}, nil
	})
	cfg := newConfigured(t, analyzerTOML, runner)

	batch, err := cfg.GetErrors(context.Background(), diag.Only(10))
	require.NoError(t, err)
	assert.Equal(t, "pyre", got.Name)
	assert.Equal(t, []string{"check", "--only", "10"}, got.Args)
	assert.Equal(t, cfg.Root, got.Dir)

	require.Len(t, batch, 1)
	assert.Equal(t, filepath.Join(cfg.Root, "a.py"), batch[0].Path)
	assert.Equal(t, diag.Code(10), batch[0].Code)
}

func TestGetErrorsNoFilterDoesNotForward(t *testing.T) {
	var got command.Spec
	runner := command.RunnerFunc(func(_ context.Context, spec command.Spec) (command.Result, error) {
		got = spec
		return command.Result{Stdout: []byte(`[]`)}, nil
	})
	cfg := newConfigured(t, analyzerTOML, runner)

	batch, err := cfg.GetErrors(context.Background(), diag.NoFilter())
	require.NoError(t, err)
	assert.Empty(t, batch)
	assert.Equal(t, []string{"check"}, got.Args)
	assert.Equal(t, []string{"pyre", "check"}, cfg.Config.Analyzer.Command)
}

func TestGetErrorsAppliesTimeout(t *testing.T) {
	var got command.Spec
	runner := command.RunnerFunc(func(_ context.Context, spec command.Spec) (command.Result, error) {
		got = spec
		return command.Result{Stdout: []byte(`[]`)}, nil
	})
	cfg := newConfigured(t, analyzerTOML+"timeout = \"5s\"\n", runner)

	_, err := cfg.GetErrors(context.Background(), diag.NoFilter())
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, got.Timeout)
}

func TestGetErrorsFailures(t *testing.T) {
	tests := []struct {
		name     string
		result   command.Result
		err      error
		wantExit int
	}{
		{"unexpected exit", command.Result{ExitCode: 2, Stderr: []byte("crash")}, nil, 2},
		{"did not start", command.Result{}, errors.New("exec: not found"), -1},
		{"garbage output", command.Result{Stdout: []byte("Traceback")}, nil, 0},
		{"empty output", command.Result{}, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := command.RunnerFunc(func(context.Context, command.Spec) (command.Result, error) {
				return tt.result, tt.err
			})
			cfg := newConfigured(t, analyzerTOML, runner)

			_, err := cfg.GetErrors(context.Background(), diag.NoFilter())
			var failed *AnalysisFailedError
			require.True(t, errors.As(err, &failed), "got %v", err)
			assert.Equal(t, tt.wantExit, failed.ExitCode)
		})
	}
}

func TestGetErrorsAbsolutePathKept(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "b.py")
	runner := command.RunnerFunc(func(context.Context, command.Spec) (command.Result, error) {
		return command.Result{Stdout: []byte(`[{"path":"` + filepath.ToSlash(abs) + `","line":1,"code":5}]`)}, nil
	})
	cfg := newConfigured(t, analyzerTOML, runner)

	batch, err := cfg.GetErrors(context.Background(), diag.NoFilter())
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, filepath.ToSlash(abs), filepath.ToSlash(batch[0].Path))
}

func TestResolveOverrideAndErrors(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".upgrade.toml"), analyzerTOML)

	cfg, err := Resolver{StartDir: root, AnalyzerOverride: []string{"mypy", "."}}.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"mypy", "."}, cfg.Config.Analyzer.Command)

	_, err = Resolver{StartDir: t.TempDir()}.Resolve(context.Background())
	var notFound *ConfigurationNotFoundError
	assert.True(t, errors.As(err, &notFound))

	bad := t.TempDir()
	writeFile(t, filepath.Join(bad, ".upgrade.toml"), "[format]\n")
	_, err = Resolver{StartDir: bad}.Resolve(context.Background())
	var failed *AnalysisFailedError
	assert.True(t, errors.As(err, &failed))
}
