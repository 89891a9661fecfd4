package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestFindConfigFileWalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".upgrade.toml"), "[analyzer]\ncommand = [\"true\"]\n")
	nested := filepath.Join(root, "src", "pkg", "deep")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	path, ok, err := FindConfigFile(nested)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, ".upgrade.toml"), path)
}

func TestFindConfigFileNearestWins(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".upgrade.toml"), "")
	writeFile(t, filepath.Join(root, "sub", ".upgrade.yaml"), "")

	path, ok, err := FindConfigFile(filepath.Join(root, "sub"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "sub", ".upgrade.yaml"), path)
}

func TestFindConfigFileTOMLBeforeYAML(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".upgrade.yaml"), "")
	writeFile(t, filepath.Join(root, ".upgrade.toml"), "")

	path, _, err := FindConfigFile(root)
	require.NoError(t, err)
	assert.Equal(t, ".upgrade.toml", filepath.Base(path))
}

func TestFindProjectConfigurationNotFound(t *testing.T) {
	dir := t.TempDir()
	_, err := FindProjectConfiguration(dir)
	require.Error(t, err)

	var notFound *ConfigurationNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, dir, notFound.StartDir)
	assert.Contains(t, err.Error(), "upgrade init")
}
