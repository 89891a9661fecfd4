package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ConfigFileNames lists the accepted configuration file names in lookup order
// within one directory.
var ConfigFileNames = []string{".upgrade.toml", ".upgrade.yaml"}

// FindConfigFile walks up from startDir to locate the nearest configuration file.
func FindConfigFile(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		for _, name := range ConfigFileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, true, nil
			} else if !errors.Is(err, os.ErrNotExist) {
				return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// FindProjectConfiguration returns the nearest configuration file or a
// *ConfigurationNotFoundError.
func FindProjectConfiguration(startDir string) (string, error) {
	path, ok, err := FindConfigFile(startDir)
	if err != nil {
		return "", err
	}
	if !ok {
		abs, absErr := filepath.Abs(startDir)
		if absErr != nil {
			abs = startDir
		}
		return "", &ConfigurationNotFoundError{StartDir: abs}
	}
	return path, nil
}
