// Package workspace resolves the project directory and checks that its
// package manifests and lockfiles agree.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
)

// NormalizeProjectPath returns the absolute form of path, defaulting to the
// working directory. The path must name an existing directory.
func NormalizeProjectPath(path string) (string, error) {
	if path == "" {
		path = "."
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("project directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("project path %s is not a directory", abs)
	}
	return abs, nil
}
