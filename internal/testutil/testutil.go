package testutil

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func CanceledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

func MustWriteFile(t *testing.T, path string, content string) {
	MustWriteFileMode(t, path, content, 0o600)
}

func MustWriteFileMode(t *testing.T, path string, content string, perm os.FileMode) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteFiles writes every name -> content pair under dir in name order.
func WriteFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		MustWriteFile(t, filepath.Join(dir, name), files[name])
	}
}

func WriteTempFile(t *testing.T, filename string, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), filename)
	MustWriteFileMode(t, path, content, 0o644)
	return path
}

// WritePackageJSON writes a minimal npm manifest into dir. A nil license
// omits the field.
func WritePackageJSON(t *testing.T, dir, name, version string, license any) {
	t.Helper()
	manifest := map[string]any{"name": name, "version": version}
	if license != nil {
		manifest["license"] = license
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		t.Fatalf("marshal package.json: %v", err)
	}
	MustWriteFile(t, filepath.Join(dir, "package.json"), string(data)+"\n")
}

func Chdir(t *testing.T, dir string) {
	t.Helper()
	t.Chdir(dir)
}

func StringPtr(value string) *string {
	return &value
}
