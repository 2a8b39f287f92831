package collect

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ben-ranford/notices/internal/aggregate"
	"github.com/ben-ranford/notices/internal/testutil"
	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

const collectErrFmt = "collect: %v"

type fakeRunner struct {
	outputs map[string]string
	err     error
	calls   []string
}

func (f *fakeRunner) Run(_ context.Context, dir string, name string, args ...string) ([]byte, error) {
	command := strings.Join(append([]string{name}, args...), " ")
	f.calls = append(f.calls, dir+": "+command)
	if f.err != nil {
		return nil, f.err
	}
	output, ok := f.outputs[command]
	if !ok {
		return nil, &ToolError{Command: append([]string{name}, args...), Err: errors.New("unexpected command")}
	}
	return []byte(output), nil
}

func nullLogger() logrus.FieldLogger {
	logger, _ := logtest.NewNullLogger()
	return logger
}

func TestRegistryOrderAndDuplicates(t *testing.T) {
	registry := DefaultRegistry(&fakeRunner{}, nullLogger())
	ids := make([]string, 0, 2)
	for _, collector := range registry.Collectors() {
		ids = append(ids, collector.ID())
	}
	if diff := cmp.Diff([]string{"cargo", "pnpm"}, ids); diff != "" {
		t.Fatalf("unexpected collector order (-want +got):\n%s", diff)
	}
	if err := registry.Register(NewCargo(&fakeRunner{}, nullLogger())); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
	if err := registry.Register(nil); err == nil {
		t.Fatalf("expected nil collector to be rejected")
	}
	var empty *Registry
	if empty.Collectors() != nil {
		t.Fatalf("expected nil registry to have no collectors")
	}
}

func TestDetectManifests(t *testing.T) {
	dir := t.TempDir()
	cargo := NewCargo(&fakeRunner{}, nullLogger())
	pnpm := NewPnpm(&fakeRunner{}, nullLogger())

	for _, collector := range []Collector{cargo, pnpm} {
		ok, err := collector.Detect(dir)
		if err != nil || ok {
			t.Fatalf("%s: expected no detection in empty dir, got %v, %v", collector.ID(), ok, err)
		}
	}
	testutil.MustWriteFile(t, filepath.Join(dir, "Cargo.toml"), "[package]\nname = \"app\"\n")
	testutil.MustWriteFile(t, filepath.Join(dir, "pnpm-lock.yaml"), "lockfileVersion: '9.0'\n")
	for _, collector := range []Collector{cargo, pnpm} {
		ok, err := collector.Detect(dir)
		if err != nil || !ok {
			t.Fatalf("%s: expected detection, got %v, %v", collector.ID(), ok, err)
		}
	}
	if cargo.Manifest() != "Cargo.toml" || pnpm.Manifest() != "pnpm-lock.yaml" {
		t.Fatalf("unexpected manifest names")
	}
}

func TestCargoCollect(t *testing.T) {
	metadata := `{
  "packages": [
    {"name": "app", "version": "0.1.0", "license": null, "source": null, "manifest_path": "/work/app/Cargo.toml", "authors": []},
    {"name": "serde", "version": "1.0.200", "license": "MIT OR Apache-2.0", "source": "registry+https://github.com/rust-lang/crates.io-index", "manifest_path": "/registry/serde-1.0.200/Cargo.toml", "authors": ["Erick Tryzelaar", "David Tolnay"]},
    {"name": "itoa", "version": "1.0.11", "license": "MIT OR Apache-2.0", "source": "sparse+https://index.crates.io/", "manifest_path": "/registry/itoa-1.0.11/Cargo.toml", "authors": []},
    {"name": "forked", "version": "0.3.0", "license": null, "source": "git+https://github.com/example/forked?branch=main#abc123", "manifest_path": "/git/forked/Cargo.toml", "authors": ["Someone"]}
  ],
  "workspace_members": []
}`
	runner := &fakeRunner{outputs: map[string]string{"cargo metadata --format-version 1": metadata}}
	packages, err := NewCargo(runner, nullLogger()).Collect(context.Background(), "/work/app")
	if err != nil {
		t.Fatalf(collectErrFmt, err)
	}

	license := "MIT OR Apache-2.0"
	want := []aggregate.Package{
		{
			Ecosystem:  "cargo",
			Name:       "serde",
			Version:    "1.0.200",
			License:    &license,
			SourceDir:  "/registry/serde-1.0.200",
			PackageURL: "https://crates.io/crates/serde/1.0.200",
			Authors:    []string{"Erick Tryzelaar", "David Tolnay"},
		},
		{
			Ecosystem:  "cargo",
			Name:       "itoa",
			Version:    "1.0.11",
			License:    &license,
			SourceDir:  "/registry/itoa-1.0.11",
			PackageURL: "https://crates.io/crates/itoa/1.0.11",
			Authors:    []string{},
		},
		{
			Ecosystem:  "cargo",
			Name:       "forked",
			Version:    "0.3.0",
			SourceDir:  "/git/forked",
			PackageURL: "git+https://github.com/example/forked?branch=main#abc123",
			Authors:    []string{"Someone"},
		},
	}
	if diff := cmp.Diff(want, packages); diff != "" {
		t.Fatalf("unexpected packages (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"/work/app: cargo metadata --format-version 1"}, runner.calls); diff != "" {
		t.Fatalf("unexpected runner calls (-want +got):\n%s", diff)
	}
}

func TestCargoCollectErrors(t *testing.T) {
	toolErr := &ToolError{Command: []string{"cargo", "metadata"}, Err: exec.ErrNotFound}
	if _, err := NewCargo(&fakeRunner{err: toolErr}, nullLogger()).Collect(context.Background(), "."); !errors.Is(err, ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
	runner := &fakeRunner{outputs: map[string]string{"cargo metadata --format-version 1": "not json"}}
	if _, err := NewCargo(runner, nullLogger()).Collect(context.Background(), "."); err == nil || !strings.Contains(err.Error(), "parse cargo metadata output") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func writePnpmProject(t *testing.T) (string, string) {
	t.Helper()
	project := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(project, "pnpm-lock.yaml"), "lockfileVersion: '9.0'\nimporters:\n  .:\n    dependencies: {}\n")
	store := filepath.Join(project, "node_modules", ".pnpm")
	zod := filepath.Join(store, "zod@3.23.8", "node_modules", "zod")
	react := filepath.Join(store, "react@18.3.1", "node_modules", "react")
	legacy := filepath.Join(store, "legacy@0.0.1", "node_modules", "legacy")
	vitest := filepath.Join(store, "vitest@1.6.0", "node_modules", "vitest")
	testutil.WritePackageJSON(t, zod, "zod", "3.23.8", "MIT")
	testutil.WritePackageJSON(t, react, "react", "18.3.1", map[string]string{"type": "MIT"})
	testutil.MustWriteFile(t, filepath.Join(legacy, "package.json"), `{"name":"legacy","version":"0.0.1","licenses":[{"type":"MIT"},{"type":"Apache-2.0"}]}`)
	testutil.WritePackageJSON(t, vitest, "vitest", "1.6.0", nil)

	list := fmt.Sprintf(`[{
  "name": "web",
  "dependencies": {
    "zod": {"version": "3.23.8", "path": %q},
    "react": {"version": "18.3.1", "path": %q},
    "legacy": {"version": "0.0.1", "path": %q}
  },
  "devDependencies": {
    "vitest": {"version": "1.6.0", "path": %q}
  }
}]`, zod, react, legacy, vitest)
	return project, list
}

func TestPnpmCollect(t *testing.T) {
	project, list := writePnpmProject(t)
	runner := &fakeRunner{outputs: map[string]string{"pnpm list --json": list}}
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	packages, err := NewPnpm(runner, logger).Collect(context.Background(), project)
	if err != nil {
		t.Fatalf(collectErrFmt, err)
	}

	type summary struct {
		Name, Version, License, URL string
	}
	got := make([]summary, 0, len(packages))
	for _, pkg := range packages {
		license := "<none>"
		if pkg.License != nil {
			license = *pkg.License
		}
		if pkg.Ecosystem != "pnpm" || !strings.HasSuffix(pkg.SourceDir, pkg.Name) {
			t.Fatalf("unexpected descriptor %#v", pkg)
		}
		got = append(got, summary{Name: pkg.Name, Version: pkg.Version, License: license, URL: pkg.PackageURL})
	}
	want := []summary{
		{Name: "legacy", Version: "0.0.1", License: "(MIT OR Apache-2.0)", URL: "https://www.npmjs.com/package/legacy/v/0.0.1"},
		{Name: "react", Version: "18.3.1", License: "MIT", URL: "https://www.npmjs.com/package/react/v/18.3.1"},
		{Name: "zod", Version: "3.23.8", License: "MIT", URL: "https://www.npmjs.com/package/zod/v/3.23.8"},
		{Name: "vitest", Version: "1.6.0", License: "<none>", URL: "https://www.npmjs.com/package/vitest/v/1.6.0"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected packages (-want +got):\n%s", diff)
	}

	var header *logrus.Entry
	for _, entry := range hook.AllEntries() {
		if entry.Message == "read pnpm lockfile" {
			header = entry
		}
	}
	if header == nil || header.Data["lockfile_version"] != "9.0" || header.Data["importers"] != 1 {
		t.Fatalf("expected lockfile header debug entry, got %#v", hook.AllEntries())
	}
}

func TestPnpmCollectMissingPackageJSON(t *testing.T) {
	project := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(project, "pnpm-lock.yaml"), "lockfileVersion: '9.0'\n")
	missing := filepath.Join(project, "node_modules", "ghost")
	runner := &fakeRunner{outputs: map[string]string{"pnpm list --json": fmt.Sprintf(`[{"dependencies":{"ghost":{"path":%q}}}]`, missing)}}

	_, err := NewPnpm(runner, nullLogger()).Collect(context.Background(), project)
	if err == nil || !strings.Contains(err.Error(), "package.json") {
		t.Fatalf("expected package.json read error, got %v", err)
	}
}

func TestPnpmCollectMalformedLockfile(t *testing.T) {
	project := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(project, "pnpm-lock.yaml"), "lockfileVersion: [unterminated\n")
	_, err := NewPnpm(&fakeRunner{}, nullLogger()).Collect(context.Background(), project)
	if err == nil || !strings.Contains(err.Error(), "parse") {
		t.Fatalf("expected lockfile parse error, got %v", err)
	}
}

func TestManifestLicenseVariants(t *testing.T) {
	cases := []struct {
		manifest string
		want     string
	}{
		{`{"license":"ISC"}`, "ISC"},
		{`{"license":{"type":"BSD-3-Clause","url":"x"}}`, "BSD-3-Clause"},
		{`{"licenses":[{"type":"MIT"}]}`, "MIT"},
		{`{"licenses":["MIT","ISC"]}`, "(MIT OR ISC)"},
		{`{"license":""}`, ""},
		{`{"license":42}`, ""},
		{`{}`, ""},
		{`{"license":"  Apache-2.0 ","licenses":["ignored"]}`, "Apache-2.0"},
	}
	for _, tc := range cases {
		dir := t.TempDir()
		testutil.MustWriteFile(t, filepath.Join(dir, "package.json"), tc.manifest)
		pkg, err := readNodePackage(dir)
		if err != nil {
			t.Fatalf("read %s: %v", tc.manifest, err)
		}
		got := ""
		if pkg.License != nil {
			got = *pkg.License
		}
		if got != tc.want {
			t.Fatalf("license of %s: expected %q, got %q", tc.manifest, tc.want, got)
		}
	}
}

func TestExecRunner(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	runner := ExecRunner{}
	dir := t.TempDir()

	output, err := runner.Run(context.Background(), dir, "sh", "-c", "pwd")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	resolved, _ := filepath.EvalSymlinks(dir)
	if got := strings.TrimSpace(string(output)); got != dir && got != resolved {
		t.Fatalf("expected command to run in %s, got %s", dir, got)
	}

	_, err = runner.Run(context.Background(), dir, "sh", "-c", "echo partial; echo boom >&2; exit 3")
	var toolErr *ToolError
	if !errors.As(err, &toolErr) || !errors.Is(err, ErrExternalTool) {
		t.Fatalf("expected ToolError, got %v", err)
	}
	if toolErr.Stderr != "boom" || !strings.Contains(err.Error(), "sh -c") {
		t.Fatalf("unexpected tool error %q", err.Error())
	}

	_, err = runner.Run(context.Background(), dir, "definitely-not-a-real-tool-xyz")
	if !errors.Is(err, ErrExternalTool) || !errors.Is(err, exec.ErrNotFound) {
		t.Fatalf("expected missing tool error, got %v", err)
	}

	_, err = runner.Run(testutil.CanceledContext(), dir, "sh", "-c", "sleep 5")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled context error, got %v", err)
	}
}
