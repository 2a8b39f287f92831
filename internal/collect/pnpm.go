package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ben-ranford/notices/internal/aggregate"
	"github.com/ben-ranford/notices/internal/safeio"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	pnpmID       = "pnpm"
	pnpmLockfile = "pnpm-lock.yaml"
)

type Pnpm struct {
	runner Runner
	log    logrus.FieldLogger
}

func NewPnpm(runner Runner, log logrus.FieldLogger) *Pnpm {
	return &Pnpm{runner: runner, log: log}
}

func (p *Pnpm) ID() string       { return pnpmID }
func (p *Pnpm) Manifest() string { return pnpmLockfile }

func (p *Pnpm) Detect(projectPath string) (bool, error) {
	return fileExists(filepath.Join(projectPath, pnpmLockfile))
}

type pnpmLockHeader struct {
	LockfileVersion any                  `yaml:"lockfileVersion"`
	Importers       map[string]yaml.Node `yaml:"importers"`
}

type pnpmListItem struct {
	Name            string                 `json:"name"`
	Dependencies    map[string]pnpmListDep `json:"dependencies"`
	DevDependencies map[string]pnpmListDep `json:"devDependencies"`
}

type pnpmListDep struct {
	Version string `json:"version"`
	Path    string `json:"path"`
}

type packageJSON struct {
	Name     string            `json:"name"`
	Version  string            `json:"version"`
	License  json.RawMessage   `json:"license"`
	Licenses []json.RawMessage `json:"licenses"`
}

// Collect runs `pnpm list --json` and reads the package.json of every direct
// dependency and dev dependency it reports.
func (p *Pnpm) Collect(ctx context.Context, projectPath string) ([]aggregate.Package, error) {
	if err := p.logLockfileHeader(projectPath); err != nil {
		return nil, err
	}

	output, err := p.runner.Run(ctx, projectPath, "pnpm", "list", "--json")
	if err != nil {
		return nil, err
	}
	var items []pnpmListItem
	if err := json.Unmarshal(output, &items); err != nil {
		return nil, fmt.Errorf("parse pnpm list output: %w", err)
	}

	packages := make([]aggregate.Package, 0, 16)
	for _, item := range items {
		for _, deps := range []map[string]pnpmListDep{item.Dependencies, item.DevDependencies} {
			for _, name := range sortedKeys(deps) {
				pkg, err := readNodePackage(deps[name].Path)
				if err != nil {
					return nil, err
				}
				packages = append(packages, pkg)
			}
		}
	}
	p.log.WithField("packages", len(packages)).Debug("collected pnpm packages")
	return packages, nil
}

func (p *Pnpm) logLockfileHeader(projectPath string) error {
	lockPath := filepath.Join(projectPath, pnpmLockfile)
	data, err := safeio.ReadFileUnder(projectPath, lockPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", lockPath, err)
	}
	var header pnpmLockHeader
	if err := yaml.Unmarshal(data, &header); err != nil {
		return fmt.Errorf("parse %s: %w", lockPath, err)
	}
	p.log.WithFields(logrus.Fields{
		"lockfile_version": fmt.Sprint(header.LockfileVersion),
		"importers":        len(header.Importers),
	}).Debug("read pnpm lockfile")
	return nil
}

func readNodePackage(dir string) (aggregate.Package, error) {
	manifestPath := filepath.Join(dir, "package.json")
	data, err := safeio.ReadFile(manifestPath)
	if err != nil {
		return aggregate.Package{}, fmt.Errorf("read %s: %w", manifestPath, err)
	}
	var manifest packageJSON
	if err := json.Unmarshal(data, &manifest); err != nil {
		return aggregate.Package{}, fmt.Errorf("parse %s: %w", manifestPath, err)
	}

	pkg := aggregate.Package{
		Ecosystem:  pnpmID,
		Name:       manifest.Name,
		Version:    manifest.Version,
		SourceDir:  dir,
		PackageURL: fmt.Sprintf("https://www.npmjs.com/package/%s/v/%s", manifest.Name, manifest.Version),
	}
	if license := manifestLicense(manifest); license != "" {
		pkg.License = &license
	}
	return pkg, nil
}

// manifestLicense reads the "license" field, accepting the deprecated
// {"type": ...} object form and the legacy "licenses" array. Multiple legacy
// entries are joined with OR.
func manifestLicense(manifest packageJSON) string {
	if license := parseLicenseValue(manifest.License); license != "" {
		return license
	}
	values := make([]string, 0, len(manifest.Licenses))
	for _, item := range manifest.Licenses {
		if license := parseLicenseValue(item); license != "" {
			values = append(values, license)
		}
	}
	switch len(values) {
	case 0:
		return ""
	case 1:
		return values[0]
	default:
		return "(" + strings.Join(values, " OR ") + ")"
	}
}

func parseLicenseValue(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return ""
	}
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	case map[string]any:
		if licenseType, ok := typed["type"].(string); ok {
			return strings.TrimSpace(licenseType)
		}
	}
	return ""
}

func sortedKeys(deps map[string]pnpmListDep) []string {
	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
