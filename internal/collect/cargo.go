package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ben-ranford/notices/internal/aggregate"
	"github.com/sirupsen/logrus"
)

const (
	cargoID       = "cargo"
	cargoManifest = "Cargo.toml"
)

var cratesIOSources = map[string]struct{}{
	"registry+https://github.com/rust-lang/crates.io-index": {},
	"sparse+https://index.crates.io/":                       {},
}

type Cargo struct {
	runner Runner
	log    logrus.FieldLogger
}

func NewCargo(runner Runner, log logrus.FieldLogger) *Cargo {
	return &Cargo{runner: runner, log: log}
}

func (c *Cargo) ID() string       { return cargoID }
func (c *Cargo) Manifest() string { return cargoManifest }

func (c *Cargo) Detect(projectPath string) (bool, error) {
	return fileExists(filepath.Join(projectPath, cargoManifest))
}

type cargoMetadata struct {
	Packages []cargoPackage `json:"packages"`
}

type cargoPackage struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	License      *string  `json:"license"`
	Source       *string  `json:"source"`
	ManifestPath string   `json:"manifest_path"`
	Authors      []string `json:"authors"`
}

// Collect runs `cargo metadata` and reports every package that does not come
// from the local workspace.
func (c *Cargo) Collect(ctx context.Context, projectPath string) ([]aggregate.Package, error) {
	output, err := c.runner.Run(ctx, projectPath, "cargo", "metadata", "--format-version", "1")
	if err != nil {
		return nil, err
	}
	var metadata cargoMetadata
	if err := json.Unmarshal(output, &metadata); err != nil {
		return nil, fmt.Errorf("parse cargo metadata output: %w", err)
	}

	packages := make([]aggregate.Package, 0, len(metadata.Packages))
	for _, pkg := range metadata.Packages {
		if pkg.Source == nil {
			c.log.WithField("package", pkg.Name).Debug("skipping local cargo package")
			continue
		}
		packages = append(packages, aggregate.Package{
			Ecosystem:  cargoID,
			Name:       pkg.Name,
			Version:    pkg.Version,
			License:    pkg.License,
			SourceDir:  filepath.Dir(pkg.ManifestPath),
			PackageURL: cratePackageURL(pkg.Name, pkg.Version, *pkg.Source),
			Authors:    pkg.Authors,
		})
	}
	c.log.WithField("packages", len(packages)).Debug("collected cargo packages")
	return packages, nil
}

func cratePackageURL(name, version, source string) string {
	if _, ok := cratesIOSources[source]; ok {
		return fmt.Sprintf("https://crates.io/crates/%s/%s", name, version)
	}
	return source
}

func fileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err == nil {
		return !info.IsDir(), nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", path, err)
}
