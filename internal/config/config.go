// Package config loads the notices settings file.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ben-ranford/notices/internal/safeio"
	"github.com/ben-ranford/notices/internal/spdx"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

const (
	DefaultFileName = "notices.toml"

	DriftPolicyOff  = "off"
	DriftPolicyWarn = "warn"
	DriftPolicyFail = "fail"

	readConfigFileErrFmt = "%w: read config file %s: %w"
	parseConfigErrFmt    = "%w: parse config file %s: %w"
)

var ErrConfig = errors.New("invalid configuration")

// Settings is built once at startup and passed by value to every component.
type Settings struct {
	AllowedLicenses     []spdx.Requirement
	IgnorePackages      []string
	LicenseTextsDir     string
	LockfileDriftPolicy string
	ConfigPath          string
}

func Defaults() Settings {
	return Settings{LockfileDriftPolicy: DriftPolicyWarn}
}

// Ignores reports whether name is on the ignore list.
func (s Settings) Ignores(name string) bool {
	return slices.Contains(s.IgnorePackages, name)
}

// TextProvider returns the license-text source for these settings. Texts from
// license_texts_dir take precedence over the built-in corpus.
func (s Settings) TextProvider() spdx.TextProvider {
	if s.LicenseTextsDir == "" {
		return spdx.Corpus()
	}
	return spdx.ChainProvider(spdx.DirProvider(s.LicenseTextsDir), spdx.Corpus())
}

// Load reads the settings file. An empty configPath selects DefaultFileName
// under projectPath and tolerates its absence; an explicit path must exist.
// Relative paths are resolved against projectPath.
func Load(projectPath, configPath string) (Settings, error) {
	projectAbs, err := filepath.Abs(projectPath)
	if err != nil {
		return Settings{}, fmt.Errorf("resolve project path: %w", err)
	}
	explicit := strings.TrimSpace(configPath) != ""
	if !explicit {
		configPath = DefaultFileName
	}
	path := strings.TrimSpace(configPath)
	if !filepath.IsAbs(path) {
		path = filepath.Join(projectAbs, path)
	}
	path = filepath.Clean(path)

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			return Defaults(), nil
		}
		if os.IsNotExist(err) {
			return Settings{}, fmt.Errorf("%w: config file not found: %s", ErrConfig, path)
		}
		return Settings{}, fmt.Errorf(readConfigFileErrFmt, ErrConfig, path, err)
	}

	data, err := readConfigFile(projectAbs, path)
	if err != nil {
		return Settings{}, fmt.Errorf(readConfigFileErrFmt, ErrConfig, path, err)
	}
	cfg, err := parseConfig(path, data)
	if err != nil {
		return Settings{}, fmt.Errorf(parseConfigErrFmt, ErrConfig, path, err)
	}
	settings, err := cfg.toSettings(filepath.Dir(path))
	if err != nil {
		return Settings{}, fmt.Errorf(parseConfigErrFmt, ErrConfig, path, err)
	}
	settings.ConfigPath = path
	return settings, nil
}

func readConfigFile(projectPath, path string) ([]byte, error) {
	if isPathUnderRoot(projectPath, path) {
		return safeio.ReadFileUnder(projectPath, path)
	}
	return safeio.ReadFile(path)
}

func isPathUnderRoot(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator))
}

func parseConfig(path string, data []byte) (rawConfig, error) {
	var cfg rawConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		decoder := toml.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return rawConfig{}, fmt.Errorf("invalid TOML config: %w", err)
		}
	case ".yml", ".yaml":
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return rawConfig{}, fmt.Errorf("invalid YAML config: %w", err)
		}
	case ".json":
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return rawConfig{}, fmt.Errorf("invalid JSON config: %w", err)
		}
		if decoder.More() {
			return rawConfig{}, fmt.Errorf("invalid JSON config: multiple JSON values")
		}
	default:
		return rawConfig{}, fmt.Errorf("unsupported config format %q", ext)
	}
	return cfg, nil
}

type rawConfig struct {
	AllowedLicenses     []string `toml:"allowed_licenses" yaml:"allowed_licenses" json:"allowed_licenses"`
	IgnorePackages      []string `toml:"ignore_packages" yaml:"ignore_packages" json:"ignore_packages"`
	LicenseTextsDir     string   `toml:"license_texts_dir" yaml:"license_texts_dir" json:"license_texts_dir"`
	LockfileDriftPolicy string   `toml:"lockfile_drift_policy" yaml:"lockfile_drift_policy" json:"lockfile_drift_policy"`
}

func (c rawConfig) toSettings(configDir string) (Settings, error) {
	settings := Defaults()
	if dir := strings.TrimSpace(c.LicenseTextsDir); dir != "" {
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(configDir, dir)
		}
		settings.LicenseTextsDir = filepath.Clean(dir)
	}

	var errs error
	texts := settings.TextProvider()
	for idx, value := range c.AllowedLicenses {
		req, err := spdx.ParseRequirement(value)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("allowed_licenses[%d]: %w", idx, err))
			continue
		}
		if _, err := spdx.ResolveText(texts, req); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("allowed_licenses[%d]: %s needs a text under license_texts_dir: %w", idx, req, err))
			continue
		}
		settings.AllowedLicenses = append(settings.AllowedLicenses, req)
	}

	for _, name := range c.IgnorePackages {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			settings.IgnorePackages = append(settings.IgnorePackages, trimmed)
		}
	}

	if policy := strings.ToLower(strings.TrimSpace(c.LockfileDriftPolicy)); policy != "" {
		switch policy {
		case DriftPolicyOff, DriftPolicyWarn, DriftPolicyFail:
			settings.LockfileDriftPolicy = policy
		default:
			errs = multierr.Append(errs, fmt.Errorf("lockfile_drift_policy: unknown policy %q (want off, warn or fail)", c.LockfileDriftPolicy))
		}
	}

	if errs != nil {
		return Settings{}, errs
	}
	return settings, nil
}
