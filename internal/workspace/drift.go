package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/ben-ranford/notices/internal/config"
)

var ErrLockfileDrift = errors.New("lockfile drift detected")

// An optional rule only fires once its lockfile is present: a bare
// package.json does not make a project a pnpm project.
type lockfileRule struct {
	manager  string
	manifest string
	lockfile string
	optional bool
	remedy   string
}

var lockfileRules = []lockfileRule{
	{manager: "Cargo", manifest: "Cargo.toml", lockfile: "Cargo.lock", remedy: "run cargo generate-lockfile (or cargo build) and commit the updated files"},
	{manager: "pnpm", manifest: "package.json", lockfile: "pnpm-lock.yaml", optional: true, remedy: "run pnpm install and commit the updated manifest and lockfile"},
}

// EvaluateDriftPolicy checks the project root for manifest/lockfile drift.
// With the warn policy the findings are returned without error; with fail the
// first finding is returned wrapped in ErrLockfileDrift.
func EvaluateDriftPolicy(projectPath, policy string) ([]string, error) {
	if strings.TrimSpace(policy) == config.DriftPolicyOff {
		return nil, nil
	}
	warnings, err := DetectLockfileDrift(projectPath)
	if err != nil || len(warnings) == 0 {
		return warnings, err
	}
	if strings.TrimSpace(policy) == config.DriftPolicyFail {
		return warnings, fmt.Errorf("%w: %s", ErrLockfileDrift, warnings[0])
	}
	return warnings, nil
}

// DetectLockfileDrift reports one message per drifting ecosystem found in the
// project root.
func DetectLockfileDrift(projectPath string) ([]string, error) {
	normalized, err := NormalizeProjectPath(projectPath)
	if err != nil {
		return nil, err
	}
	files, err := readDirectoryFiles(normalized)
	if err != nil {
		return nil, fmt.Errorf("read project directory %s: %w", normalized, err)
	}
	warnings := make([]string, 0, len(lockfileRules))
	for _, rule := range lockfileRules {
		if warning := detectDriftForRule(files, rule); warning != "" {
			warnings = append(warnings, warning)
		}
	}
	return warnings, nil
}

func readDirectoryFiles(path string) (map[string]fs.FileInfo, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	files := make(map[string]fs.FileInfo, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, infoErr := entry.Info()
		if infoErr != nil {
			continue
		}
		files[entry.Name()] = info
	}
	return files, nil
}

func detectDriftForRule(files map[string]fs.FileInfo, rule lockfileRule) string {
	manifestInfo, hasManifest := files[rule.manifest]
	lockfileInfo, hasLockfile := files[rule.lockfile]
	switch {
	case hasManifest && !hasLockfile:
		if rule.optional {
			return ""
		}
		return fmt.Sprintf("lockfile drift detected for %s: %s exists but %s was not found; %s", rule.manager, rule.manifest, rule.lockfile, rule.remedy)
	case !hasManifest && hasLockfile:
		return fmt.Sprintf("lockfile drift detected for %s: %s exists without %s; remove stale lockfile or restore the manifest", rule.manager, rule.lockfile, rule.manifest)
	case !hasManifest:
		return ""
	}
	if manifestInfo.ModTime().After(lockfileInfo.ModTime()) {
		return fmt.Sprintf("lockfile drift detected for %s: %s is newer than %s; %s", rule.manager, rule.manifest, rule.lockfile, rule.remedy)
	}
	return ""
}
