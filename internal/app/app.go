// Package app runs one notices generation: configuration, lockfile drift,
// collection, license checks, rendering and output.
package app

import (
	"context"
	"fmt"

	"github.com/ben-ranford/notices/internal/aggregate"
	"github.com/ben-ranford/notices/internal/collect"
	"github.com/ben-ranford/notices/internal/config"
	"github.com/ben-ranford/notices/internal/notice"
	"github.com/ben-ranford/notices/internal/report"
	"github.com/ben-ranford/notices/internal/workspace"
	"github.com/sirupsen/logrus"
)

type App struct {
	Registry *collect.Registry
	Scanner  notice.Scanner
	Log      logrus.FieldLogger
}

func New(log logrus.FieldLogger) *App {
	return &App{
		Registry: collect.DefaultRegistry(collect.ExecRunner{}, log),
		Scanner:  notice.DirScanner{},
		Log:      log,
	}
}

// Execute aborts on the first error. Documents are only written after every
// package passed its license check and every document rendered.
func (a *App) Execute(ctx context.Context, req Request) (Result, error) {
	projectPath, err := workspace.NormalizeProjectPath(req.ProjectPath)
	if err != nil {
		return Result{}, err
	}
	settings, err := config.Load(projectPath, req.ConfigPath)
	if err != nil {
		return Result{}, err
	}
	if settings.ConfigPath != "" {
		a.Log.WithField("path", settings.ConfigPath).Debug("loaded config")
	}

	warnings, err := workspace.EvaluateDriftPolicy(projectPath, settings.LockfileDriftPolicy)
	if err != nil {
		return Result{}, err
	}
	for _, warning := range warnings {
		a.Log.Warn(warning)
	}

	notices := &aggregate.Notices{}
	for _, collector := range a.Registry.Collectors() {
		if err := a.collect(ctx, collector, projectPath, settings, notices); err != nil {
			return Result{}, err
		}
	}

	docs, err := report.Render(notices, settings.TextProvider(), req.Formats...)
	if err != nil {
		return Result{}, err
	}
	result := Result{
		Dependencies: len(notices.Dependencies()),
		Licenses:     len(notices.Requirements()),
		Warnings:     warnings,
	}
	if req.Check {
		a.Log.WithField("dependencies", result.Dependencies).Info("Check passed, no files written")
		return result, nil
	}

	result.Written, err = docs.WriteFiles(req.OutputDir)
	if err != nil {
		return result, err
	}
	for _, path := range result.Written {
		a.Log.WithField("path", path).Debug("wrote notices")
	}
	a.Log.Info("Done 🎉")
	return result, nil
}

func (a *App) collect(ctx context.Context, collector collect.Collector, projectPath string, settings config.Settings, notices *aggregate.Notices) error {
	found, err := collector.Detect(projectPath)
	if err != nil {
		return fmt.Errorf("detect %s: %w", collector.ID(), err)
	}
	if !found {
		a.Log.Infof("Skipping %s packages because %s not found", collector.ID(), collector.Manifest())
		return nil
	}
	a.Log.Infof("Collecting %s packages", collector.ID())
	packages, err := collector.Collect(ctx, projectPath)
	if err != nil {
		return fmt.Errorf("collect %s packages: %w", collector.ID(), err)
	}
	for _, pkg := range packages {
		if _, err := notices.AddPackage(pkg, settings, a.Scanner, a.Log); err != nil {
			return err
		}
	}
	return nil
}
