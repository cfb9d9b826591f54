// Copyright 2026 The Typeshift Authors
// SPDX-License-Identifier: MIT

package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/davetashner/typeshift/internal/buildfile"
	"github.com/davetashner/typeshift/internal/configfile"
	"github.com/davetashner/typeshift/internal/coverage"
)

// errGlobFallback aborts the current run after a glob-threshold breach. The
// working copy has already been reverted when it surfaces.
var errGlobFallback = errors.New("glob threshold exceeded")

// SubmissionError wraps a failure in the final commit or submission step.
// Every directory conversion completed before it surfaces, so callers can
// report it separately from a failed conversion.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string { return "submitting changeset: " + e.Err.Error() }

func (e *SubmissionError) Unwrap() error { return e.Err }

// Run executes the conversion, retrying at most once: when a directory's
// glob conversion absorbs more errors per file than budgeted, the whole run
// is rolled back and restarted with glob mode disabled. The retried run
// lists explicit targets only, so it cannot trigger a second fallback.
func (c *Converter) Run(ctx context.Context, cfg RunConfig) error {
	err := c.runOnce(ctx, cfg)
	if errors.Is(err, errGlobFallback) {
		slog.Info("Restarting conversion with individual targets")
		return c.runOnce(ctx, cfg.withGlobDisabled())
	}
	return err
}

func (c *Converter) runOnce(ctx context.Context, cfg RunConfig) error {
	slog.Info("Converting typecheck targets to configurations", "root", cfg.Root)

	dirs, err := coverage.Resolve(c.fs, cfg.Root)
	if err != nil {
		return err
	}

	var converted []string
	for _, dir := range dirs {
		if subsumed(converted, dir) {
			slog.Debug("Skipping directory already covered by an ancestor conversion", "directory", dir)
			continue
		}
		if err := c.convertDirectory(ctx, cfg, dir); err != nil {
			if errors.Is(err, errGlobFallback) {
				return err
			}
			return fmt.Errorf("converting %s: %w", dir, err)
		}
		converted = append(converted, dir)
	}

	title := fmt.Sprintf("Convert type check targets in %s to use configuration", cfg.Root)
	if err := c.repo.SubmitChanges(ctx, !cfg.NoCommit, cfg.Submit, title, summary(cfg)); err != nil {
		return &SubmissionError{Err: err}
	}
	return nil
}

// subsumed reports whether dir falls under a directory converted earlier in
// this run. Like the coverage resolver, this is a raw string-prefix test.
func subsumed(converted []string, dir string) bool {
	for _, done := range converted {
		if strings.HasPrefix(dir, done) {
			return true
		}
	}
	return false
}

// convertDirectory drives one directory through discovery, mode selection,
// configuration write, legacy-field stripping, type check, and threshold
// evaluation.
func (c *Converter) convertDirectory(ctx context.Context, cfg RunConfig, dir string) error {
	targets, err := c.discoverer.DiscoverTargets(dir)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		slog.Warn("No configuration created because no targets found", "directory", dir)
		return nil
	}

	var newTargets, buildFiles []string
	if cfg.Glob > 0 {
		newTargets = []string{globTarget(dir)}
		buildFiles, err = buildfile.Find(c.fs, dir)
		if err != nil {
			return err
		}
	} else {
		for _, d := range targets.Directories() {
			buildFiles = append(buildFiles, path.Join(d, buildfile.Name))
			for _, name := range targets[d] {
				newTargets = append(newTargets, "//"+d+":"+name)
			}
		}
	}

	configPath := configfile.PathFor(dir)
	if configfile.Exists(c.fs, dir) {
		slog.Warn("Configuration already exists; amending targets", "path", configPath)
		doc, err := configfile.Load(c.fs, configPath)
		if err != nil {
			return err
		}
		doc.AddTargets(newTargets)
		doc.Deduplicate()
		if err := doc.Write(c.fs); err != nil {
			return err
		}
	} else {
		slog.Info("Creating local configuration", "path", configPath)
		doc := configfile.New(configPath, newTargets)
		if err := doc.Write(c.fs); err != nil {
			return err
		}
		if err := c.repo.AddPaths([]string{configPath}); err != nil {
			return err
		}
	}

	slog.Info("Removing typing options from targets files", "count", len(buildFiles))
	if err := buildfile.StripLegacyFields(c.fs, buildFiles); err != nil {
		return err
	}
	if err := c.checker.RemoveNonPyreIgnores(dir); err != nil {
		return err
	}

	files, err := c.checker.Check(ctx, dir, true)
	if err != nil {
		return err
	}
	if err := c.applyThresholds(cfg, files); err != nil {
		return err
	}

	// Formatting can shift line numbers and invalidate suppression
	// positions, so lint once and re-suppress against an incremental check.
	if cfg.Lint {
		changed, err := c.repo.Format(ctx)
		if err != nil {
			return err
		}
		if changed {
			files, err := c.checker.Check(ctx, dir, false)
			if err != nil {
				return err
			}
			if err := c.checker.Suppress(files); err != nil {
				return err
			}
		}
	}
	return nil
}

// globTarget renders the wildcard target covering dir's whole subtree.
func globTarget(dir string) string {
	if dir == "." {
		return "//..."
	}
	return "//" + dir + "/..."
}
