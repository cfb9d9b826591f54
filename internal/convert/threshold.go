// Copyright 2026 The Typeshift Authors
// SPDX-License-Identifier: MIT

package convert

import (
	"fmt"
	"log/slog"

	"github.com/davetashner/typeshift/internal/checker"
)

// migrationSummary is the base changeset summary attached to every run.
const migrationSummary = "Migrating buck-integrated type check targets to directory-scoped " +
	"configurations. Previously passing code is preserved by suppressing " +
	"newly surfaced type errors."

// applyThresholds evaluates each file's error volume, in report order.
// A file over the glob budget aborts the whole run: everything is reverted
// and errGlobFallback tells the top-level loop to restart without glob
// mode. A file over the fixme budget gets a file-level ignore. Everything
// else is suppressed inline. Counts equal to a threshold do not trigger it.
func (c *Converter) applyThresholds(cfg RunConfig, files []checker.FileErrors) error {
	for _, fe := range files {
		count := len(fe.Errors)
		if cfg.Glob > 0 && count > cfg.Glob {
			slog.Info("Exceeding error threshold; falling back to listing individual targets",
				"threshold", cfg.Glob, "file", fe.Path, "errors", count)
			if err := c.repo.RevertAll(true); err != nil {
				return err
			}
			return errGlobFallback
		}
		if cfg.FixmeThreshold > 0 && count > cfg.FixmeThreshold {
			slog.Info("Adding file-level ignore", "file", fe.Path, "errors", count)
			if err := c.checker.AddFileIgnore(fe.Path); err != nil {
				return err
			}
			continue
		}
		if err := c.checker.Suppress([]checker.FileErrors{fe}); err != nil {
			return err
		}
	}
	return nil
}

// summary composes the changeset summary, noting the glob expansion and its
// per-file error budget when glob mode survived the run.
func summary(cfg RunConfig) string {
	s := migrationSummary
	if cfg.Glob > 0 {
		s += fmt.Sprintf("\n\nConfiguration target automatically expanded to include "+
			"all subtargets, expanding type coverage while introducing "+
			"no more than %d fixmes per file.", cfg.Glob)
	}
	return s
}
