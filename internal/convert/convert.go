// Copyright 2026 The Typeshift Authors
// SPDX-License-Identifier: MIT

// Package convert drives the targets-to-configuration migration: it decides
// which directories receive a configuration, converts each one, evaluates
// error-volume thresholds, and hands the finished changeset to version
// control. External collaborators are injected as interfaces so the policy
// logic tests against fakes.
package convert

import (
	"context"

	"github.com/davetashner/typeshift/internal/buildfile"
	"github.com/davetashner/typeshift/internal/checker"
	"github.com/davetashner/typeshift/internal/testable"
)

// RunConfig carries one attempt's parameters. It is immutable: the
// glob-threshold fallback retries with a modified copy instead of mutating
// shared state.
type RunConfig struct {
	// Root is the directory being converted, relative to the working
	// directory ("." for the whole tree).
	Root string

	// Glob, when positive, requests a single wildcard target per directory
	// subtree; its value is the per-file error budget beyond which glob
	// conversion is abandoned for the entire run.
	Glob int

	// FixmeThreshold, when positive, is the most errors a single file may
	// absorb as inline fixmes before it gets a file-level ignore instead.
	FixmeThreshold int

	// Lint runs the formatter after conversion and re-suppresses any errors
	// the formatting shifted.
	Lint bool

	// PyreOnly restricts discovery to targets type-checked by pyre.
	PyreOnly bool

	// NoCommit leaves changes in the working state.
	NoCommit bool

	// Submit pushes the changeset for review after committing.
	Submit bool
}

// withGlobDisabled returns a copy of the config with glob mode off,
// used for the one bounded retry after a glob-threshold fallback.
func (c RunConfig) withGlobDisabled() RunConfig {
	c.Glob = 0
	return c
}

// TargetDiscoverer finds build targets under a directory.
type TargetDiscoverer interface {
	DiscoverTargets(dir string) (buildfile.TargetMap, error)
}

// Checker runs the type checker against a directory's configuration and
// applies error suppressions.
type Checker interface {
	Check(ctx context.Context, dir string, clean bool) ([]checker.FileErrors, error)
	Suppress(files []checker.FileErrors) error
	AddFileIgnore(path string) error
	RemoveNonPyreIgnores(dir string) error
}

// Repository is the version-control collaborator.
type Repository interface {
	AddPaths(paths []string) error
	RevertAll(removeUntracked bool) error
	Format(ctx context.Context) (bool, error)
	SubmitChanges(ctx context.Context, commit, submit bool, title, summary string) error
}

// Converter orchestrates a full conversion run.
type Converter struct {
	fs         testable.FileSystem
	discoverer TargetDiscoverer
	checker    Checker
	repo       Repository
}

// New returns a Converter wired to the given collaborators.
func New(fsys testable.FileSystem, d TargetDiscoverer, ch Checker, repo Repository) *Converter {
	return &Converter{fs: fsys, discoverer: d, checker: ch, repo: repo}
}
