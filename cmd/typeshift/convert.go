// Copyright 2026 The Typeshift Authors
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/davetashner/typeshift/internal/buildfile"
	"github.com/davetashner/typeshift/internal/checker"
	"github.com/davetashner/typeshift/internal/config"
	"github.com/davetashner/typeshift/internal/convert"
	"github.com/davetashner/typeshift/internal/repository"
	"github.com/davetashner/typeshift/internal/testable"
)

// Convert-specific flag values.
var (
	convertSubdirectory   string
	convertGlob           int
	convertLint           bool
	convertFixmeThreshold int
	convertPyreOnly       bool
	convertNoCommit       bool
	convertSubmit         bool
)

// convertCmd is the subcommand that performs the migration.
var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert TARGETS type-check settings to local configurations",
	Long: `Convert the per-target type-check toggles under a directory into
directory-scoped pyre configurations.

Each directory that needs coverage gets one configuration, either listing
every discovered target explicitly or, with --glob, a single wildcard
covering the whole subtree. Newly surfaced type errors are suppressed
inline; files over --fixme-threshold get a file-level ignore instead. If
any single file would absorb more than --glob errors, the run rolls back
and restarts with explicit targets.`,
	Args: cobra.NoArgs,
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVar(&convertSubdirectory, "subdirectory", "", "only convert TARGETS files within this directory")
	convertCmd.Flags().IntVar(&convertGlob, "glob", 0, "use a toplevel glob target; fall back to individual targets if errors per file ever exceed N")
	convertCmd.Flags().BoolVar(&convertLint, "lint", false, "run the formatter after conversion and re-suppress shifted errors")
	convertCmd.Flags().IntVar(&convertFixmeThreshold, "fixme-threshold", 0, "ignore all errors in a file if its fixme count exceeds N")
	convertCmd.Flags().BoolVar(&convertPyreOnly, "pyre-only", false, "only convert pyre-checked targets")
	convertCmd.Flags().BoolVar(&convertNoCommit, "no-commit", false, "keep changes in working state")
	convertCmd.Flags().BoolVar(&convertSubmit, "submit", false, "push the changeset for review after committing")
}

func runConvert(cmd *cobra.Command, _ []string) error {
	root := "."
	if convertSubdirectory != "" {
		root = filepath.ToSlash(filepath.Clean(convertSubdirectory))
	}
	if _, err := testable.DefaultFS.Stat(root); err != nil {
		return exitError(ExitInvalidArgs, "typeshift: cannot access %s: %v", root, err)
	}

	fileCfg, err := config.Load(".")
	if err != nil {
		return exitError(ExitInvalidArgs, "typeshift: reading %s: %v", config.FileName, err)
	}
	runCfg := config.Merge(fileCfg, convert.RunConfig{
		Root:           root,
		Glob:           convertGlob,
		FixmeThreshold: convertFixmeThreshold,
		Lint:           convertLint,
		PyreOnly:       convertPyreOnly,
		NoCommit:       convertNoCommit,
		Submit:         convertSubmit,
	})

	execr := testable.DefaultExecutor()
	if _, err := execr.LookPath("pyre"); err != nil {
		return exitError(ExitInvalidArgs, "typeshift: pyre not found on PATH: %v", err)
	}
	repo, err := repository.Open(".", execr, fileCfg.Formatter)
	if err != nil {
		return exitError(ExitInvalidArgs, "typeshift: %v", err)
	}

	conv := convert.New(
		testable.DefaultFS,
		buildfile.NewDiscoverer(testable.DefaultFS, runCfg.PyreOnly),
		checker.New(testable.DefaultFS, execr),
		repo,
	)
	if err := conv.Run(cmd.Context(), runCfg); err != nil {
		return exitError(conversionExitCode(err), "typeshift: %v", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("Conversion complete in %s", root))
	return nil
}

// conversionExitCode classifies a failed run. Submission failures leave a
// fully converted working copy behind and get their own code.
func conversionExitCode(err error) int {
	var subErr *convert.SubmissionError
	if errors.As(err, &subErr) {
		return ExitSubmissionFailed
	}
	return ExitConversionFailed
}
