// Copyright 2026 The Typeshift Authors
// SPDX-License-Identifier: MIT

// Package checker invokes the pyre type checker against a local
// configuration and turns its JSON error output into per-file groups. It
// also owns the suppression side: inline fixme comments, file-level ignore
// annotations, and cleanup of ignore comments pyre does not recognize.
package checker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	iofs "io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/davetashner/typeshift/internal/testable"
)

// DefaultTimeout bounds a single pyre invocation. Full checks of large
// directories are slow; this is deliberately generous.
const DefaultTimeout = 30 * time.Minute

// Error is one type error reported by pyre.
type Error struct {
	Path        string `json:"path"`
	Line        int    `json:"line"`
	Column      int    `json:"column"`
	Code        int    `json:"code"`
	Description string `json:"description"`
}

// FileErrors pairs a file with its ordered list of type errors.
type FileErrors struct {
	Path   string
	Errors []Error
}

// Pyre runs the pyre binary through an injected CommandExecutor so tests
// can substitute canned output.
type Pyre struct {
	fs   testable.FileSystem
	exec testable.CommandExecutor
}

// New returns a Pyre checker using the given filesystem and executor.
func New(fsys testable.FileSystem, execr testable.CommandExecutor) *Pyre {
	return &Pyre{fs: fsys, exec: execr}
}

// Check runs pyre against the configuration owned by dir and returns the
// reported errors grouped by file, in report order. With clean set, the
// local analysis cache is removed first so results reflect the newly
// written configuration.
func (p *Pyre) Check(ctx context.Context, dir string, clean bool) ([]FileErrors, error) {
	if clean {
		if err := p.fs.RemoveAll(filepath.Join(dir, ".pyre")); err != nil {
			return nil, fmt.Errorf("clearing pyre cache in %s: %w", dir, err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	cmd := p.exec.CommandContext(ctx, "pyre", "--output=json", "-l", dir, "check")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	runErr := cmd.Run()

	// pyre exits non-zero when it finds type errors, so a failed run with
	// parseable output is the normal errors-found case.
	var errors []Error
	if jsonErr := json.Unmarshal(stdout.Bytes(), &errors); jsonErr != nil {
		if runErr != nil {
			return nil, fmt.Errorf("pyre check in %s: %w: %s", dir, runErr, stderr.String())
		}
		return nil, fmt.Errorf("parsing pyre output in %s: %w", dir, jsonErr)
	}
	return groupByFile(errors), nil
}

// groupByFile buckets errors per file, preserving report order both across
// and within files.
func groupByFile(errors []Error) []FileErrors {
	index := make(map[string]int)
	var files []FileErrors
	for _, e := range errors {
		i, ok := index[e.Path]
		if !ok {
			i = len(files)
			index[e.Path] = i
			files = append(files, FileErrors{Path: e.Path})
		}
		files[i].Errors = append(files[i].Errors, e)
	}
	return files
}

// Suppress writes an inline fixme comment above every error's reported
// location. Insertions are applied bottom-up per file so earlier line
// numbers stay valid.
func (p *Pyre) Suppress(files []FileErrors) error {
	for _, fe := range files {
		if len(fe.Errors) == 0 {
			continue
		}
		if err := p.suppressFile(fe); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pyre) suppressFile(fe FileErrors) error {
	data, err := p.fs.ReadFile(fe.Path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", fe.Path, err)
	}
	lines := strings.Split(string(data), "\n")

	// Bucket by line, then walk lines in descending order.
	byLine := make(map[int][]Error)
	var order []int
	for _, e := range fe.Errors {
		if _, ok := byLine[e.Line]; !ok {
			order = append(order, e.Line)
		}
		byLine[e.Line] = append(byLine[e.Line], e)
	}
	sortDescending(order)

	for _, lineNo := range order {
		if lineNo < 1 || lineNo > len(lines) {
			continue
		}
		indent := leadingWhitespace(lines[lineNo-1])
		var comments []string
		for _, e := range byLine[lineNo] {
			comments = append(comments, fmt.Sprintf("%s# pyre-fixme[%d]: %s", indent, e.Code, e.Description))
		}
		lines = append(lines[:lineNo-1], append(comments, lines[lineNo-1:]...)...)
	}

	return p.writeBack(fe.Path, strings.Join(lines, "\n"))
}

// writeBack rewrites path with content, preserving its current mode.
func (p *Pyre) writeBack(path, content string) error {
	info, err := p.fs.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := p.fs.WriteFile(path, []byte(content), info.Mode().Perm()); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// AddFileIgnore annotates path so pyre skips the whole file, used when
// per-error suppression would be too costly. The annotation lands after a
// shebang or encoding line when one is present.
func (p *Pyre) AddFileIgnore(path string) error {
	data, err := p.fs.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	lines := strings.Split(string(data), "\n")

	insert := 0
	for insert < len(lines) {
		l := strings.TrimSpace(lines[insert])
		if strings.HasPrefix(l, "#!") || strings.Contains(l, "coding:") || strings.Contains(l, "coding=") {
			insert++
			continue
		}
		break
	}
	annotated := make([]string, 0, len(lines)+1)
	annotated = append(annotated, lines[:insert]...)
	annotated = append(annotated, "# pyre-ignore-all-errors")
	annotated = append(annotated, lines[insert:]...)

	return p.writeBack(path, strings.Join(annotated, "\n"))
}

const nonPyreIgnorePattern = `# type: ignore`

// RemoveNonPyreIgnores strips `# type: ignore` comments from Python files
// under dir. Once a directory is governed by a configuration, those
// annotations belong to checkers that no longer run there.
func (p *Pyre) RemoveNonPyreIgnores(dir string) error {
	var files []string
	err := p.fs.WalkDir(dir, func(path string, entry iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if path != dir && strings.HasPrefix(entry.Name(), ".") {
				return iofs.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(entry.Name(), ".py") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walking %s: %w", dir, err)
	}

	for _, file := range files {
		data, err := p.fs.ReadFile(file)
		if err != nil {
			return fmt.Errorf("reading %s: %w", file, err)
		}
		content := string(data)
		if !strings.Contains(content, nonPyreIgnorePattern) {
			continue
		}
		lines := strings.Split(content, "\n")
		kept := lines[:0]
		for _, line := range lines {
			if idx := strings.Index(line, nonPyreIgnorePattern); idx >= 0 {
				trimmed := strings.TrimRight(line[:idx], " \t")
				if trimmed == "" {
					// The line carried nothing but the annotation.
					continue
				}
				line = trimmed
			}
			kept = append(kept, line)
		}
		if err := p.writeBack(file, strings.Join(kept, "\n")); err != nil {
			return err
		}
	}
	return nil
}

func leadingWhitespace(s string) string {
	return s[:len(s)-len(strings.TrimLeft(s, " \t"))]
}

func sortDescending(ints []int) {
	sort.Sort(sort.Reverse(sort.IntSlice(ints)))
}
