// Copyright 2026 The Typeshift Authors
// SPDX-License-Identifier: MIT

// Package buildfile reads and rewrites TARGETS build files. Handling is
// strictly line-oriented: target names and legacy type-check toggles are
// recognized by pattern, never by parsing the build grammar.
package buildfile

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/davetashner/typeshift/internal/testable"
)

// Name is the basename of a build file.
const Name = "TARGETS"

var (
	namePattern       = regexp.MustCompile(`name\s*=\s*"([^"]+)"`)
	typingKeyPattern  = regexp.MustCompile(`(typing|check_types) ?= ?True`)
	mypyOptionPattern = regexp.MustCompile(`(typing_options|check_types_options) ?=.*mypy`)
)

// legacyFieldPatterns match the obsolete per-target type-check toggles that
// are deleted once a directory is governed by a configuration. A line is
// dropped when any pattern matches anywhere in it.
var legacyFieldPatterns = []*regexp.Regexp{
	regexp.MustCompile(`typing ?=.*`),
	regexp.MustCompile(`check_types ?=.*`),
	regexp.MustCompile(`check_types_options ?=.*`),
	regexp.MustCompile(`typing_options ?=.*`),
}

// TargetMap maps a build-file directory to the target names declared there.
type TargetMap map[string][]string

// Directories returns the map's keys in sorted order so callers iterate
// deterministically.
func (m TargetMap) Directories() []string {
	dirs := make([]string, 0, len(m))
	for d := range m {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return dirs
}

// Discoverer finds build targets in a directory tree.
type Discoverer struct {
	fs       testable.FileSystem
	pyreOnly bool
}

// NewDiscoverer returns a Discoverer. With pyreOnly set, only targets whose
// type checking is not routed to another checker are discovered.
func NewDiscoverer(fsys testable.FileSystem, pyreOnly bool) *Discoverer {
	return &Discoverer{fs: fsys, pyreOnly: pyreOnly}
}

// DiscoverTargets walks dir and returns every target declared in a TARGETS
// file under it, keyed by the build file's directory.
func (d *Discoverer) DiscoverTargets(dir string) (TargetMap, error) {
	files, err := Find(d.fs, dir)
	if err != nil {
		return nil, err
	}
	targets := make(TargetMap)
	for _, file := range files {
		names, err := d.parse(file)
		if err != nil {
			return nil, err
		}
		if len(names) > 0 {
			targets[filepath.ToSlash(filepath.Dir(file))] = names
		}
	}
	return targets, nil
}

// parse extracts target names from one build file. A typing toggle line is
// attributed to the most recently declared name, which is how rules lay out
// in practice (name first, options after).
func (d *Discoverer) parse(file string) ([]string, error) {
	data, err := d.fs.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", file, err)
	}

	var names []string
	current := ""
	typed := false
	flush := func() {
		if current == "" {
			return
		}
		if !d.pyreOnly || typed {
			names = append(names, current)
		}
		current, typed = "", false
	}
	for _, line := range strings.Split(string(data), "\n") {
		if m := namePattern.FindStringSubmatch(line); m != nil {
			flush()
			current = m[1]
			continue
		}
		if typingKeyPattern.MatchString(line) && !mypyOptionPattern.MatchString(line) {
			typed = true
		}
		if mypyOptionPattern.MatchString(line) {
			typed = false
		}
	}
	flush()
	return names, nil
}

// Find returns every TARGETS file under dir, in walk order.
func Find(fsys testable.FileSystem, dir string) ([]string, error) {
	var files []string
	err := fsys.WalkDir(dir, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if p != dir && strings.HasPrefix(entry.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if entry.Name() == Name {
			files = append(files, filepath.ToSlash(p))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("searching build files under %s: %w", dir, err)
	}
	return files, nil
}

// StripLegacyFields deletes every line matching a legacy type-check toggle
// from the given build files. Files without a match are left untouched.
func StripLegacyFields(fsys testable.FileSystem, files []string) error {
	for _, file := range files {
		data, err := fsys.ReadFile(file)
		if err != nil {
			return fmt.Errorf("reading %s: %w", file, err)
		}
		lines := strings.Split(string(data), "\n")
		kept := lines[:0]
		changed := false
		for _, line := range lines {
			if matchesLegacyField(line) {
				changed = true
				continue
			}
			kept = append(kept, line)
		}
		if !changed {
			continue
		}
		info, err := fsys.Stat(file)
		if err != nil {
			return fmt.Errorf("stat %s: %w", file, err)
		}
		out := strings.Join(kept, "\n")
		if err := fsys.WriteFile(file, []byte(out), info.Mode().Perm()); err != nil {
			return fmt.Errorf("writing %s: %w", file, err)
		}
	}
	return nil
}

func matchesLegacyField(line string) bool {
	for _, pattern := range legacyFieldPatterns {
		if pattern.MatchString(line) {
			return true
		}
	}
	return false
}
