// Copyright 2026 The Typeshift Authors
// SPDX-License-Identifier: MIT

// Package coverage decides which directories under a root should each own
// one local configuration. Directories that already carry a configuration
// keep it; gaps in their ancestors' subtrees are filled breadth-first so
// that the shallowest enclosing directory wins.
package coverage

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/davetashner/typeshift/internal/configfile"
	"github.com/davetashner/typeshift/internal/testable"
)

// Resolve returns the ordered set of directories that should each own
// exactly one configuration under root. Known configuration directories are
// returned first, sorted by (path depth ascending, lexical), followed by the
// uncovered directories discovered during the depth walk. A root with no
// existing configuration resolves to just {root}.
func Resolve(fsys testable.FileSystem, root string) ([]string, error) {
	known, err := findConfigurationDirs(fsys, root)
	if err != nil {
		return nil, err
	}
	if len(known) == 0 {
		return []string{filepath.ToSlash(root)}, nil
	}

	sortByDepth(known)

	// Fill in missing coverage level by level. At level N we enumerate the
	// subdirectories N components below the root, reached through each known
	// directory's depth-N ancestor, and collect any that no known
	// configuration covers. A known directory shallower than the current
	// level contributes nothing and does not advance the level.
	rootDepth := 0
	if root != "." {
		rootDepth = len(strings.Split(filepath.ToSlash(filepath.Clean(root)), "/"))
	}
	var missing []string
	depth := 1
	for _, dir := range known {
		parts := strings.Split(dir, "/")
		dirDepth := len(parts)
		if dir == "." {
			// "." splits to one component but sits at depth zero, same as
			// the root itself.
			dirDepth = 0
		}
		if dirDepth-rootDepth < depth {
			continue
		}
		ancestor := "."
		if n := rootDepth + depth - 1; n > 0 {
			ancestor = path.Join(parts[:n]...)
		}
		subdirs, err := listSubdirectories(fsys, ancestor)
		if err != nil {
			return nil, err
		}
		for _, sub := range subdirs {
			if !covered(known, sub) {
				missing = append(missing, sub)
			}
		}
		depth++
	}
	return append(known, missing...), nil
}

// covered reports whether some known configuration directory's path begins
// with dir. The comparison is a raw string-prefix test, so a sibling like
// "foo2" counts as covered by a configuration at "foo"; this mirrors the
// converted-subtree skip in the conversion loop, which uses the same test.
func covered(known []string, dir string) bool {
	for _, k := range known {
		if strings.HasPrefix(k, dir) {
			return true
		}
	}
	return false
}

// findConfigurationDirs walks root and returns every directory containing a
// local configuration file. Hidden directories are not descended into.
func findConfigurationDirs(fsys testable.FileSystem, root string) ([]string, error) {
	var dirs []string
	err := fsys.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if d.Name() == configfile.FileName {
			dirs = append(dirs, filepath.ToSlash(filepath.Dir(p)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("searching configurations under %s: %w", root, err)
	}
	return dirs, nil
}

// listSubdirectories returns the immediate, non-hidden subdirectories of dir.
func listSubdirectories(fsys testable.FileSystem, dir string) ([]string, error) {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	var subdirs []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		subdirs = append(subdirs, path.Join(dir, e.Name()))
	}
	return subdirs, nil
}

// sortByDepth orders directories by path-component count, then lexically,
// so shallow directories are processed before deeper ones.
func sortByDepth(dirs []string) {
	sort.Slice(dirs, func(i, j int) bool {
		di := strings.Count(dirs[i], "/")
		dj := strings.Count(dirs[j], "/")
		if di != dj {
			return di < dj
		}
		return dirs[i] < dirs[j]
	})
}
