// Copyright 2026 The Typeshift Authors
// SPDX-License-Identifier: MIT

// Package configfile models a directory-scoped pyre configuration document
// (.pyre_configuration.local). A document holds an ordered, deduplicated
// target list; every other field in the JSON document is preserved verbatim
// across load, merge, and write.
package configfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/davetashner/typeshift/internal/testable"
)

// FileName is the basename of a local configuration document.
const FileName = ".pyre_configuration.local"

// Document is one directory's configuration. Documents are short-lived:
// created or loaded during a single directory conversion, written at most
// once, then discarded.
type Document struct {
	path    string
	targets []string
	// extra holds every top-level field other than "targets", kept as raw
	// JSON so unknown fields round-trip untouched.
	extra map[string]json.RawMessage
}

// PathFor returns the configuration file path for a directory.
func PathFor(dir string) string {
	return filepath.Join(dir, FileName)
}

// Exists reports whether a configuration document exists in dir.
func Exists(fsys testable.FileSystem, dir string) bool {
	_, err := fsys.Stat(PathFor(dir))
	return err == nil
}

// New creates a fresh document at path containing only the given targets.
func New(path string, targets []string) *Document {
	return &Document{path: path, targets: append([]string(nil), targets...)}
}

// Load reads and parses the configuration document at path.
func Load(fsys testable.FileSystem, path string) (*Document, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("reading configuration %s: %w", path, err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("parsing configuration %s: %w", path, err)
	}

	doc := &Document{path: path, extra: fields}
	if raw, ok := fields["targets"]; ok {
		if err := json.Unmarshal(raw, &doc.targets); err != nil {
			return nil, fmt.Errorf("parsing targets in %s: %w", path, err)
		}
		delete(fields, "targets")
	}
	return doc, nil
}

// Path returns the document's file path.
func (d *Document) Path() string { return d.path }

// Dir returns the directory owning this configuration.
func (d *Document) Dir() string { return filepath.Dir(d.path) }

// Targets returns the document's target list. The returned slice is the
// document's own; callers must not mutate it.
func (d *Document) Targets() []string { return d.targets }

// AddTargets appends new target patterns to the document's target list.
// Duplicates are tolerated here and removed by Deduplicate.
func (d *Document) AddTargets(targets []string) {
	d.targets = append(d.targets, targets...)
}

// Deduplicate removes duplicate target strings, keeping first occurrences
// in order.
func (d *Document) Deduplicate() {
	seen := make(map[string]bool, len(d.targets))
	deduped := d.targets[:0]
	for _, t := range d.targets {
		if seen[t] {
			continue
		}
		seen[t] = true
		deduped = append(deduped, t)
	}
	d.targets = deduped
}

// Write marshals the document back to disk. The targets field is rendered
// from the current list; preserved fields are emitted as loaded.
func (d *Document) Write(fsys testable.FileSystem) error {
	fields := make(map[string]json.RawMessage, len(d.extra)+1)
	for k, v := range d.extra {
		fields[k] = v
	}
	rawTargets, err := json.Marshal(d.targets)
	if err != nil {
		return fmt.Errorf("marshaling targets: %w", err)
	}
	fields["targets"] = rawTargets

	data, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling configuration: %w", err)
	}
	data = append(data, '\n')

	if err := fsys.WriteFile(d.path, data, os.FileMode(0o644)); err != nil {
		return fmt.Errorf("writing configuration %s: %w", d.path, err)
	}
	return nil
}
