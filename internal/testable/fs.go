// Package testable provides interfaces for abstracting OS-level operations,
// enabling mock injection in tests without modifying production behavior.
package testable

import (
	"io/fs"
	"os"
	"path/filepath"
)

// FileSystem abstracts the file system operations typeshift performs while
// rewriting build files, configurations, and suppressed sources. The
// production implementation (OsFileSystem) delegates to the standard library.
type FileSystem interface {
	// Abs returns an absolute representation of path.
	Abs(path string) (string, error)

	// Stat returns a FileInfo describing the named file.
	Stat(name string) (os.FileInfo, error)

	// ReadFile reads the named file and returns the contents.
	ReadFile(name string) ([]byte, error)

	// WriteFile writes data to the named file, creating it if necessary.
	WriteFile(name string, data []byte, perm os.FileMode) error

	// ReadDir reads the named directory and returns its entries sorted by name.
	ReadDir(name string) ([]os.DirEntry, error)

	// WalkDir walks the file tree rooted at root, calling fn for each file or
	// directory in the tree, including root.
	WalkDir(root string, fn fs.WalkDirFunc) error

	// RemoveAll removes path and any children it contains.
	RemoveAll(path string) error
}

// OsFileSystem is the production implementation of FileSystem that delegates
// to the standard library os and filepath packages.
type OsFileSystem struct{}

// Abs wraps filepath.Abs.
func (OsFileSystem) Abs(path string) (string, error) {
	return filepath.Abs(path)
}

// Stat wraps os.Stat.
func (OsFileSystem) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

// ReadFile wraps os.ReadFile.
func (OsFileSystem) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name) //nolint:gosec // caller controls path
}

// WriteFile wraps os.WriteFile.
func (OsFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm) //nolint:gosec // caller controls path and perms
}

// ReadDir wraps os.ReadDir.
func (OsFileSystem) ReadDir(name string) ([]os.DirEntry, error) {
	return os.ReadDir(name)
}

// WalkDir wraps filepath.WalkDir.
func (OsFileSystem) WalkDir(root string, fn fs.WalkDirFunc) error {
	return filepath.WalkDir(root, fn)
}

// RemoveAll wraps os.RemoveAll.
func (OsFileSystem) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// DefaultFS is the production FileSystem used as the default throughout
// the application. All packages should use this as their default when no
// custom FileSystem is injected.
var DefaultFS FileSystem = OsFileSystem{}
