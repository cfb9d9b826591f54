package buildfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davetashner/typeshift/internal/testable"
)

const sampleTargets = `python_library(
    name = "lib",
    srcs = ["lib.py"],
    typing = True,
)

python_unittest(
    name = "lib_test",
    srcs = ["lib_test.py"],
    check_types = True,
    check_types_options = "mypy",
)

python_binary(
    name = "tool",
    srcs = ["tool.py"],
)
`

func writeTargets(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, Name), []byte(content), 0o644))
}

func TestDiscoverTargets_AllTargets(t *testing.T) {
	root := t.TempDir()
	writeTargets(t, filepath.Join(root, "a"), sampleTargets)
	writeTargets(t, filepath.Join(root, "b", "c"), "python_library(\n    name = \"y\",\n)\n")
	t.Chdir(root)

	d := NewDiscoverer(testable.DefaultFS, false)
	targets, err := d.DiscoverTargets(".")
	require.NoError(t, err)
	assert.Equal(t, TargetMap{
		"a":   {"lib", "lib_test", "tool"},
		"b/c": {"y"},
	}, targets)
	assert.Equal(t, []string{"a", "b/c"}, targets.Directories())
}

func TestDiscoverTargets_PyreOnly(t *testing.T) {
	root := t.TempDir()
	writeTargets(t, filepath.Join(root, "a"), sampleTargets)
	t.Chdir(root)

	d := NewDiscoverer(testable.DefaultFS, true)
	targets, err := d.DiscoverTargets(".")
	require.NoError(t, err)
	// "lib" has typing = True; "lib_test" is routed to mypy and "tool" has
	// no typing toggle at all.
	assert.Equal(t, TargetMap{"a": {"lib"}}, targets)
}

func TestDiscoverTargets_EmptyTree(t *testing.T) {
	root := t.TempDir()
	t.Chdir(root)

	d := NewDiscoverer(testable.DefaultFS, false)
	targets, err := d.DiscoverTargets(".")
	require.NoError(t, err)
	assert.Empty(t, targets)
}

func TestFind_ReturnsAllBuildFiles(t *testing.T) {
	root := t.TempDir()
	writeTargets(t, filepath.Join(root, "a"), "")
	writeTargets(t, filepath.Join(root, "a", "b"), "")
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".hidden"), 0o755))
	writeTargets(t, filepath.Join(root, ".hidden"), "")
	t.Chdir(root)

	files, err := Find(testable.DefaultFS, ".")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/TARGETS", "a/b/TARGETS"}, files)
}

func TestStripLegacyFields(t *testing.T) {
	root := t.TempDir()
	writeTargets(t, root, sampleTargets)
	file := filepath.Join(root, Name)

	require.NoError(t, StripLegacyFields(testable.DefaultFS, []string{file}))

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	out := string(data)
	assert.NotContains(t, out, "typing")
	assert.NotContains(t, out, "check_types")
	// Unrelated declarations survive.
	assert.Contains(t, out, `name = "lib"`)
	assert.Contains(t, out, `srcs = ["lib.py"]`)
}

func TestStripLegacyFields_NoMatchLeavesFileUntouched(t *testing.T) {
	root := t.TempDir()
	content := "python_library(\n    name = \"x\",\n)\n"
	writeTargets(t, root, content)
	file := filepath.Join(root, Name)
	before, err := os.Stat(file)
	require.NoError(t, err)

	require.NoError(t, StripLegacyFields(testable.DefaultFS, []string{file}))

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
	after, err := os.Stat(file)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())
}

func TestStripLegacyFields_MissingFile(t *testing.T) {
	err := StripLegacyFields(testable.DefaultFS, []string{filepath.Join(t.TempDir(), Name)})
	require.Error(t, err)
}
