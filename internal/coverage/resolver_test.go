package coverage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davetashner/typeshift/internal/configfile"
	"github.com/davetashner/typeshift/internal/testable"
)

// buildTree creates dirs (and optional configuration files) under a temp
// root and chdirs into it so resolved paths are root-relative.
func buildTree(t *testing.T, dirs []string, configured []string) {
	t.Helper()
	root := t.TempDir()
	for _, d := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0o755))
	}
	for _, d := range configured {
		path := filepath.Join(root, d, configfile.FileName)
		require.NoError(t, os.WriteFile(path, []byte(`{"targets": []}`), 0o644))
	}
	t.Chdir(root)
}

func TestResolve_NoExistingConfigurations(t *testing.T) {
	buildTree(t, []string{"a", "b/c"}, nil)

	dirs, err := Resolve(testable.DefaultFS, ".")
	require.NoError(t, err)
	assert.Equal(t, []string{"."}, dirs)
}

func TestResolve_FillsMissingCoverage(t *testing.T) {
	buildTree(t,
		[]string{"a", "b/c", "b/e", "d"},
		[]string{"a", "b/c"})

	dirs, err := Resolve(testable.DefaultFS, ".")
	require.NoError(t, err)
	// Known dirs sorted by depth first, then the gaps found at each level:
	// level 1 walks the root and finds "d" uncovered, level 2 walks "b" and
	// finds "b/e" uncovered.
	assert.Equal(t, []string{"a", "b/c", "d", "b/e"}, dirs)
}

func TestResolve_RootConfigurationCoversTheTree(t *testing.T) {
	// A configuration at the run root already covers everything: the walk
	// must not treat "." as a depth-1 directory and report its immediate
	// subdirectories as gaps.
	buildTree(t, []string{"pkg", "other/deep"}, []string{"."})

	dirs, err := Resolve(testable.DefaultFS, ".")
	require.NoError(t, err)
	assert.Equal(t, []string{"."}, dirs)
}

func TestResolve_KnownDirsSortedByDepthThenLexical(t *testing.T) {
	buildTree(t,
		[]string{"b", "a/deep", "a/deep/deeper"},
		[]string{"b", "a/deep", "a/deep/deeper"})

	dirs, err := Resolve(testable.DefaultFS, ".")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a/deep", "a/deep/deeper"}, dirs[:3])
}

func TestResolve_StringPrefixCoverage(t *testing.T) {
	// The covered check is a raw string-prefix test: "proj" counts as
	// covered because the known dir "proj/sub" begins with it, while the
	// sibling "projx" shares a prefix with nothing and is reported missing.
	buildTree(t,
		[]string{"proj/sub", "proj/other", "projx"},
		[]string{"proj/sub", "proj/other"})

	dirs, err := Resolve(testable.DefaultFS, ".")
	require.NoError(t, err)
	assert.NotContains(t, dirs, "proj")
	assert.Contains(t, dirs, "projx")
}

func TestResolve_LevelsBoundedByKnownDirCount(t *testing.T) {
	// With a single known configuration only level 1 is walked, so the
	// uncovered sibling two levels down is not reported. Deeper gaps are
	// only reached when enough known directories exist to advance levels.
	buildTree(t,
		[]string{"top/x/one", "top/x/two"},
		[]string{"top/x/one"})

	dirs, err := Resolve(testable.DefaultFS, ".")
	require.NoError(t, err)
	assert.Equal(t, []string{"top/x/one"}, dirs)
}

func TestResolve_SubdirectoryRoot(t *testing.T) {
	buildTree(t,
		[]string{"sub/a", "sub/b/c", "sub/d", "other"},
		[]string{"sub/a", "sub/b/c"})

	dirs, err := Resolve(testable.DefaultFS, "sub")
	require.NoError(t, err)
	// Paths keep the root prefix; "other" lies outside the root entirely.
	assert.Equal(t, []string{"sub/a", "sub/b/c", "sub/d"}, dirs)
}

func TestResolve_HiddenDirectoriesIgnored(t *testing.T) {
	buildTree(t, []string{".git/objects", "a"}, nil)
	require.NoError(t, os.WriteFile(
		filepath.Join(".git", configfile.FileName), []byte(`{}`), 0o644))

	dirs, err := Resolve(testable.DefaultFS, ".")
	require.NoError(t, err)
	assert.Equal(t, []string{"."}, dirs)
}
