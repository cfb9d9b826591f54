package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davetashner/typeshift/internal/convert"
)

func TestLoad_MissingFileYieldsZeroConfig(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)
}

func TestLoad_ParsesFields(t *testing.T) {
	dir := t.TempDir()
	content := "glob: 25\nfixme_threshold: 10\nlint: true\nformatter: [black, .]\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Glob)
	assert.Equal(t, 10, cfg.FixmeThreshold)
	assert.True(t, cfg.Lint)
	assert.Equal(t, []string{"black", "."}, cfg.Formatter)
}

func TestLoad_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("glob: ["), 0o644))

	_, err := Load(dir)
	require.Error(t, err)
}

func TestMerge_CLIOverridesFile(t *testing.T) {
	fileCfg := &Config{Glob: 25, FixmeThreshold: 10}
	cli := convert.RunConfig{Glob: 5, FixmeThreshold: 3}

	result := Merge(fileCfg, cli)
	assert.Equal(t, 5, result.Glob)
	assert.Equal(t, 3, result.FixmeThreshold)
}

func TestMerge_FileFillsInDefaults(t *testing.T) {
	fileCfg := &Config{Glob: 25, FixmeThreshold: 10, Lint: true, PyreOnly: true}
	cli := convert.RunConfig{Root: "sub"}

	result := Merge(fileCfg, cli)
	assert.Equal(t, "sub", result.Root)
	assert.Equal(t, 25, result.Glob)
	assert.Equal(t, 10, result.FixmeThreshold)
	assert.True(t, result.Lint)
	assert.True(t, result.PyreOnly)
}

func TestMerge_EmptyFileConfigIsNoop(t *testing.T) {
	cli := convert.RunConfig{Glob: 5, Lint: true}
	result := Merge(&Config{}, cli)
	assert.Equal(t, cli, result)
}
