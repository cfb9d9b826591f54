// Package config loads .typeshift.yaml, the optional per-repo defaults file
// for conversion flags. CLI-provided values always win; file values fill in
// whatever the command line left unset.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/davetashner/typeshift/internal/convert"
)

// FileName is the defaults file looked up at the repository root.
const FileName = ".typeshift.yaml"

// Config mirrors the .typeshift.yaml schema.
type Config struct {
	Glob           int      `yaml:"glob"`
	FixmeThreshold int      `yaml:"fixme_threshold"`
	Lint           bool     `yaml:"lint"`
	PyreOnly       bool     `yaml:"pyre_only"`
	Formatter      []string `yaml:"formatter"`
}

// Load reads the defaults file from the given repository root. A missing
// file yields a zero-value Config and nil error.
func Load(repoPath string) (*Config, error) {
	path := filepath.Join(repoPath, FileName)
	data, err := os.ReadFile(path) //nolint:gosec // user-provided repo path
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Merge combines file-based defaults with CLI-provided run parameters.
// CLI values take precedence; zero-value CLI fields fall through to the
// file config.
func Merge(fileCfg *Config, cli convert.RunConfig) convert.RunConfig {
	result := cli

	if result.Glob == 0 && fileCfg.Glob > 0 {
		result.Glob = fileCfg.Glob
	}
	if result.FixmeThreshold == 0 && fileCfg.FixmeThreshold > 0 {
		result.FixmeThreshold = fileCfg.FixmeThreshold
	}
	if !result.Lint && fileCfg.Lint {
		result.Lint = true
	}
	if !result.PyreOnly && fileCfg.PyreOnly {
		result.PyreOnly = true
	}
	return result
}
