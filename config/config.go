// Package config loads the .quarkdep.yml project file: the path lists
// and language version quarkdep's CLI needs before it can build an
// Environment and an ImportGraph.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/quarklang/quarkdep/env"
)

// DefaultFilename is the conventional project config file name. The CLI
// loads a config file only when --config names one; it does not look for
// this file on its own.
const DefaultFilename = ".quarkdep.yml"

// Config is the on-disk project configuration. The core only consumes
// Projects and Deps as path-classification prefix lists; it never
// parses this file format itself — that is this package's job.
type Config struct {
	Projects        []string `yaml:"projects"`
	Deps            []string `yaml:"deps"`
	LanguageVersion string   `yaml:"language_version"`
	OutputDir       string   `yaml:"output_dir"`
}

// Load reads and parses a .quarkdep.yml file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if c.LanguageVersion == "" {
		c.LanguageVersion = "0.1"
	}
	return &c, nil
}

// Version parses LanguageVersion into an env.LangVersion.
func (c *Config) Version() (env.LangVersion, error) {
	return env.ParseLangVersion(c.LanguageVersion)
}

// IsProject reports whether path starts with one of the prefixes listed
// under projects: (as opposed to deps:, which quarkdep still resolves but
// does not error-report on).
func (c *Config) IsProject(path string) bool {
	for _, p := range c.Projects {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
