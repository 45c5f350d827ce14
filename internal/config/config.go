// Package config holds the doxgraph configuration: where the Doxygen XML
// lives and how the reconciled hierarchy should be presented. Values come
// from defaults, then an optional YAML file, then DOXGRAPH_* environment
// variables, in that order of precedence.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full doxgraph configuration.
type Config struct {
	// XMLDir is the Doxygen XML output directory (the one holding index.xml).
	XMLDir string `yaml:"xml_dir"`

	// StripFromPath is a prefix removed from every file location before the
	// directory forest is matched. Typically the absolute build prefix
	// Doxygen was invoked with.
	StripFromPath string `yaml:"strip_from_path"`

	// TreeView selects the indented hierarchy dump instead of the flat
	// per-kind summary.
	TreeView bool `yaml:"tree_view"`

	// RootTitle is the heading printed above the hierarchy.
	RootTitle string `yaml:"root_title"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		XMLDir:    "xml",
		RootTitle: "Library API",
	}
}

// Load builds a Config from defaults, the YAML file at path when path is not
// empty, and environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DOXGRAPH_XML_DIR"); v != "" {
		c.XMLDir = v
	}
	if v := os.Getenv("DOXGRAPH_STRIP_FROM_PATH"); v != "" {
		c.StripFromPath = v
	}
	if v := os.Getenv("DOXGRAPH_ROOT_TITLE"); v != "" {
		c.RootTitle = v
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.XMLDir == "" {
		return fmt.Errorf("xml_dir must not be empty")
	}
	return nil
}
