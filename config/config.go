// Package config provides configuration loading for the clara-graph CLI.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"clara-graph/graph"
	"clara-graph/match"
	"clara-graph/rulefile"
)

// ProjectConfigFile is the config file looked up in the working directory
// when no path is given.
const ProjectConfigFile = "clara-graph.yaml"

// Config represents the complete CLI configuration.
type Config struct {
	// Rules are rule files or directories to load, in order.
	Rules []string `yaml:"rules"`
	// Pattern selects rule files inside rule directories.
	Pattern string `yaml:"pattern"`
	// MergePolicy is "accumulate" or "dedup".
	MergePolicy string `yaml:"merge_policy"`
	// InsertOps overrides the recognized insert operation names.
	InsertOps []string `yaml:"insert_ops"`
	// Groups are named fact patterns usable with --mode group.
	Groups []match.Group `yaml:"groups"`
	// GroupsFile is a YAML file of further groups. Inline groups take
	// precedence on a name clash.
	GroupsFile string `yaml:"groups_file"`
}

// DefaultConfig returns a Config with defaults.
func DefaultConfig() *Config {
	return &Config{
		Pattern:     rulefile.DefaultPattern,
		MergePolicy: graph.Accumulate.String(),
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if _, err := graph.ParseMergePolicy(c.MergePolicy); err != nil {
		return fmt.Errorf("merge_policy: %w", err)
	}
	for _, g := range c.Groups {
		if g.Name == "" {
			return errors.New("groups: every group needs a name")
		}
		if len(g.Patterns) == 0 {
			return fmt.Errorf("groups: %s has no patterns", g.Name)
		}
	}
	return nil
}

// Policy returns the parsed merge policy.
func (c *Config) Policy() graph.MergePolicy {
	p, _ := graph.ParseMergePolicy(c.MergePolicy)
	return p
}

// FactGroups returns the inline groups followed by those of GroupsFile.
func (c *Config) FactGroups() (*match.Groups, error) {
	groups := match.NewGroups(c.Groups)
	if c.GroupsFile == "" {
		return groups, nil
	}
	fromFile, err := match.LoadGroups(c.GroupsFile)
	if err != nil {
		return nil, err
	}
	return groups.Merge(fromFile), nil
}

// LoadFromFile reads a config file over the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Load reads path, or ProjectConfigFile when path is empty. A missing
// project file yields the defaults; a missing explicit path is an error.
func Load(path string, logger *slog.Logger) (*Config, error) {
	if logger == nil {
		logger = slog.Default()
	}

	explicit := path != ""
	if !explicit {
		path = ProjectConfigFile
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			logger.Debug("no project config, using defaults")
			return DefaultConfig(), nil
		}
		return nil, err
	}
	logger.Debug("loaded config", slog.String("path", path))
	return cfg, nil
}
