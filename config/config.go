// Package config loads the rig settings from YAML or TOML files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/binzume/quadrig/skinning"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v2"
)

var ErrConfig = errors.New("invalid config")

type SkeletonConfig struct {
	// SwapYZ converts Y-up joint lists to Z-up.
	SwapYZ bool `yaml:"swap_yz" toml:"swap_yz"`
}

type ExportConfig struct {
	Scale float32 `yaml:"scale" toml:"scale"`

	// MaxJoints is the number of joints per vertex written to glTF (1..4).
	MaxJoints int `yaml:"max_joints" toml:"max_joints"`
}

type Config struct {
	Skeleton SkeletonConfig   `yaml:"skeleton" toml:"skeleton"`
	Skinning skinning.Options `yaml:"skinning" toml:"skinning"`
	Export   ExportConfig     `yaml:"export" toml:"export"`
	LogLevel string           `yaml:"log_level" toml:"log_level"`
}

func Default() *Config {
	return &Config{
		Skinning: *skinning.DefaultOptions(),
		Export:   ExportConfig{Scale: 1, MaxJoints: 4},
		LogLevel: "info",
	}
}

// Parse decodes data over the defaults. format is "yaml" or "toml".
func Parse(data []byte, format string) (*Config, error) {
	c := Default()
	var err error
	switch format {
	case "yaml", "yml":
		err = yaml.UnmarshalStrict(data, c)
	case "toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(c)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrConfig, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if c.Skinning.Regions == nil {
		c.Skinning.Regions = skinning.DefaultRegionTable()
	}
	return c, c.Validate()
}

// Load reads a .yaml, .yml or .toml file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(data, strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func (c *Config) Validate() error {
	if err := c.Skinning.Validate(); err != nil {
		return err
	}
	if c.Export.Scale <= 0 {
		return fmt.Errorf("%w: export scale must be > 0", ErrConfig)
	}
	if c.Export.MaxJoints < 1 || c.Export.MaxJoints > 4 {
		return fmt.Errorf("%w: export max_joints must be in 1..4, got %d", ErrConfig, c.Export.MaxJoints)
	}
	return nil
}
