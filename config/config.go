// Package config loads flowc's optional project config file: plain YAML,
// defaults filled in code, no env var layer.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/flowc/task"
)

// FileName is the name of the optional project-level config file.
const FileName = ".flowc.yaml"

// Config carries the account/region defaults used to build a Task's ASL
// Resource ARN (task.Config).
type Config struct {
	Region  string `yaml:"region"`
	Account string `yaml:"account"`
}

// Default returns a Config pre-filled with task.DefaultConfig's values.
func Default() *Config {
	def := task.DefaultConfig()
	return &Config{Region: def.Region, Account: def.Account}
}

// Load reads path as YAML, returning Default() unchanged if path does not
// exist.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// TaskConfig adapts Config to task.Config for wiring into the translator.
func (c *Config) TaskConfig() *task.Config {
	return &task.Config{Region: c.Region, Account: c.Account}
}
