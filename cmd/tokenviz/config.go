package main

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the tokenviz configuration file
// (~/.config/tokenviz/config.yaml). Sampling fields are pointers so "not
// set" is distinguishable from zero values.
type Config struct {
	// Sampling defaults
	Temperature  *float64 `yaml:"temperature"`
	TopK         *int64   `yaml:"top_k"`
	TopP         *float64 `yaml:"top_p"`
	MaxTokens    *int64   `yaml:"max_tokens"`
	Seed         *int64   `yaml:"seed"`
	Hidden       *int64   `yaml:"hidden"`
	DisplayCount *int64   `yaml:"display_count"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ServerAddress string `yaml:"server_address"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "tokenviz", "config.yaml")
}

// LoadConfig reads the config file. Returns a zero Config if the file
// doesn't exist or cannot be parsed.
func LoadConfig() Config {
	return loadConfigFrom(configPath())
}

func loadConfigFrom(path string) Config {
	if path == "" {
		return Config{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}
	return cfg
}

// applySamplingConfig applies config file defaults to sampling flags when
// the corresponding CLI flag was not explicitly set.
func applySamplingConfig(c *cli.Command, cfg Config, temp *float64, topK *int64, topP *float64) {
	if cfg.Temperature != nil && !c.IsSet("temp") && !c.IsSet("temperature") && !c.IsSet("t") {
		*temp = *cfg.Temperature
	}
	if cfg.TopK != nil && !c.IsSet("top-k") && !c.IsSet("top_k") && !c.IsSet("topk") {
		*topK = *cfg.TopK
	}
	if cfg.TopP != nil && !c.IsSet("top-p") && !c.IsSet("top_p") && !c.IsSet("topp") {
		*topP = *cfg.TopP
	}
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applyServeConfig applies config file defaults to serve command flags.
func applyServeConfig(c *cli.Command, cfg Config, addr *string, display *int64) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
	if cfg.DisplayCount != nil && !c.IsSet("display-count") {
		*display = *cfg.DisplayCount
	}
}

// applyTraceConfig applies config file defaults to trace command flags.
func applyTraceConfig(c *cli.Command, cfg Config, steps, seed, hidden *int64) {
	if cfg.MaxTokens != nil && !c.IsSet("steps") {
		*steps = *cfg.MaxTokens
	}
	if cfg.Seed != nil && !c.IsSet("seed") {
		*seed = *cfg.Seed
	}
	if cfg.Hidden != nil && !c.IsSet("hidden") {
		*hidden = *cfg.Hidden
	}
}
