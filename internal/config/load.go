package config

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

// matches $(VAR_NAME)
var envPattern = regexp.MustCompile(`\$\(([A-Za-z0-9_]+)\)`)

// replaces $(VAR) with os.Getenv(VAR)
func expandEnvVars(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(m string) string {
		return os.Getenv(envPattern.FindStringSubmatch(m)[1])
	})
}

// Load reads configuration from the process environment, then overlays the
// optional YAML settings file when config_file is set.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith is Load with an injectable lookuper for tests.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &cfg, lookuper); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	if cfg.File != "" {
		if err := cfg.applyFile(cfg.File); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// fileSettings mirrors the tunable subset of Config with pointer fields, so
// only keys actually present in the file override the environment.
type fileSettings struct {
	Emails          *string `yaml:"emails"`
	FetchTimeout    *string `yaml:"fetchTimeout"`
	MaxConcurrent   *int    `yaml:"maxConcurrent"`
	RefreshSchedule *string `yaml:"refreshSchedule"`
	Logging         struct {
		Level  *string `yaml:"level"`
		Format *string `yaml:"format"`
	} `yaml:"logging"`
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	// expand $(ENV_VAR) placeholders before unmarshalling
	var fc fileSettings
	if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), &fc); err != nil {
		return fmt.Errorf("unmarshalling yaml: %w", err)
	}

	if fc.Emails != nil {
		c.Emails = *fc.Emails
	}
	if fc.FetchTimeout != nil {
		d, err := time.ParseDuration(*fc.FetchTimeout)
		if err != nil {
			return fmt.Errorf("parsing fetchTimeout: %w", err)
		}
		c.FetchTimeout = d
	}
	if fc.MaxConcurrent != nil {
		c.MaxConcurrent = *fc.MaxConcurrent
	}
	if fc.RefreshSchedule != nil {
		c.RefreshSchedule = *fc.RefreshSchedule
	}
	if fc.Logging.Level != nil {
		c.Logging.Level = *fc.Logging.Level
	}
	if fc.Logging.Format != nil {
		c.Logging.Format = *fc.Logging.Format
	}
	return nil
}
