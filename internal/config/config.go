package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/robfig/cron/v3"
)

// Config carries everything the plugin reads from its environment. Munin
// passes the lowercase keys through "env.<key>" plugin configuration; the
// MUNIN_* values come from munin-node itself.
type Config struct {
	// Emails is the space-separated list of addresses to monitor. Only
	// required when a refresh actually runs; cached reads work without it.
	Emails string `env:"emails" yaml:"emails"`

	// StateDir is where the snapshot file lives.
	StateDir string `env:"MUNIN_PLUGSTATE, required" yaml:"-"`

	// DirtyConfig holds MUNIN_CAP_DIRTYCONFIG verbatim; the capability is
	// only active when the collector sets it to the literal "1".
	DirtyConfig string `env:"MUNIN_CAP_DIRTYCONFIG" yaml:"-"`

	// FetchTimeout bounds each WKD request. 0 disables the bound.
	FetchTimeout time.Duration `env:"fetch_timeout, default=30s" yaml:"fetchTimeout"`

	// MaxConcurrent caps in-flight resolutions within one batch.
	MaxConcurrent int `env:"max_concurrent, default=8" yaml:"maxConcurrent"`

	// RefreshSchedule is the daemon-mode refresh cadence, in cron syntax.
	RefreshSchedule string `env:"refresh_schedule, default=@hourly" yaml:"refreshSchedule"`

	// File optionally points at a YAML settings file overlaying the above.
	File string `env:"config_file" yaml:"-"`

	Logging LoggingConfig `yaml:"logging"`
}

type LoggingConfig struct {
	Level  string `env:"log_level, default=info" yaml:"level"`   // "debug", "info", etc.
	Format string `env:"log_format, default=text" yaml:"format"` // "json", "text"
}

// Identities returns the configured addresses in input order. Duplicates
// are kept; each occurrence is monitored independently.
func (c *Config) Identities() []string {
	return strings.Fields(c.Emails)
}

// DirtyConfigEnabled reports whether the collector accepts values emitted
// directly after the configuration listing.
func (c *Config) DirtyConfigEnabled() bool {
	return c.DirtyConfig == "1"
}

// Validate checks the tunables. Configuration problems are fatal before
// any network or file activity starts.
func (c *Config) Validate() error {
	var merr *multierror.Error
	if c.FetchTimeout < 0 {
		merr = multierror.Append(merr, fmt.Errorf("fetch_timeout must not be negative, got %s", c.FetchTimeout))
	}
	if c.MaxConcurrent < 1 {
		merr = multierror.Append(merr, fmt.Errorf("max_concurrent must be at least 1, got %d", c.MaxConcurrent))
	}
	if _, err := cron.ParseStandard(c.RefreshSchedule); err != nil {
		merr = multierror.Append(merr, fmt.Errorf("invalid refresh_schedule %q: %w", c.RefreshSchedule, err))
	}
	return merr.ErrorOrNil()
}
