// Package config provides configuration management for factsheet.
//
// The config file says where the factsheet documents live and how they are
// served; the documents themselves hold the facts.
//
// Config file locations (priority order):
//  1. $FACTSHEET_CONFIG
//  2. ./factsheet.yaml
//  3. $XDG_CONFIG_HOME/factsheet/config.yaml
//  4. ~/.config/factsheet/config.yaml
//  5. /etc/factsheet/config.yaml
//
// Sheet globs are matched against page URLs with doublestar semantics, so a
// single "*" does not cross "/"; use "**" for whole subtrees.
//
// Every scalar key can be overridden from the environment, e.g.
// FACTSHEET_SERVER_ADDR or FACTSHEET_LOG_LEVEL.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"factsheet/internal/domain"
)

// DefaultDocument is the sheet served when no sheets are configured
const DefaultDocument = "facts.yaml"

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	return LoadFromPath(FindConfigPath())
}

// LoadFromPath loads config from a specific path. An empty path yields the
// defaults with environment overrides applied.
func LoadFromPath(path string) (*Config, string, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, path, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		durationHook,
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}

	return &cfg, path, nil
}

func newViper() *viper.Viper {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("version", defaults.Version)
	v.SetDefault("repo_url_template", defaults.RepoURLTemplate)
	v.SetDefault("required.component", defaults.Required.Component)
	v.SetDefault("required.deploy", defaults.Required.Deploy)
	v.SetDefault("required.tenant", defaults.Required.Tenant)
	v.SetDefault("server.addr", defaults.Server.Addr)
	v.SetDefault("export.database", defaults.Export.Database)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("watch.enabled", defaults.Watch.Enabled)
	v.SetDefault("watch.debounce", defaults.Watch.Debounce.Duration().String())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	return &Config{
		Version:         1,
		Sheets:          []SheetConfig{{Glob: "**", Path: DefaultDocument}},
		RepoURLTemplate: domain.DefaultRepoURLTemplate,
		Required: RequiredConfig{
			Component: []string{"name", "docs-link", "redmine"},
			Deploy:    []string{"name", "docs-link", "redmine", "servers", "jenkins"},
			Tenant:    []string{"docs-link", "redmine", "hiera", "puppet", "monitoring"},
		},
		Server: ServerConfig{Addr: ":3000"},
		Export: ExportConfig{Database: "./factsheet.db"},
		Log:    LogConfig{Level: "info"},
		Watch:  WatchConfig{Enabled: false, Debounce: Duration(500 * time.Millisecond)},
	}
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Version == 0 {
		c.Version = defaults.Version
	}
	if len(c.Sheets) == 0 {
		c.Sheets = defaults.Sheets
	}
	if c.RepoURLTemplate == "" {
		c.RepoURLTemplate = defaults.RepoURLTemplate
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaults.Server.Addr
	}
	if c.Export.Database == "" {
		c.Export.Database = defaults.Export.Database
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Watch.Debounce <= 0 {
		c.Watch.Debounce = defaults.Watch.Debounce
	}
}

// Validate checks values that would only fail later at request time
func (c *Config) Validate() error {
	for i, s := range c.Sheets {
		if s.Glob == "" || s.Path == "" {
			return fmt.Errorf("sheets[%d]: glob and path are required", i)
		}
		if !doublestar.ValidatePattern(s.Glob) {
			return fmt.Errorf("sheets[%d]: invalid glob %q", i, s.Glob)
		}
	}
	if strings.Count(c.RepoURLTemplate, "%s") != 2 {
		return fmt.Errorf("repo_url_template must contain two %%s verbs, got %q", c.RepoURLTemplate)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// LogLevel returns the configured log level, defaulting to info
func (c *Config) LogLevel() log.Level {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	summary := fmt.Sprintf("Server: %s, Export: %s, Watch: %t\n",
		c.Server.Addr, c.Export.Database, c.Watch.Enabled)
	summary += fmt.Sprintf("Sheets (%d):", len(c.Sheets))
	for _, s := range c.Sheets {
		summary += fmt.Sprintf(" %s=%s", s.Glob, s.Path)
	}
	return summary
}
