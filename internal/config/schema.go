package config

import (
	"reflect"
	"time"
)

// Config is the root configuration structure
type Config struct {
	Version         int            `yaml:"version" mapstructure:"version"`
	Sheets          []SheetConfig  `yaml:"sheets" mapstructure:"sheets"`
	RepoURLTemplate string         `yaml:"repo_url_template" mapstructure:"repo_url_template"`
	Required        RequiredConfig `yaml:"required" mapstructure:"required"`
	Server          ServerConfig   `yaml:"server" mapstructure:"server"`
	Export          ExportConfig   `yaml:"export" mapstructure:"export"`
	Log             LogConfig      `yaml:"log" mapstructure:"log"`
	Watch           WatchConfig    `yaml:"watch" mapstructure:"watch"`
}

// SheetConfig maps page URLs matching Glob to the document at Path.
//
// Globs use doublestar syntax: "*" stays within one path segment and "**"
// crosses segments. An fnmatch-style "/tenants/*" that should also match
// "/tenants/a/index.html" must be written "/tenants/**".
type SheetConfig struct {
	Glob string `yaml:"glob" mapstructure:"glob"`
	Path string `yaml:"path" mapstructure:"path"`
}

// RequiredConfig lists the properties each view insists on
type RequiredConfig struct {
	Component []string `yaml:"component" mapstructure:"component"`
	Deploy    []string `yaml:"deploy" mapstructure:"deploy"`
	Tenant    []string `yaml:"tenant" mapstructure:"tenant"`
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// ExportConfig holds snapshot export settings
type ExportConfig struct {
	Database string `yaml:"database" mapstructure:"database"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
}

// WatchConfig controls reloading sheets when their files change
type WatchConfig struct {
	Enabled  bool     `yaml:"enabled" mapstructure:"enabled"`
	Debounce Duration `yaml:"debounce" mapstructure:"debounce"`
}

// Duration wraps time.Duration so config files can say "500ms"
type Duration time.Duration

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// durationHook decodes strings such as "2s" into Duration fields
func durationHook(_ reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != reflect.TypeOf(Duration(0)) {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, err
		}
		return Duration(parsed), nil
	case time.Duration:
		return Duration(v), nil
	}
	return data, nil
}
