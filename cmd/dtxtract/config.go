package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/mibar/dtxtract/internal/warn"
)

// Config holds the optional YAML config file's contents (log level/format,
// default warning-filter policy, current-date override),
// following MacroPower-x/log.Config and MacroPower-x/profile.Config's
// shape: plain exported fields decoded straight from YAML, no builder.
type Config struct {
	LogLevel    string           `yaml:"log-level"`
	LogFormat   string           `yaml:"log-format"`
	CurrentDate string           `yaml:"current-date"` // RFC3339; empty means wall-clock
	Warnings    []WarningFilter  `yaml:"warning-filters"`
}

// WarningFilter mirrors one warn.Registry.SetFilter call (spec §6
// "Filtering supports six actions").
type WarningFilter struct {
	Category string `yaml:"category"`
	CallerID string `yaml:"caller-id"`
	Severity int    `yaml:"severity"`
	Action   string `yaml:"action"`
}

// LoadConfig reads and decodes the YAML config file at path. A missing
// path is not an error; LoadConfig returns a zero-value Config.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}

// ApplyWarningFilters installs cfg's filter rules into reg.
func (cfg *Config) ApplyWarningFilters(reg *warn.Registry) {
	for _, f := range cfg.Warnings {
		reg.SetFilter(categoryFromName(f.Category), f.CallerID, warn.Severity(f.Severity), actionFromName(f.Action))
	}
}

// CurrentDateAnchor parses cfg.CurrentDate, falling back to now when unset
// or unparsable.
func (cfg *Config) CurrentDateAnchor() time.Time {
	if cfg.CurrentDate == "" {
		return time.Now().UTC()
	}
	t, err := time.Parse(time.RFC3339, cfg.CurrentDate)
	if err != nil {
		return time.Now().UTC()
	}
	return t
}

func categoryFromName(name string) warn.Category {
	switch strings.ToLower(name) {
	case "data":
		return warn.CategoryData
	case "spec-data":
		return warn.CategorySpecData
	case "conversion":
		return warn.CategoryConversion
	case "parse":
		return warn.CategoryParse
	case "calc":
		return warn.CategoryCalc
	case "url":
		return warn.CategoryURL
	case "link":
		return warn.CategoryLink
	default:
		return warn.CategoryGeneral
	}
}

func actionFromName(name string) warn.Action {
	switch strings.ToLower(name) {
	case "error":
		return warn.ActionError
	case "ignore":
		return warn.ActionIgnore
	case "always":
		return warn.ActionAlways
	case "module":
		return warn.ActionModule
	case "once":
		return warn.ActionOnce
	default:
		return warn.ActionDefault
	}
}
