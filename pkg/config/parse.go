package config

import (
	"encoding/json"
	"fmt"

	"github.com/BurntSushi/toml"
)

// SourceFormat identifies the serialization used by a raw configuration
// source passed to ConfigFrom (spec.md §6: json, yaml, toml).
type SourceFormat string

const (
	SourceFormatJSON SourceFormat = "json"
	SourceFormatYAML SourceFormat = "yaml"
	SourceFormatTOML SourceFormat = "toml"
)

// FromJSON parses a configuration from JSON bytes.
func FromJSON(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}

	if cfg.Rules == nil {
		cfg.Rules = make(map[string]RuleConfig)
	}

	return cfg, nil
}

// FromTOML parses a configuration from TOML bytes.
func FromTOML(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse toml: %w", err)
	}

	if cfg.Rules == nil {
		cfg.Rules = make(map[string]RuleConfig)
	}

	return cfg, nil
}

// ConfigFrom parses raw configuration bytes in the given format. It is the
// core entry point named in spec.md §6:
// `config_from(source, format ∈ {json, yaml, toml}) → Config`.
//
// The core accepts an already-typed Config from its callers; ConfigFrom is
// the one seam where a serialized source is turned into that typed value,
// so that the config-loading collaborator (internal/configloader) and the
// engine facade share a single parsing path per format.
func ConfigFrom(source []byte, format SourceFormat) (*Config, error) {
	switch format {
	case SourceFormatJSON:
		return FromJSON(source)
	case SourceFormatYAML:
		return FromYAML(source)
	case SourceFormatTOML:
		return FromTOML(source)
	default:
		return nil, fmt.Errorf("config: unrecognized format %q", format)
	}
}
