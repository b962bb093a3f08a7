// Package config loads application settings with koanf from defaults, an
// optional TOML or YAML file and REQENGINE_ environment variables, in that
// order of increasing priority.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix marks environment variables read as configuration
	EnvPrefix = "REQENGINE_"

	// envDelimiter separates nesting levels in variable names, e.g. REQENGINE_ENGINE__MAXATTEMPTS
	envDelimiter = "__"

	keyDelimiter  = "."
	redactedValue = "***"

	sectionLog        = "log"
	sectionLogAliased = "logging"
)

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Source is one layer of configuration. Parser is nil for providers that
// produce a map directly, such as env and confmap.
type Source struct {
	Name     string
	Provider koanf.Provider
	Parser   koanf.Parser
}

// Load reads defaults, the file at path (skipped when empty) and the environment.
func Load(path string) (*Config, error) {
	sources := make([]Source, 0, 2)
	if path != "" {
		src, err := FileSource(path)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	sources = append(sources, EnvSource())

	return LoadFrom(sources...)
}

// FileSource returns a source for a .toml, .yaml or .yml file.
func FileSource(path string) (Source, error) {
	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		parser = toml.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	default:
		return Source{}, NewInvalidFieldError("config file", fmt.Sprintf("unsupported extension for %s", path),
			[]string{".toml", ".yaml", ".yml"})
	}
	return Source{Name: path, Provider: file.Provider(path), Parser: parser}, nil
}

// EnvSource returns the REQENGINE_ environment source.
func EnvSource() Source {
	return Source{
		Name: "environment",
		Provider: env.Provider(keyDelimiter, env.Opt{
			Prefix: EnvPrefix,
			TransformFunc: func(k, v string) (string, any) {
				key := strings.ToLower(strings.TrimPrefix(k, EnvPrefix))
				return strings.ReplaceAll(key, envDelimiter, keyDelimiter), v
			},
		}),
	}
}

// LoadFrom layers sources over the defaults, later sources winning, then
// unmarshals and validates the result.
func LoadFrom(sources ...Source) (*Config, error) {
	k := koanf.New(keyDelimiter)

	if err := k.Load(confmap.Provider(defaults(), keyDelimiter), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	for _, src := range sources {
		layer := koanf.New(keyDelimiter)
		if err := layer.Load(src.Provider, src.Parser); err != nil {
			return nil, NewLoadError(src.Name, err)
		}
		applyLoggingAlias(layer)
		if err := k.Merge(layer); err != nil {
			return nil, NewLoadError(src.Name, err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.k = k

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyLoggingAlias copies a "logging" section into "log" without overriding
// keys the layer sets under "log" itself.
func applyLoggingAlias(layer *koanf.Koanf) {
	if !layer.Exists(sectionLogAliased) {
		return
	}
	for key, value := range layer.Cut(sectionLogAliased).All() {
		target := sectionLog + keyDelimiter + key
		if !layer.Exists(target) {
			_ = layer.Set(target, value)
		}
	}
	layer.Delete(sectionLogAliased)
}

func defaults() map[string]any {
	return map[string]any{
		"app.name": "reqengine",
		"app.env":  EnvDevelopment,

		"log.level":  "info",
		"log.path":   "",
		"log.pretty": false,

		"engine.maxattempts": 3,
		"engine.delay":       "1s",
		"engine.timeout":     "30s",

		"transport.timeout":            "0s",
		"transport.logpayloads":        false,
		"transport.maxpayloadlogbytes": 1024,
		"transport.ratelimit.rps":      0,
		"transport.ratelimit.burst":    0,

		"observability.enabled":          false,
		"observability.service":          "reqengine",
		"observability.trace.exporter":   "stdout",
		"observability.trace.protocol":   "http",
		"observability.metrics.exporter": "stdout",
		"observability.metrics.protocol": "http",
		"observability.metrics.interval": "60s",

		"server.host": "0.0.0.0",
		"server.port": 8080,
	}
}
