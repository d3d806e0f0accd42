// Package config loads the site configuration consumed by the rendering
// pipeline and the site builder.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/grain/internal/foundation/errors"
	"git.home.luguber.info/inful/grain/internal/source"
)

// Config is the site configuration.
type Config struct {
	SourceDir   string          `yaml:"source_dir"`
	OutputDir   string          `yaml:"output_dir"`
	CacheDir    string          `yaml:"cache_dir"`
	CodeEnabled []string        `yaml:"code_enabled_files"`
	CodeAllowed []string        `yaml:"code_allowed_files"`
	Modifier    string          `yaml:"source_modifier"`
	Markdown    MarkdownConfig  `yaml:"markdown"`
	Highlight   HighlightConfig `yaml:"highlight"`
	External    ExternalConfig  `yaml:"external"`
	Cache       CacheConfig     `yaml:"cache"`
	Build       BuildConfig     `yaml:"build"`
	Site        map[string]any  `yaml:"site,omitempty"`

	modifier source.Modifier
}

// MarkdownConfig configures the goldmark engine.
type MarkdownConfig struct {
	Extensions []string `yaml:"extensions"`
	Unsafe     *bool    `yaml:"unsafe,omitempty"` // nil means true
}

// HighlightConfig configures chroma.
type HighlightConfig struct {
	Style   string `yaml:"style"`
	Classes bool   `yaml:"classes"`
}

// ExternalConfig holds converter commands for markup languages without a Go engine.
// Each command receives the document on stdin and writes HTML to stdout.
type ExternalConfig struct {
	RST       []string `yaml:"rst"`
	AsciiDoc  []string `yaml:"asciidoc"`
	TimeoutMS int      `yaml:"timeout_ms,omitempty"`
}

// CacheConfig bounds the compiled template cache.
type CacheConfig struct {
	MaxEntries int `yaml:"max_entries"` // negative = unbounded
}

// BuildConfig tunes the site builder.
type BuildConfig struct {
	Workers     int  `yaml:"workers"`
	Incremental bool `yaml:"incremental"`
}

// Load loads a configuration file. An empty path yields the defaults.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	if configPath == "" {
		return Default()
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- path supplied by the operator
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			WithContext("path", configPath).
			Fatal().
			Build()
	}
	return Parse(data)
}

// Parse decodes configuration YAML, expanding ${VAR} references first.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal config").Fatal().Build()
	}
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() (*Config, error) {
	var cfg Config
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) finish() error {
	applyDefaults(c)
	if err := validate(c); err != nil {
		return err
	}
	m, err := source.LookupModifier(c.Modifier)
	if err != nil {
		return errors.WrapError(err, errors.CategoryValidation, "invalid source_modifier").
			WithContext("known", source.ModifierNames()).Fatal().Build()
	}
	c.modifier = m
	return nil
}

// CodeEnabledFiles lists extensions that always enter the pipeline.
func (c *Config) CodeEnabledFiles() []string { return slices.Clone(c.CodeEnabled) }

// CodeAllowedFiles lists extensions that enter the pipeline only when they open with a header fence.
func (c *Config) CodeAllowedFiles() []string { return slices.Clone(c.CodeAllowed) }

// SourceModifier returns the configured source hook. Never nil.
func (c *Config) SourceModifier() source.Modifier {
	if c.modifier == nil {
		m, _ := source.LookupModifier(source.ModifierNone)
		return m
	}
	return c.modifier
}

// MarkdownUnsafe reports whether raw HTML passes through markdown untouched.
func (c *Config) MarkdownUnsafe() bool {
	return c.Markdown.Unsafe == nil || *c.Markdown.Unsafe
}

// loadEnvFiles loads .env and .env.local when present. Existing process
// variables are never overwritten.
func loadEnvFiles() {
	for _, p := range []string{".env", ".env.local"} {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			slog.Warn("failed to load env file", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		slog.Debug(fmt.Sprintf("Loaded environment variables from %s", p))
	}
}
