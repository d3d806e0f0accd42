package config

import (
	"strings"

	"git.home.luguber.info/inful/grain/internal/source"
)

var (
	defaultCodeEnabled = []string{"html", "htm", "xml", "txt", "md", "markdown", "rst", "adoc", "asciidoctor", "rss", "atom"}
	defaultCodeAllowed = []string{"js", "css", "json"}
	defaultMarkdownExt = []string{"gfm"}
	defaultRST         = []string{"rst2html"}
	defaultAsciiDoc    = []string{"asciidoctor", "--embedded", "--out-file", "-", "-"}
)

const (
	defaultSourceDir  = "site"
	defaultOutputDir  = "public"
	defaultCacheDir   = ".grain"
	defaultStyle      = "github"
	defaultMaxEntries = 512
	defaultWorkers    = 4
	defaultTimeoutMS  = 30000
)

// DefaultApplier applies defaults for one configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config)
	Domain() string
}

type pathsDefaults struct{}

func (pathsDefaults) Domain() string { return "paths" }

func (pathsDefaults) ApplyDefaults(cfg *Config) {
	if cfg.SourceDir == "" {
		cfg.SourceDir = defaultSourceDir
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = defaultOutputDir
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = defaultCacheDir
	}
}

type pipelineDefaults struct{}

func (pipelineDefaults) Domain() string { return "pipeline" }

// An explicitly empty list stays empty; only an omitted key gets the default.
func (pipelineDefaults) ApplyDefaults(cfg *Config) {
	if cfg.CodeEnabled == nil {
		cfg.CodeEnabled = append([]string(nil), defaultCodeEnabled...)
	}
	if cfg.CodeAllowed == nil {
		cfg.CodeAllowed = append([]string(nil), defaultCodeAllowed...)
	}
	cfg.CodeEnabled = normalizeExts(cfg.CodeEnabled)
	cfg.CodeAllowed = normalizeExts(cfg.CodeAllowed)
	if strings.TrimSpace(cfg.Modifier) == "" {
		cfg.Modifier = source.ModifierNone
	}
}

type markupDefaults struct{}

func (markupDefaults) Domain() string { return "markup" }

func (markupDefaults) ApplyDefaults(cfg *Config) {
	if cfg.Markdown.Extensions == nil {
		cfg.Markdown.Extensions = append([]string(nil), defaultMarkdownExt...)
	}
	if cfg.Highlight.Style == "" {
		cfg.Highlight.Style = defaultStyle
	}
	if len(cfg.External.RST) == 0 {
		cfg.External.RST = append([]string(nil), defaultRST...)
	}
	if len(cfg.External.AsciiDoc) == 0 {
		cfg.External.AsciiDoc = append([]string(nil), defaultAsciiDoc...)
	}
	if cfg.External.TimeoutMS == 0 {
		cfg.External.TimeoutMS = defaultTimeoutMS
	}
}

type buildDefaults struct{}

func (buildDefaults) Domain() string { return "build" }

func (buildDefaults) ApplyDefaults(cfg *Config) {
	if cfg.Build.Workers <= 0 {
		cfg.Build.Workers = defaultWorkers
	}
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = defaultMaxEntries
	}
	if cfg.Site == nil {
		cfg.Site = map[string]any{}
	}
}

var appliers = []DefaultApplier{pathsDefaults{}, pipelineDefaults{}, markupDefaults{}, buildDefaults{}}

func applyDefaults(cfg *Config) {
	for _, a := range appliers {
		a.ApplyDefaults(cfg)
	}
}

// normalizeExts lower-cases, strips leading dots and drops duplicates, keeping order.
func normalizeExts(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, e := range in {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e == "" {
			continue
		}
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}
