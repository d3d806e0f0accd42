package config

import (
	"fmt"
	"slices"
	"strings"

	"git.home.luguber.info/inful/grain/internal/foundation/errors"
)

// KnownMarkdownExtensions lists the goldmark extension names accepted in markdown.extensions.
var KnownMarkdownExtensions = []string{"gfm", "table", "strikethrough", "linkify", "tasklist", "footnote", "definitionlist", "typographer"}

// validate checks the configuration after defaults have been applied.
func validate(cfg *Config) error {
	v := &configurationValidator{config: cfg}
	for _, step := range []func() error{v.validatePaths, v.validateExtensions, v.validateMarkup, v.validateLimits} {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

type configurationValidator struct {
	config *Config
}

func (cv *configurationValidator) validatePaths() error {
	if strings.TrimSpace(cv.config.SourceDir) == strings.TrimSpace(cv.config.OutputDir) {
		return errors.ValidationError("source_dir and output_dir must differ").
			WithContext("source_dir", cv.config.SourceDir).
			Build()
	}
	return nil
}

func (cv *configurationValidator) validateExtensions() error {
	for _, e := range cv.config.CodeAllowed {
		if slices.Contains(cv.config.CodeEnabled, e) {
			return errors.ValidationError(fmt.Sprintf("extension %q listed in both code_enabled_files and code_allowed_files", e)).
				WithContext("ext", e).
				Build()
		}
	}
	return nil
}

func (cv *configurationValidator) validateMarkup() error {
	for _, name := range cv.config.Markdown.Extensions {
		if !slices.Contains(KnownMarkdownExtensions, strings.ToLower(name)) {
			return errors.ValidationError(fmt.Sprintf("unknown markdown extension %q", name)).
				WithContext("known", strings.Join(KnownMarkdownExtensions, ", ")).
				Build()
		}
	}
	if strings.TrimSpace(cv.config.External.RST[0]) == "" || strings.TrimSpace(cv.config.External.AsciiDoc[0]) == "" {
		return errors.ValidationError("external converter command must not be blank").Build()
	}
	if cv.config.External.TimeoutMS < 0 {
		return errors.ValidationError("external.timeout_ms must not be negative").Build()
	}
	return nil
}

func (cv *configurationValidator) validateLimits() error {
	if cv.config.Build.Workers > 256 {
		return errors.ValidationError(fmt.Sprintf("build.workers %d exceeds 256", cv.config.Build.Workers)).Build()
	}
	return nil
}
