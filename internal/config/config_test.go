package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/grain/internal/foundation/errors"
	"git.home.luguber.info/inful/grain/internal/source"
)

func TestDefault(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "site", cfg.SourceDir)
	assert.Equal(t, "public", cfg.OutputDir)
	assert.Contains(t, cfg.CodeEnabledFiles(), "md")
	assert.Contains(t, cfg.CodeEnabledFiles(), "html")
	assert.Equal(t, []string{"js", "css", "json"}, cfg.CodeAllowedFiles())
	assert.Equal(t, source.ModifierNone, cfg.Modifier)
	assert.True(t, cfg.MarkdownUnsafe())
	assert.Equal(t, 4, cfg.Build.Workers)
	assert.Equal(t, 512, cfg.Cache.MaxEntries)
	assert.NotNil(t, cfg.Site)
	assert.NotNil(t, cfg.SourceModifier())
}

func TestParseOverridesAndNormalizes(t *testing.T) {
	cfg, err := Parse([]byte(`
source_dir: content
output_dir: out
code_enabled_files: [".HTML", "md", "md"]
code_allowed_files: []
source_modifier: normalize-newlines
markdown:
  extensions: [table, footnote]
  unsafe: false
highlight:
  style: monokai
  classes: true
cache:
  max_entries: -1
build:
  workers: 8
  incremental: true
site:
  title: Example
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"html", "md"}, cfg.CodeEnabledFiles())
	assert.Empty(t, cfg.CodeAllowedFiles())
	assert.Contains(t, cfg.CodeEnabledFiles(), "html")
	assert.NotContains(t, cfg.CodeAllowedFiles(), "js")
	assert.False(t, cfg.MarkdownUnsafe())
	assert.Equal(t, "monokai", cfg.Highlight.Style)
	assert.True(t, cfg.Highlight.Classes)
	assert.Equal(t, -1, cfg.Cache.MaxEntries)
	assert.Equal(t, 8, cfg.Build.Workers)
	assert.True(t, cfg.Build.Incremental)
	assert.Equal(t, "Example", cfg.Site["title"])

	mod := cfg.SourceModifier()
	assert.Equal(t, "a\nb", mod(source.New("x.txt", []byte("a\r\nb"))))
}

func TestAccessorsReturnCopies(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)
	got := cfg.CodeEnabledFiles()
	got[0] = "mutated"
	assert.NotEqual(t, "mutated", cfg.CodeEnabledFiles()[0])
}

func TestParseExpandsEnv(t *testing.T) {
	t.Setenv("GRAIN_TEST_OUT", "dist")
	cfg, err := Parse([]byte("output_dir: ${GRAIN_TEST_OUT}\n"))
	require.NoError(t, err)
	assert.Equal(t, "dist", cfg.OutputDir)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		category errors.ErrorCategory
	}{
		{"malformed", "source_dir: [unclosed", errors.CategoryConfig},
		{"unknown modifier", "source_modifier: rot13", errors.CategoryValidation},
		{"same dirs", "source_dir: x\noutput_dir: x", errors.CategoryValidation},
		{"overlapping extension sets", "code_enabled_files: [js]\ncode_allowed_files: [js]", errors.CategoryValidation},
		{"unknown markdown extension", "markdown:\n  extensions: [mermaid]", errors.CategoryValidation},
		{"too many workers", "build:\n  workers: 1000", errors.CategoryValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Equal(t, tt.category, errors.GetCategory(err))
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grain.yaml")
	require.NoError(t, os.WriteFile(path, []byte("source_dir: pages\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "pages", cfg.SourceDir)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, errors.CategoryConfig, errors.GetCategory(err))
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "site", cfg.SourceDir)
}

func TestLoadEnvFileDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GRAIN_ENV_A=file\nGRAIN_ENV_B=file\n"), 0o600))
	t.Chdir(dir)
	t.Setenv("GRAIN_ENV_A", "process")
	t.Setenv("GRAIN_ENV_B", "")
	require.NoError(t, os.Unsetenv("GRAIN_ENV_B"))

	loadEnvFiles()

	assert.Equal(t, "process", os.Getenv("GRAIN_ENV_A"))
	assert.Equal(t, "file", os.Getenv("GRAIN_ENV_B"))
}
