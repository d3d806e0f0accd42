package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/grain/internal/foundation/errors"
	"git.home.luguber.info/inful/grain/internal/templates/tplerrors"
)

type testEnv struct {
	dir    string
	src    string
	out    string
	config string
}

func newEnv(t *testing.T, files map[string]string) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{
		dir:    dir,
		src:    filepath.Join(dir, "site"),
		out:    filepath.Join(dir, "public"),
		config: filepath.Join(dir, "grain.yaml"),
	}
	for rel, content := range files {
		path := filepath.Join(env.src, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	cfg := "source_dir: " + env.src + "\n" +
		"output_dir: " + env.out + "\n" +
		"cache_dir: " + filepath.Join(dir, "cache") + "\n" +
		"site:\n  name: Grain\n"
	require.NoError(t, os.WriteFile(env.config, []byte(cfg), 0o600))
	return env
}

func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("grain"), kong.Vars{"version": "test"})
	require.NoError(t, err)

	ctx, err := parser.Parse(append([]string{"-c", e.config}, args...))
	require.NoError(t, err)

	var stdout bytes.Buffer
	err = ctx.Run(&Global{Stdout: &stdout}, &cli)
	return stdout.String(), err
}

func TestBuildCommand(t *testing.T) {
	env := newEnv(t, map[string]string{
		"index.html": "<title>${site.name}</title>",
		"about.md":   "# About\n",
	})

	stdout, err := env.run(t, "build")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Built 2 files: 2 rendered, 0 skipped, 0 failed")

	data, err := os.ReadFile(filepath.Join(env.out, "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "<title>Grain</title>", string(data))
	assert.FileExists(t, filepath.Join(env.out, "about.html"))
	assert.FileExists(t, filepath.Join(env.dir, "cache", JournalFile))

	stdout, err = env.run(t, "build", "--incremental")
	require.NoError(t, err)
	assert.Contains(t, stdout, "0 rendered, 2 skipped")
}

func TestBuildCommandReportsFailures(t *testing.T) {
	env := newEnv(t, map[string]string{
		"ok.html":  "fine",
		"bad.html": "${",
	})

	stdout, err := env.run(t, "build")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryBuild))
	assert.Contains(t, stdout, "bad.html")
	assert.Contains(t, stdout, "1 failed")
}

func TestBuildCommandWritesMetricsFile(t *testing.T) {
	env := newEnv(t, map[string]string{"index.html": "${1}"})
	metricsFile := filepath.Join(env.dir, "grain.prom")

	_, err := env.run(t, "--metrics-file", metricsFile, "build")
	require.NoError(t, err)

	data, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "grain_")
}

func TestRenderCommand(t *testing.T) {
	env := newEnv(t, map[string]string{"page.html": "${path} on ${site.name}"})

	stdout, err := env.run(t, "render", filepath.Join(env.src, "page.html"))
	require.NoError(t, err)
	assert.Equal(t, "page.html on Grain", stdout)

	target := filepath.Join(env.dir, "rendered.html")
	stdout, err = env.run(t, "render", "-o", target, filepath.Join(env.src, "page.html"))
	require.NoError(t, err)
	assert.Empty(t, stdout)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "page.html on Grain", string(data))
}

func TestRenderCommandClassifiesTemplateErrors(t *testing.T) {
	env := newEnv(t, map[string]string{"page.html": "one\n<% endif %>"})

	_, err := env.run(t, "render", filepath.Join(env.src, "page.html"))
	require.Error(t, err)

	classified := tplerrors.Classify(err)
	assert.True(t, errors.HasCategory(classified, errors.CategoryTranslation))
	assert.Equal(t, 9, errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(classified))
}

func TestMissingConfigIsConfigError(t *testing.T) {
	env := newEnv(t, nil)
	env.config = filepath.Join(env.dir, "missing.yaml")

	_, err := env.run(t, "build")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}
