package script

import (
	"fmt"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/grain/internal/metrics"
	"git.home.luguber.info/inful/grain/internal/templates/tplerrors"
)

type cacheRecorder struct {
	metrics.NoopRecorder
	hits, misses, invalidations atomic.Int64
}

func (r *cacheRecorder) IncCacheLookup(res metrics.CacheResult) {
	if res == metrics.CacheHit {
		r.hits.Add(1)
		return
	}
	r.misses.Add(1)
}

func (r *cacheRecorder) IncCacheInvalidation() { r.invalidations.Add(1) }

func render(t *testing.T, src string, data map[string]any) string {
	t.Helper()
	c := NewCompiler()
	translated, err := Translate(src, nil, false)
	require.NoError(t, err)
	tpl, err := c.Compile(translated, c.NextName())
	require.NoError(t, err)
	out, err := tpl.Execute(data)
	require.NoError(t, err)
	return out
}

func TestExecute(t *testing.T) {
	data := map[string]any{
		"name":  "World",
		"items": []any{"a", "b"},
		"count": 3,
		"page":  map[string]any{"title": "Home", "draft": false},
		"site":  map[any]any{"name": "Grain"},
	}
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"interpolation", "Hello ${name}!", "Hello World!"},
		{"arithmetic", "${1+1}", "2"},
		{"erb", "<%= upper(name) %>", "WORLD"},
		{"nested object", "${page.title} - ${site.name}", "Home - Grain"},
		{"loop", "<% for i in items %>[${upper(i)}]<% endfor %>", "[A][B]"},
		{"conditional", "<% if page.draft %>draft<% else %>live<% endif %>", "live"},
		{"functions", `${join(",", sort(["b", "a"]))} ${length(items)} ${escape_html("<b>")}`, "a,b 2 &lt;b&gt;"},
		{"escaped markers stay literal", `\${name} \<%= name %>`, "${name} <%= name %>"},
		{"literal dollar before interpolation", "$${count}", "$3"},
		{"literal percent before directive", "100%<% if true %>!<% endif %>", "100%!"},
		{"literal percent brace", "50%{x}", "50%{x}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, render(t, tt.src, data))
		})
	}
}

func TestNextNameIsMonotonic(t *testing.T) {
	c := NewCompiler()
	assert.Equal(t, "GrainScript1", c.NextName())
	assert.Equal(t, "GrainScript2", c.NextName())
	assert.Equal(t, "GrainScript1", NewCompiler().NextName(), "counter is owned by the compiler")
}

func TestCompileError(t *testing.T) {
	c := NewCompiler()
	_, err := c.Compile("first line\n${ 1 + }\n", "GrainScript9")

	var re *tplerrors.RenderError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, tplerrors.StageCompile, re.Stage)
	assert.Contains(t, re.Diagnostic, "GrainScript9:2")
	assert.Contains(t, re.Listing(), "1 | first line\n2 | ${ 1 + }\n")
}

func TestCompileRejectsUnknownFunction(t *testing.T) {
	_, err := NewCompiler().Compile("${nope(1)}", "GrainScript1")
	var re *tplerrors.RenderError
	require.ErrorAs(t, err, &re)
	assert.Contains(t, re.Diagnostic, `no function named "nope"`)
}

func TestWithFunction(t *testing.T) {
	c := NewCompiler(WithFunction("shout", EscapeHTMLFunc))
	tpl, err := c.Compile(`${shout("&")}`, c.NextName())
	require.NoError(t, err)
	out, err := tpl.Execute(nil)
	require.NoError(t, err)
	assert.Equal(t, "&amp;", out)
}

func TestExecuteErrors(t *testing.T) {
	c := NewCompiler()
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"unknown variable", "${missing}", "Unknown variable"},
		{"null result", "${null}", "null"},
		{"non string result", "${[1, 2]}", "not a string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl, err := c.Compile(tt.src, c.NextName())
			require.NoError(t, err)
			_, err = tpl.Execute(map[string]any{})
			var re *tplerrors.RenderError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, tplerrors.StageExecute, re.Stage)
			assert.Contains(t, re.Diagnostic, tt.msg)
			assert.Equal(t, tt.src, re.Source)
		})
	}
}

func TestLoadCachesByPathAndSource(t *testing.T) {
	rec := &cacheRecorder{}
	c := NewCompiler(WithRecorder(rec))

	a, err := c.Load("a.html", "${1}")
	require.NoError(t, err)
	again, err := c.Load("a.html", "${1}")
	require.NoError(t, err)
	assert.Same(t, a, again)

	changed, err := c.Load("a.html", "${2}")
	require.NoError(t, err)
	assert.NotEqual(t, a.Name(), changed.Name())

	other, err := c.Load("b.html", "${1}")
	require.NoError(t, err)
	assert.NotEqual(t, a.Name(), other.Name())

	assert.Equal(t, 3, c.Len())
	assert.Equal(t, int64(1), rec.hits.Load())
	assert.Equal(t, int64(3), rec.misses.Load())
}

func TestLoadDoesNotCacheFailures(t *testing.T) {
	c := NewCompiler()
	_, err := c.Load("bad.html", "${ 1 + }")
	require.Error(t, err)
	assert.Zero(t, c.Len())
}

func TestInvalidateAll(t *testing.T) {
	rec := &cacheRecorder{}
	c := NewCompiler(WithRecorder(rec))
	first, err := c.Load("a.html", "${1}")
	require.NoError(t, err)

	c.SiteChanged()
	assert.Zero(t, c.Len())
	assert.Equal(t, int64(1), rec.invalidations.Load())

	second, err := c.Load("a.html", "${1}")
	require.NoError(t, err)
	assert.NotEqual(t, first.Name(), second.Name())
}

func TestMaxEntriesEvicts(t *testing.T) {
	c := NewCompiler(WithMaxEntries(2))
	for i := range 5 {
		_, err := c.Load(fmt.Sprintf("p%d.html", i), "x")
		require.NoError(t, err)
	}
	assert.Equal(t, 2, c.Len())
}

func TestCacheIgnoresStaleAdds(t *testing.T) {
	cache := NewCache(0)
	gen := cache.Generation()
	cache.Clear()
	assert.False(t, cache.Add("k", &Template{name: "GrainScript1"}, gen))
	assert.True(t, cache.Add("k", &Template{name: "GrainScript2"}, cache.Generation()))
	got, ok := cache.Get("k")
	require.True(t, ok)
	assert.Equal(t, "GrainScript2", got.Name())
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, CacheKey("a", "src"), CacheKey("a", "src"))
	assert.NotEqual(t, CacheKey("a", "src"), CacheKey("b", "src"))
	assert.NotEqual(t, CacheKey("a", "src"), CacheKey("a", "src2"))
}

func TestConcurrentCompilationYieldsUniqueNames(t *testing.T) {
	c := NewCompiler()
	const n = 200
	names := make([]string, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tpl, err := c.Load(fmt.Sprintf("page%d.html", i), fmt.Sprintf("page ${%d}", i))
			if err == nil {
				names[i] = tpl.Name()
			}
		}()
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for _, name := range names {
		require.NotEmpty(t, name)
		assert.False(t, seen[name], "duplicate name %s", name)
		seen[name] = true
	}
}

func TestInvalidateDuringConcurrentCompilation(t *testing.T) {
	c := NewCompiler(WithMaxEntries(16))
	namePattern := regexp.MustCompile(`^GrainScript\d+$`)
	stop := make(chan struct{})
	var invalidator sync.WaitGroup
	invalidator.Add(1)
	go func() {
		defer invalidator.Done()
		for {
			select {
			case <-stop:
				return
			default:
				c.InvalidateAll()
			}
		}
	}()

	var wg sync.WaitGroup
	errs := make(chan error, 400)
	for i := range 400 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			src := fmt.Sprintf("file %d: ${%d}", i%20, i%20)
			tpl, err := c.Load(fmt.Sprintf("f%d.html", i%20), src)
			if err != nil {
				errs <- err
				return
			}
			if tpl.Source() != src || !namePattern.MatchString(tpl.Name()) {
				errs <- fmt.Errorf("template %s does not match its source", tpl.Name())
				return
			}
			out, err := tpl.Execute(nil)
			if err != nil {
				errs <- err
				return
			}
			if out != fmt.Sprintf("file %d: %d", i%20, i%20) {
				errs <- fmt.Errorf("unexpected output %q", out)
			}
		}()
	}
	wg.Wait()
	close(stop)
	invalidator.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestVariablesSkipsInvalidIdentifiers(t *testing.T) {
	vars, err := Variables(map[string]any{"ok": 1, "with-dash": 2, "1bad": 3, "a.b": 4, "nested": map[string]any{"a.b": "v"}})
	require.NoError(t, err)
	assert.Contains(t, vars, "ok")
	assert.Contains(t, vars, "with-dash")
	assert.NotContains(t, vars, "1bad")
	assert.NotContains(t, vars, "a.b")

	tpl, err := NewCompiler().Compile(`${nested["a.b"]}`, "GrainScript1")
	require.NoError(t, err)
	out, err := tpl.Execute(map[string]any{"nested": map[string]any{"a.b": "v"}})
	require.NoError(t, err)
	assert.Equal(t, "v", out)
}

func TestDashNeedsSpacesToSubtract(t *testing.T) {
	data := map[string]any{"a": 5, "b": 2, "a-b": "dashed"}
	assert.Equal(t, "dashed", render(t, "${a-b}", data))
	assert.Equal(t, "3", render(t, "${a - b}", data))
}

func TestMarkupStringHoldsClosingBrace(t *testing.T) {
	translated, err := Translate("<p>${upper(&quot;}&quot;)}</p>", nil, true)
	require.NoError(t, err)
	c := NewCompiler()
	tpl, err := c.Compile(translated, c.NextName())
	require.NoError(t, err)
	out, err := tpl.Execute(nil)
	require.NoError(t, err)
	assert.Equal(t, "<p>}</p>", out)
}
