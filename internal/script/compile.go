package script

import (
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
	"golang.org/x/sync/singleflight"

	"git.home.luguber.info/inful/grain/internal/metrics"
	"git.home.luguber.info/inful/grain/internal/templates/tplerrors"
)

// NamePrefix prefixes every generated template name.
const NamePrefix = "GrainScript"

// Template is a compiled, immutable template unit.
type Template struct {
	name   string
	source string
	expr   hclsyntax.Expression
	funcs  map[string]function.Function
}

// Name returns the generated name, e.g. GrainScript7.
func (t *Template) Name() string { return t.name }

// Source returns the translated source the template was compiled from.
func (t *Template) Source() string { return t.source }

// Execute evaluates the template against data. Failures are returned as
// *tplerrors.RenderError carrying the annotated source; the path is left
// for the caller to fill in.
func (t *Template) Execute(data map[string]any) (string, error) {
	vars, err := Variables(data)
	if err != nil {
		return "", t.fail(err.Error(), err)
	}
	val, diags := t.expr.Value(&hcl.EvalContext{Variables: vars, Functions: t.funcs})
	if diags.HasErrors() {
		return "", t.fail(diags.Error(), diags)
	}
	if val.IsNull() {
		return "", t.fail(t.name+": template produced a null value", nil)
	}
	if !val.IsWhollyKnown() {
		return "", t.fail(t.name+": template produced an unknown value", nil)
	}
	str, err := convert.Convert(val, cty.String)
	if err != nil {
		return "", t.fail(fmt.Sprintf("%s: result is not a string: %v", t.name, err), err)
	}
	return str.AsString(), nil
}

func (t *Template) fail(diagnostic string, cause error) error {
	return &tplerrors.RenderError{
		Stage:      tplerrors.StageExecute,
		Diagnostic: diagnostic,
		Source:     t.source,
		Err:        cause,
	}
}

// Compiler compiles translated sources and caches the results. It owns the
// name counter, so names are unique per Compiler.
type Compiler struct {
	counter  atomic.Uint64
	cache    *Cache
	group    singleflight.Group
	funcs    map[string]function.Function
	recorder metrics.Recorder
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithMaxEntries bounds the cache; zero or negative is unbounded.
func WithMaxEntries(n int) Option {
	return func(c *Compiler) { c.cache = NewCache(n) }
}

// WithRecorder reports cache activity to r.
func WithRecorder(r metrics.Recorder) Option {
	return func(c *Compiler) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithFunction adds or replaces a template function.
func WithFunction(name string, f function.Function) Option {
	return func(c *Compiler) { c.funcs[name] = f }
}

// NewCompiler creates a Compiler with the default function table.
func NewCompiler(opts ...Option) *Compiler {
	c := &Compiler{
		cache:    NewCache(0),
		funcs:    Functions(),
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NextName returns a fresh generated name. Safe for concurrent use.
func (c *Compiler) NextName() string {
	return NamePrefix + strconv.FormatUint(c.counter.Add(1), 10)
}

// Compile parses source under name without touching the cache. Calls to
// functions outside the function table are rejected here rather than at
// execution time.
func (c *Compiler) Compile(source, name string) (*Template, error) {
	expr, diags := hclsyntax.ParseTemplate([]byte(source), name, hcl.InitialPos)
	if !diags.HasErrors() {
		diags = append(diags, hclsyntax.VisitAll(expr, c.checkFunction)...)
	}
	if diags.HasErrors() {
		return nil, &tplerrors.RenderError{
			Stage:      tplerrors.StageCompile,
			Diagnostic: diags.Error(),
			Source:     source,
			Err:        diags,
		}
	}
	return &Template{name: name, source: source, expr: expr, funcs: c.funcs}, nil
}

// Load returns the cached template for path and source, compiling it under
// a fresh name on a miss. Concurrent misses for the same key share one
// compilation.
func (c *Compiler) Load(path, source string) (*Template, error) {
	key := CacheKey(path, source)
	if t, ok := c.cache.Get(key); ok {
		c.recorder.IncCacheLookup(metrics.CacheHit)
		return t, nil
	}
	c.recorder.IncCacheLookup(metrics.CacheMiss)

	gen := c.cache.Generation()
	v, err, _ := c.group.Do(key, func() (any, error) {
		t, err := c.Compile(source, c.NextName())
		if err != nil {
			return nil, err
		}
		c.cache.Add(key, t, gen)
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Template), nil
}

// InvalidateAll drops every cached template. Compilations in flight finish
// normally; their results are not cached.
func (c *Compiler) InvalidateAll() {
	c.cache.Clear()
	c.recorder.IncCacheInvalidation()
}

// SiteChanged is the site-change notification hook.
func (c *Compiler) SiteChanged() {
	c.InvalidateAll()
}

// Len returns the number of cached templates.
func (c *Compiler) Len() int {
	return c.cache.Len()
}

func (c *Compiler) checkFunction(node hclsyntax.Node) hcl.Diagnostics {
	call, ok := node.(*hclsyntax.FunctionCallExpr)
	if !ok {
		return nil
	}
	if _, known := c.funcs[call.Name]; known {
		return nil
	}
	return hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  "Call to unknown function",
		Detail:   fmt.Sprintf("There is no function named %q.", call.Name),
		Subject:  call.NameRange.Ptr(),
	}}
}
