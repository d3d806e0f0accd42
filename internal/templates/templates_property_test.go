//go:build property
// +build property

package templates

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"git.home.luguber.info/inful/grain/internal/metrics"
	"git.home.luguber.info/inful/grain/internal/source"
)

// TestRawPassthroughProperties checks that ungated files come back untouched.
func TestRawPassthroughProperties(t *testing.T) {
	f := NewFactory(defaultStub(), WithHighlighter(stubHighlighter{}), WithCounters(&metrics.PerfCounters{}))
	properties := gopter.NewProperties(nil)

	properties.Property("ungated content renders verbatim", prop.ForAll(
		func(content string, ext string) bool {
			res, err := f.CreateTemplate(source.New("asset."+ext, []byte(content)))
			if err != nil || res.Kind() != KindRaw {
				return false
			}
			out, err := res.Render(nil)
			return err == nil && out == content
		},
		gen.AnyString(),
		gen.OneConstOf("svg", "png", "woff2", "yaml", "toml"),
	))

	properties.Property("code-allowed content without a header is raw", prop.ForAll(
		func(content string) bool {
			res, err := f.CreateTemplate(source.New("app.js", []byte(content)))
			if err != nil || res.Kind() != KindRaw {
				return false
			}
			out, _ := res.Render(nil)
			return out == content
		},
		gen.RegexMatch(`^[a-z${}<%> \n]*$`).SuchThat(func(s string) bool {
			return len(s) == 0 || (s[0] != '-' && s[0] != '/')
		}),
	))

	properties.TestingRun(t)
}
