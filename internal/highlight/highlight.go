// Package highlight renders fenced code blocks to HTML with chroma.
package highlight

import (
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Chroma highlights code with a fixed style and formatter. It is safe for
// concurrent use.
type Chroma struct {
	style     *chroma.Style
	formatter *chromahtml.Formatter
}

// New creates a highlighter. Unknown style names fall back to chroma's default.
// With classes enabled, output carries CSS classes instead of inline styles;
// pair it with WriteCSS.
func New(styleName string, classes bool) *Chroma {
	return &Chroma{
		style:     styles.Get(styleName),
		formatter: chromahtml.New(chromahtml.WithClasses(classes), chromahtml.TabWidth(2)),
	}
}

// Highlight renders code in the named language. An empty or unknown
// language is detected from the code, then falls back to plain text.
func (c *Chroma) Highlight(lang, code string) (string, error) {
	lexer := resolveLexer(lang, code)
	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := c.formatter.Format(&b, c.style, it); err != nil {
		return "", err
	}
	return b.String(), nil
}

// WriteCSS writes the stylesheet matching class-based output.
func (c *Chroma) WriteCSS(w io.Writer) error {
	return c.formatter.WriteCSS(w, c.style)
}

// StyleName returns the resolved style name.
func (c *Chroma) StyleName() string {
	return c.style.Name
}

func resolveLexer(lang, code string) chroma.Lexer {
	var lexer chroma.Lexer
	if lang != "" {
		lexer = lexers.Get(lang)
	}
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}
