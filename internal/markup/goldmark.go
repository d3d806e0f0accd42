package markup

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

// Goldmark renders Markdown. A single instance is reused across goroutines.
type Goldmark struct {
	md goldmark.Markdown
}

var extensionRegistry = map[string]goldmark.Extender{
	"gfm":            extension.GFM,
	"table":          extension.Table,
	"strikethrough":  extension.Strikethrough,
	"linkify":        extension.Linkify,
	"tasklist":       extension.TaskList,
	"footnote":       extension.Footnote,
	"definitionlist": extension.DefinitionList,
	"typographer":    extension.Typographer,
}

// NewGoldmark builds the engine. Unknown extension names are ignored; with
// unsafe set, raw HTML in the source is emitted verbatim.
func NewGoldmark(extensions []string, unsafe bool) *Goldmark {
	rendererOptions := []renderer.Option{}
	if unsafe {
		rendererOptions = append(rendererOptions, html.WithUnsafe())
	}

	opts := []goldmark.Option{
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(rendererOptions...),
	}
	if exts := collectExtensions(extensions); len(exts) > 0 {
		opts = append(opts, goldmark.WithExtensions(exts...))
	}
	return &Goldmark{md: goldmark.New(opts...)}
}

// Convert renders text to HTML.
func (g *Goldmark) Convert(text string) (string, error) {
	var buf bytes.Buffer
	if err := g.md.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("markdown parse: %w", err)
	}
	return buf.String(), nil
}

func collectExtensions(names []string) []goldmark.Extender {
	var extenders []goldmark.Extender
	seen := map[string]struct{}{}
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, ok := seen[key]; ok {
			continue
		}
		ext, ok := extensionRegistry[key]
		if !ok {
			continue
		}
		extenders = append(extenders, ext)
		seen[key] = struct{}{}
	}
	return extenders
}
