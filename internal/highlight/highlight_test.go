package highlight

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHighlightKnownLanguage(t *testing.T) {
	h := New("github", true)
	out, err := h.Highlight("go", "package main\n")
	require.NoError(t, err)
	assert.Contains(t, out, `class="chroma"`)
	assert.Contains(t, out, "package")
	assert.Contains(t, out, "main")
}

func TestHighlightEscapesHTML(t *testing.T) {
	h := New("github", false)
	out, err := h.Highlight("", "<script>alert(1)</script>")
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;")
}

func TestHighlightUnknownLanguageFallsBack(t *testing.T) {
	h := New("github", true)
	out, err := h.Highlight("no-such-language", "plain words")
	require.NoError(t, err)
	assert.Contains(t, out, "plain")
	assert.Contains(t, out, "words")
}

func TestUnknownStyleFallsBack(t *testing.T) {
	h := New("definitely-not-a-style", false)
	assert.NotEmpty(t, h.StyleName())
}

func TestWriteCSS(t *testing.T) {
	h := New("monokai", true)
	var b strings.Builder
	require.NoError(t, h.WriteCSS(&b))
	assert.Contains(t, b.String(), ".chroma")
}
