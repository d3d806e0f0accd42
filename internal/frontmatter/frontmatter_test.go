package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_NoHeader_ReturnsBodyOnly(t *testing.T) {
	input := "# Title\n\nHello\n"

	header, body, fence, err := Split(input)
	require.NoError(t, err)
	require.Nil(t, fence)
	require.Empty(t, header)
	require.Equal(t, input, body)
}

func TestSplit_YAMLHeader(t *testing.T) {
	header, body, fence, err := Split("---\nkey: value\n---\n# Title\n")
	require.NoError(t, err)
	require.NotNil(t, fence)
	assert.Equal(t, "yaml", fence.Name)
	assert.Equal(t, "key: value\n", header)
	assert.Equal(t, "# Title\n", body)
}

func TestSplit_CRLF(t *testing.T) {
	header, body, fence, err := Split("---\r\nkey: value\r\n---\r\nbody\r\n")
	require.NoError(t, err)
	require.NotNil(t, fence)
	assert.Equal(t, "key: value\r\n", header)
	assert.Equal(t, "body\r\n", body)
}

func TestSplit_CommentHeader(t *testing.T) {
	header, body, fence, err := Split("/*-\nscript: true\ncolor: red\n*/\nbody { color: ${color}; }\n")
	require.NoError(t, err)
	require.NotNil(t, fence)
	assert.Equal(t, "comment", fence.Name)
	assert.Equal(t, "script: true\ncolor: red\n", header)
	assert.Equal(t, "body { color: ${color}; }\n", body)
}

func TestSplit_EmptyHeader(t *testing.T) {
	header, body, fence, err := Split("---\n---\nbody")
	require.NoError(t, err)
	require.NotNil(t, fence)
	assert.Empty(t, header)
	assert.Equal(t, "body", body)
}

func TestSplit_ClosingFenceAtEOF(t *testing.T) {
	header, body, _, err := Split("---\na: 1\n---")
	require.NoError(t, err)
	assert.Equal(t, "a: 1\n", header)
	assert.Empty(t, body)
}

func TestSplit_FenceNotAtStart(t *testing.T) {
	input := "\n---\na: 1\n---\n"
	_, body, fence, err := Split(input)
	require.NoError(t, err)
	assert.Nil(t, fence)
	assert.Equal(t, input, body)
}

func TestSplit_LongerDashRunIsNotAFence(t *testing.T) {
	input := "----\na: 1\n----\n"
	_, body, fence, err := Split(input)
	require.NoError(t, err)
	assert.Nil(t, fence)
	assert.Equal(t, input, body)
}

func TestSplit_MissingClosingDelimiter(t *testing.T) {
	_, _, fence, err := Split("---\nkey: value\n# Title\n")
	require.ErrorIs(t, err, ErrMissingClosingDelimiter)
	require.NotNil(t, fence)
}

func TestHasHeaderMarker(t *testing.T) {
	cases := map[string]bool{
		"---\na: 1\n---\n":    true,
		"\n\n  ---\n":         true,
		"/*- header\n*/":      true,
		"\r\n/*-\n":           true,
		"body\n---\n":         false,
		"/* plain comment */": false,
		"":                    false,
		"   \n\t\n":           false,
	}
	for in, want := range cases {
		assert.Equal(t, want, HasHeaderMarker(in), "input %q", in)
	}
}

func TestParseYAML(t *testing.T) {
	fields, err := ParseYAML("title: Hello\ntags: [a, b]\n")
	require.NoError(t, err)
	assert.Equal(t, "Hello", fields["title"])
	assert.Equal(t, []any{"a", "b"}, fields["tags"])

	empty, err := ParseYAML("  \n")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = ParseYAML("title: [unclosed\n")
	require.Error(t, err)

	_, err = ParseYAML("- just\n- a list\n")
	require.Error(t, err)
}
