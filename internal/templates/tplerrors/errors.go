// Package tplerrors defines the failures template creation can produce.
//
// Every failure crossing the template factory boundary is a *RenderError
// carrying the file path; the more specific ConfigParseError,
// MarkupConversionError and TranslationError are reachable through
// errors.As on its cause chain.
package tplerrors

import (
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/grain/internal/foundation/errors"
)

// Stage names where a RenderError originated.
const (
	StageFragments = "fragments"
	StageHeader    = "header"
	StageMarkup    = "markup"
	StageTranslate = "translate"
	StageCompile   = "compile"
	StageExecute   = "execute"
)

// ConfigParseError reports a malformed header block.
type ConfigParseError struct {
	Err error
}

func (e *ConfigParseError) Error() string { return "malformed header: " + e.Err.Error() }
func (e *ConfigParseError) Unwrap() error { return e.Err }

// MarkupConversionError reports a markup engine failure.
type MarkupConversionError struct {
	Ext string
	Err error
}

func (e *MarkupConversionError) Error() string {
	return fmt.Sprintf("%s conversion failed: %v", e.Ext, e.Err)
}
func (e *MarkupConversionError) Unwrap() error { return e.Err }

// TranslationError reports malformed expression syntax at a 1-based line.
type TranslationError struct {
	Line int
	Msg  string
}

func (e *TranslationError) Error() string { return fmt.Sprintf("line %d: %s", e.Line, e.Msg) }

// RenderError is the single failure type returned across the template
// factory boundary.
type RenderError struct {
	Path       string
	Stage      string
	Diagnostic string
	// Source is the translated template source, set for compile and execute failures.
	Source string
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %s", e.Path, e.Diagnostic)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Listing returns Source with 1-based line numbers.
func (e *RenderError) Listing() string {
	return NumberLines(e.Source)
}

// Report renders the full multi-line diagnostic.
func (e *RenderError) Report() string {
	var b strings.Builder
	fmt.Fprintf(&b, "error rendering %s (%s)\n", e.Path, e.Stage)
	for _, line := range strings.Split(strings.TrimRight(e.Diagnostic, "\n"), "\n") {
		b.WriteString("  ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if e.Source != "" {
		b.WriteString("\nsource:\n")
		b.WriteString(e.Listing())
	}
	return b.String()
}

// Wrap builds a RenderError for path from err. An existing *RenderError is
// copied, with the path filled in when missing; the original may be shared
// between callers of a single compilation and is never written.
func Wrap(path, stage string, err error) *RenderError {
	if err == nil {
		return nil
	}
	var re *RenderError
	if stderrors.As(err, &re) {
		cp := *re
		if cp.Path == "" {
			cp.Path = path
		}
		return &cp
	}
	return &RenderError{Path: path, Stage: stage, Diagnostic: err.Error(), Err: err}
}

// NumberLines prefixes every line of src with its right-aligned 1-based number.
func NumberLines(src string) string {
	if src == "" {
		return ""
	}
	lines := strings.Split(strings.TrimSuffix(src, "\n"), "\n")
	width := len(strconv.Itoa(len(lines)))
	var b strings.Builder
	for i, line := range lines {
		fmt.Fprintf(&b, "%*d | %s\n", width, i+1, line)
	}
	return b.String()
}

// Classify converts a template failure into a ClassifiedError for CLI
// presentation. Errors outside this taxonomy are returned unchanged.
func Classify(err error) error {
	var re *RenderError
	if !stderrors.As(err, &re) {
		return err
	}

	var (
		cpe *ConfigParseError
		mce *MarkupConversionError
		te  *TranslationError
		b   *errors.ErrorBuilder
	)
	switch {
	case stderrors.As(err, &cpe):
		b = errors.NewError(errors.CategoryConfig, "malformed header").WithHint("a leading --- opens a header block; close it with another --- line, or start the file with a blank line if the --- is a horizontal rule")
	case stderrors.As(err, &mce):
		b = errors.MarkupError("markup conversion failed").WithContext("ext", mce.Ext)
	case stderrors.As(err, &te):
		b = errors.TranslationError("template syntax error").WithContext("line", te.Line)
	case re.Stage == StageCompile:
		b = errors.CompileError("template compilation failed")
	default:
		b = errors.RenderError("template rendering failed")
	}
	return b.WithCause(err).WithContext("path", re.Path).WithContext("stage", re.Stage).Build()
}
