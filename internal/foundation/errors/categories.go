package errors

import "maps"

// ErrorCategory groups failures by the part of grain that produced them.
// Each category maps to a process exit code.
type ErrorCategory string

const (
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// Template pipeline categories, one per failing stage.
	CategoryMarkup      ErrorCategory = "markup"
	CategoryTranslation ErrorCategory = "translation"
	CategoryCompile     ErrorCategory = "compile"
	CategoryRender      ErrorCategory = "render"

	CategoryBuild      ErrorCategory = "build"
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryJournal    ErrorCategory = "journal"

	CategoryInternal ErrorCategory = "internal"
)

var exitCodes = map[ErrorCategory]int{
	CategoryValidation:  2,
	CategoryConfig:      7,
	CategoryMarkup:      9,
	CategoryTranslation: 9,
	CategoryCompile:     9,
	CategoryRender:      9,
	CategoryInternal:    10,
	CategoryBuild:       11,
	CategoryFileSystem:  11,
	CategoryJournal:     11,
}

// ExitCode returns the process exit code for the category, 1 when unknown.
func (c ErrorCategory) ExitCode() int {
	if code, ok := exitCodes[c]; ok {
		return code
	}
	return 1
}

// UserFacing reports whether messages in this category are meant for site
// authors rather than grain developers.
func (c ErrorCategory) UserFacing() bool {
	return c != CategoryInternal
}

// ErrorSeverity indicates how far a failure reaches.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // the command cannot continue
	SeverityError   ErrorSeverity = "error"   // one file or operation failed
	SeverityWarning ErrorSeverity = "warning" // degraded, work continues
)

// ErrorContext holds structured key/value details attached to an error.
type ErrorContext map[string]any

// Get returns the value stored under key.
func (c ErrorContext) Get(key string) (any, bool) {
	v, ok := c[key]
	return v, ok
}

// GetString returns the value stored under key when it is a string.
func (c ErrorContext) GetString(key string) (string, bool) {
	s, ok := c[key].(string)
	return s, ok
}

func (c ErrorContext) with(key string, value any) ErrorContext {
	out := make(ErrorContext, len(c)+1)
	maps.Copy(out, c)
	out[key] = value
	return out
}
