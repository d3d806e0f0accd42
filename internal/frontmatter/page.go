package frontmatter

import (
	"errors"
	"fmt"
	"maps"
)

// Reserved header keys interpreted by the pipeline.
const (
	KeyScript         = "script"
	KeySourceModifier = "source_modifier"
)

// ErrInvalidDirective is returned when a reserved key carries a value of the wrong type.
var ErrInvalidDirective = errors.New("invalid header directive")

// PageConfig is the header mapping merged over process defaults. It is
// read-only once built.
type PageConfig struct {
	values map[string]any
}

// Parse decodes header and merges it over defaults; header values win.
func Parse(header string, defaults map[string]any) (PageConfig, error) {
	fields, err := ParseYAML(header)
	if err != nil {
		return PageConfig{}, err
	}
	merged := make(map[string]any, len(defaults)+len(fields))
	maps.Copy(merged, defaults)
	maps.Copy(merged, fields)

	if v, ok := fields[KeyScript]; ok {
		if _, isBool := v.(bool); !isBool {
			return PageConfig{}, fmt.Errorf("%w: %s must be a boolean, got %T", ErrInvalidDirective, KeyScript, v)
		}
	}
	if v, ok := fields[KeySourceModifier]; ok {
		if _, isString := v.(string); !isString {
			return PageConfig{}, fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidDirective, KeySourceModifier, v)
		}
	}
	return PageConfig{values: merged}, nil
}

// Script returns the explicit script override and whether one was given.
func (p PageConfig) Script() (script bool, set bool) {
	v, ok := p.values[KeyScript].(bool)
	return v, ok
}

// SourceModifier names the header's source modifier, or "".
func (p PageConfig) SourceModifier() string {
	s, _ := p.values[KeySourceModifier].(string)
	return s
}

// Get returns a single merged value.
func (p PageConfig) Get(key string) (any, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Values returns a copy of the merged mapping.
func (p PageConfig) Values() map[string]any {
	out := make(map[string]any, len(p.values))
	maps.Copy(out, p.values)
	return out
}
