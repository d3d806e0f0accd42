package source

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrUnknownModifier is returned when a modifier name is not registered.
var ErrUnknownModifier = stderrors.New("unknown source modifier")

// Modifier rewrites a file's text before it enters the pipeline.
type Modifier func(File) string

const (
	ModifierNone              = "none"
	ModifierTrimBOM           = "trim-bom"
	ModifierNormalizeNewlines = "normalize-newlines"
	ModifierNFC               = "nfc"
)

var modifiers = map[string]Modifier{
	ModifierNone:              func(f File) string { return f.Content },
	ModifierTrimBOM:           func(f File) string { return strings.TrimPrefix(f.Content, "\ufeff") },
	ModifierNormalizeNewlines: func(f File) string { return normalizeNewlines(f.Content) },
	ModifierNFC:               func(f File) string { return norm.NFC.String(f.Content) },
}

// LookupModifier resolves a modifier by name. The empty name resolves to "none".
func LookupModifier(name string) (Modifier, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = ModifierNone
	}
	m, ok := modifiers[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnknownModifier, name, strings.Join(ModifierNames(), ", "))
	}
	return m, nil
}

// ModifierNames lists the registered modifier names in sorted order.
func ModifierNames() []string {
	names := make([]string, 0, len(modifiers))
	for n := range modifiers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
