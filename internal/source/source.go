// Package source models the immutable input to template creation: a file
// path, its lower-cased extension and its loaded text.
package source

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/grain/internal/foundation/errors"
)

// ErrSourceNotFound is returned by Load when the path does not exist.
var ErrSourceNotFound = stderrors.New("source file not found")

// File is an immutable reference to loaded source content.
type File struct {
	Path    string
	Ext     string
	Content string
}

// New builds a File from an in-memory buffer.
func New(path string, content []byte) File {
	return File{Path: path, Ext: Ext(path), Content: string(content)}
}

// Load reads a file from disk.
func Load(path string) (File, error) {
	// #nosec G304 -- paths come from the site walker or the CLI argument.
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			err = stderrors.Join(ErrSourceNotFound, err)
		}
		return File{}, errors.WrapError(err, errors.CategoryFileSystem, "failed to read source").
			WithContext("path", path).
			Build()
	}
	return New(path, data), nil
}

// WithContent returns a copy of f carrying different text.
func (f File) WithContent(content string) File {
	f.Content = content
	return f
}

// Ext returns the extension of path lower-cased and without the leading dot.
func Ext(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}
