package build

import (
	"io/fs"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/grain/internal/markup"
	"git.home.luguber.info/inful/grain/internal/source"
)

// Discover lists the files under root as slash-separated relative paths in
// lexical order. Hidden entries and the directories in skip are left out.
func Discover(root string, skip ...string) ([]string, error) {
	skipped := make(map[string]bool, len(skip))
	for _, dir := range skip {
		if dir == "" {
			continue
		}
		if abs, err := filepath.Abs(dir); err == nil {
			skipped[abs] = true
		}
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if abs, err := filepath.Abs(path); err == nil && skipped[abs] && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	return files, err
}

// OutputPath maps a source path to its output path. Markup sources become
// .html; everything else keeps its name.
func OutputPath(rel string) string {
	if !markup.IsMarkup(source.Ext(rel)) {
		return rel
	}
	return strings.TrimSuffix(rel, filepath.Ext(rel)) + ".html"
}
