package build

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteOutput writes content to relativePath under outputDir and returns the
// full path.
//
// The function ensures:
//   - The output path is relative to outputDir (no path traversal)
//   - Parent directories are created if needed
//   - Readers never observe a partially written file (temp file + rename)
func WriteOutput(outputDir, relativePath, content string) (string, error) {
	if outputDir == "" {
		return "", errors.New("output directory is required")
	}
	if relativePath == "" {
		return "", errors.New("output path is required")
	}

	cleanRel := filepath.Clean(filepath.FromSlash(relativePath))
	if filepath.IsAbs(cleanRel) || cleanRel == ".." || strings.HasPrefix(cleanRel, ".."+string(filepath.Separator)) {
		return "", errors.New("output path must be relative to the output directory")
	}

	fullPath := filepath.Join(outputDir, cleanRel)
	rel, err := filepath.Rel(outputDir, fullPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", errors.New("output path escapes the output directory")
	}

	dir := filepath.Dir(fullPath)
	if err = os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".grain-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write output file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close output file: %w", err)
	}
	// #nosec G302 -- site output is meant to be world-readable.
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", fmt.Errorf("chmod output file: %w", err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		return "", fmt.Errorf("rename output file: %w", err)
	}
	return fullPath, nil
}
