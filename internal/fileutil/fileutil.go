// Package fileutil provides small filesystem helpers for staging uploaded
// media on disk.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteTemp stages data in a temporary file with the provided suffix and
// returns its path. The caller owns removal.
func WriteTemp(dir, pattern string, data []byte) (string, error) {
	file, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	path := file.Name()
	if _, err := file.Write(data); err != nil {
		file.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return path, nil
}

// TempPattern builds a CreateTemp pattern that preserves the extension of the
// supplied filename, defaulting to fallbackExt when the name has none.
func TempPattern(prefix, filename, fallbackExt string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = fallbackExt
	}
	return prefix + "*" + ext
}

// RemoveQuiet removes a path, ignoring errors. Used for temp cleanup where
// failure is harmless.
func RemoveQuiet(path string) {
	if strings.TrimSpace(path) == "" {
		return
	}
	_ = os.Remove(path)
}
