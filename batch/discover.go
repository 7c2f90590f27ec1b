// Package batch plans and drives resumable processing of image directories:
// discovery of input images, pure planning against the ledger's processed
// set, and a runner that preserves partial progress when extraction fails.
package batch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Image file extensions the pipeline accepts.
var supportedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
	".bmp":  {},
}

// SupportedExtensions returns the accepted extensions, sorted.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(supportedExtensions))
	for ext := range supportedExtensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// IsSupportedImage reports whether the path has an accepted image extension.
func IsSupportedImage(path string) bool {
	_, ok := supportedExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// FindImages enumerates supported image files in a directory, optionally
// recursing into subdirectories. Paths are returned in canonical form
// (absolute, cleaned) and sorted for deterministic ordering across runs.
func FindImages(directory string, recursive bool) ([]string, error) {
	info, err := os.Stat(directory)
	if err != nil {
		return nil, fmt.Errorf("directory not found: %s", directory)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", directory)
	}

	var images []string
	if recursive {
		err = filepath.WalkDir(directory, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && IsSupportedImage(path) {
				images = append(images, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan directory: %w", err)
		}
	} else {
		entries, err := os.ReadDir(directory)
		if err != nil {
			return nil, fmt.Errorf("scan directory: %w", err)
		}
		for _, entry := range entries {
			if !entry.IsDir() && IsSupportedImage(entry.Name()) {
				images = append(images, filepath.Join(directory, entry.Name()))
			}
		}
	}

	canonical := make([]string, 0, len(images))
	for _, image := range images {
		canonical = append(canonical, Canonical(image))
	}
	sort.Strings(canonical)
	return canonical, nil
}

// Canonical normalizes an item identifier for comparison: absolute and
// cleaned. If the path cannot be made absolute the cleaned original is
// returned, so comparison still works on a best-effort basis.
func Canonical(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return filepath.Clean(abs)
}
