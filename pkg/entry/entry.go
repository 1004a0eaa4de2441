// Package entry expands entrypoint glob patterns into concrete source files.
package entry

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// SourceExtensions are the suffixes removed when deriving an entry's base
// name. Only one is stripped.
var SourceExtensions = []string{".tsx", ".ts", ".mts", ".cts", ".jsx", ".js", ".mjs", ".cjs"}

// Entry is a resolved entrypoint file.
type Entry struct {
	Path string // as matched, absolute when the pattern or cwd was
	Name string // file name without directory and source extension
}

// New builds an Entry for a resolved path.
func New(path string) Entry {
	return Entry{Path: path, Name: BaseName(path)}
}

// BaseName strips the directory and a trailing source extension:
// "src/handlers/get-user.ts" -> "get-user".
func BaseName(path string) string {
	name := filepath.Base(filepath.FromSlash(path))
	for _, ext := range SourceExtensions {
		if strings.HasSuffix(name, ext) && len(name) > len(ext) {
			return strings.TrimSuffix(name, ext)
		}
	}
	return name
}

// Resolve expands each pattern independently and concatenates the matches in
// pattern order. Relative patterns are resolved against cwd when it is set.
// Duplicates across patterns are kept, and a pattern without matches
// contributes nothing.
func Resolve(patterns []string, cwd string) ([]Entry, error) {
	var out []Entry
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		matches, err := glob(pattern, cwd)
		if err != nil {
			return nil, fmt.Errorf("invalid entry pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			out = append(out, New(m))
		}
	}
	return out, nil
}

// glob matches a relative pattern inside cwd, so glob syntax in the cwd path
// itself stays literal. Leading ".." segments move the root up.
func glob(pattern, cwd string) ([]string, error) {
	if cwd == "" || filepath.IsAbs(pattern) {
		return doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	}
	root := cwd
	rel := path.Clean(filepath.ToSlash(pattern))
	for rel == ".." || strings.HasPrefix(rel, "../") {
		root = filepath.Dir(root)
		rel = strings.TrimPrefix(strings.TrimPrefix(rel, ".."), "/")
	}
	if rel == "" {
		rel = "."
	}
	matches, err := doublestar.Glob(os.DirFS(root), rel, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	for i, m := range matches {
		matches[i] = filepath.Join(root, filepath.FromSlash(m))
	}
	return matches, nil
}

// Paths returns the file paths of entries, in order.
func Paths(entries []Entry) []string {
	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.Path
	}
	return paths
}
