// Package pathutil normalizes filesystem paths the way config.py's
// `normpath` does: backslashes become slashes, and a leading UNC "//" prefix
// survives path.Clean/filepath.Clean (which would otherwise collapse it to
// a single slash).
package pathutil

import (
	"path/filepath"
	"strings"
)

// Normalize rewrites p to use forward slashes and cleans it, preserving a
// leading "//" (UNC-style) prefix.
func Normalize(p string) string {
	if p == "" {
		return p
	}
	unc := strings.HasPrefix(p, "//")
	rest := p
	if unc {
		rest = p[2:]
	}
	rest = strings.ReplaceAll(rest, `\`, "/")
	cleaned := filepath.ToSlash(filepath.Clean(rest))
	if unc {
		return "//" + cleaned
	}
	return cleaned
}

// Base returns the final path element, using '/' regardless of platform.
func Base(p string) string {
	parts := strings.Split(Normalize(p), "/")
	return parts[len(parts)-1]
}

// WithoutExt strips the final extension from a filename (not a path).
func WithoutExt(name string) string {
	if i := strings.LastIndex(name, "."); i > 0 {
		return name[:i]
	}
	return name
}
