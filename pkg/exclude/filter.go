// Package exclude decides whether a document path is opted out of sync.
package exclude

import (
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// IsExcluded reports whether any pattern matches the document path.
//
// Patterns use doublestar syntax: "*" matches within one segment and "**"
// spans segments. A pattern without a slash also matches the base name, so
// "*.bak" excludes "notes/x.bak". Invalid patterns never match.
func IsExcluded(docPath string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	p := normalize(docPath)
	base := path.Base(p)
	for _, pattern := range patterns {
		if match(pattern, p, base) {
			return true
		}
	}
	return false
}

// ParsePatterns splits a comma-separated list, trimming entries and dropping empty ones.
func ParsePatterns(list string) []string {
	var patterns []string
	for _, part := range strings.Split(list, ",") {
		if p := strings.TrimSpace(part); p != "" {
			patterns = append(patterns, p)
		}
	}
	return patterns
}

// Filter is a validated pattern set.
type Filter struct {
	patterns []string
}

// New validates the patterns. Invalid ones are dropped and reported in the error;
// the returned Filter is usable either way.
func New(patterns []string) (*Filter, error) {
	f := &Filter{}
	var invalid []string
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !doublestar.ValidatePattern(p) {
			invalid = append(invalid, p)
			continue
		}
		f.patterns = append(f.patterns, p)
	}
	if len(invalid) > 0 {
		return f, fmt.Errorf("invalid exclude patterns: %s", strings.Join(invalid, ", "))
	}
	return f, nil
}

// Match reports whether docPath is excluded.
func (f *Filter) Match(docPath string) bool {
	if f == nil {
		return false
	}
	return IsExcluded(docPath, f.patterns)
}

// Patterns returns a copy of the valid patterns.
func (f *Filter) Patterns() []string {
	return append([]string(nil), f.patterns...)
}

func match(pattern, p, base string) bool {
	pattern = strings.TrimPrefix(strings.TrimSpace(pattern), "./")
	if pattern == "" {
		return false
	}
	if ok, err := doublestar.Match(pattern, p); err == nil && ok {
		return true
	}
	if !strings.Contains(pattern, "/") {
		ok, err := doublestar.Match(pattern, base)
		return err == nil && ok
	}
	return false
}

func normalize(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimPrefix(p, "./")
	return strings.TrimPrefix(p, "/")
}
