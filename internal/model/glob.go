package model

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// resolveGlobs resolves a mixed list of include and '!'-prefixed exclude
// patterns against baseDir, returning absolute, cleaned, deduplicated
// paths in first-seen order. A malformed pattern contributes zero files
// rather than failing the whole resolution, per spec.
func resolveGlobs(baseDir string, patterns []string) ([]string, error) {
	fsys := os.DirFS(baseDir)

	var includePatterns, excludePatterns []string
	for _, p := range patterns {
		if after, ok := cutPrefix(p, "!"); ok {
			excludePatterns = append(excludePatterns, after)
		} else {
			includePatterns = append(includePatterns, p)
		}
	}

	excluded := make(map[string]struct{})
	for _, pat := range excludePatterns {
		for _, abs := range matchPattern(fsys, baseDir, pat) {
			excluded[abs] = struct{}{}
		}
	}

	seen := make(map[string]struct{})
	var out []string
	for _, pat := range includePatterns {
		for _, abs := range matchPattern(fsys, baseDir, pat) {
			if _, isExcluded := excluded[abs]; isExcluded {
				continue
			}
			if _, already := seen[abs]; already {
				continue
			}
			seen[abs] = struct{}{}
			out = append(out, abs)
		}
	}

	return out, nil
}

func matchPattern(fsys fs.FS, baseDir, pattern string) []string {
	if filepath.IsAbs(pattern) {
		return []string{filepath.Clean(pattern)}
	}

	matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil // malformed pattern: zero files, not an error
	}

	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, filepath.Clean(filepath.Join(baseDir, m)))
	}
	return out
}

// cutPrefix is strings.CutPrefix inlined to avoid importing strings here
// just for one call site.
func cutPrefix(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && s[:len(prefix)] == prefix {
		return s[len(prefix):], true
	}
	return s, false
}
