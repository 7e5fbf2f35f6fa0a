package scanner

import (
	"path/filepath"
	"strings"
)

// hiddenPrefix marks entries that are always excluded, whatever the patterns say
const hiddenPrefix = "."

// ShouldExclude reports whether path must be skipped during a scan.
// A path is excluded when it contains any pattern as a plain substring, or
// when its base name is hidden. Stats passes paths relative to the vault
// root; an absolute path would also match patterns found in the directories
// above the vault.
func ShouldExclude(path string, patterns []string) bool {
	for _, p := range patterns {
		if p != "" && strings.Contains(path, p) {
			return true
		}
	}
	return strings.HasPrefix(filepath.Base(path), hiddenPrefix)
}
