// Package scanner derives vault statistics from the files on disk and
// collects git metadata for a vault root.
package scanner

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/onixnotes/onix/internal/vault"
	"github.com/spf13/afero"
)

// Result holds the statistics of one scan
type Result struct {
	NoteCount int
	TotalSize int64
}

// Stats walks the tree under root and counts the notes it finds, summing
// their sizes. A symlinked root is followed; links below it are not.
// Excluded directories are skipped with their whole subtree. Entries that
// cannot be read contribute nothing; only a failure on root itself is
// returned.
func Stats(fs afero.Fs, root string, settings vault.VaultSettings) (Result, error) {
	exts := extensionSet(settings.FileExtensions)
	root = walkRoot(fs, root)

	var res Result
	err := afero.Walk(fs, root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			return nil
		}
		if path == root {
			return nil
		}

		// Patterns are matched against the root-relative path, not the full
		// one, so the location of the vault never excludes its contents.
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		if ShouldExclude(rel, settings.ExcludePatterns) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if !info.Mode().IsRegular() {
			return nil
		}
		if _, ok := exts[extension(path)]; !ok {
			return nil
		}
		res.NoteCount++
		res.TotalSize += info.Size()
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// walkRoot returns the path to hand to afero.Walk. Walk lstats its root, so a
// symlink to a directory gets a trailing separator to make the lstat resolve
// it.
func walkRoot(fs afero.Fs, root string) string {
	lst, ok := fs.(afero.Lstater)
	if !ok {
		return root
	}
	info, _, err := lst.LstatIfPossible(root)
	if err != nil || info.Mode()&os.ModeSymlink == 0 {
		return root
	}
	if target, err := fs.Stat(root); err != nil || !target.IsDir() {
		return root
	}
	return strings.TrimRight(root, string(filepath.Separator)) + string(filepath.Separator)
}

func extension(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

func extensionSet(extensions []string) map[string]struct{} {
	set := make(map[string]struct{}, len(extensions))
	for _, e := range extensions {
		e = strings.ToLower(strings.TrimPrefix(e, "."))
		if e != "" {
			set[e] = struct{}{}
		}
	}
	return set
}
