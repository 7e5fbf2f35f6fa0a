// Package store persists vault configs inside vault directories and the
// recent-vaults list in the application data directory.
package store

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

const (
	dirMode  = 0755
	fileMode = 0644
)

// writeJSON pretty-prints v to path. The data goes to a temp file in the same
// directory which is then renamed over path, so readers never see a torn file.
func writeJSON(fs afero.Fs, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}

	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(fs, dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		fs.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		fs.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := fs.Chmod(tmpName, fileMode); err != nil {
		fs.Remove(tmpName)
		return fmt.Errorf("failed to set permissions on %s: %w", filepath.Base(path), err)
	}
	if err := fs.Rename(tmpName, path); err != nil {
		fs.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
