package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/onixnotes/onix/internal/vault"
	"github.com/spf13/afero"
)

// RecentFileName is the recent-vaults file inside the data directory
const RecentFileName = "recent_vaults.json"

// RecentStore persists the recent-vaults list
type RecentStore struct {
	fs   afero.Fs
	path string
}

// NewRecentStore creates a recent-vaults store keeping its file in dataDir
func NewRecentStore(fs afero.Fs, dataDir string) *RecentStore {
	return &RecentStore{
		fs:   fs,
		path: filepath.Join(dataDir, RecentFileName),
	}
}

// DefaultDataDir returns the platform-appropriate application data directory.
// XDG_DATA_HOME is only consulted on Linux.
func DefaultDataDir() (string, error) {
	var base string
	if runtime.GOOS == "linux" {
		base = os.Getenv("XDG_DATA_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			base = filepath.Join(home, ".local", "share")
		}
	} else {
		dir, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user config directory: %w", err)
		}
		base = dir
	}
	return filepath.Join(base, "onix"), nil
}

// Path returns the recent-vaults file location (for debugging/info)
func (s *RecentStore) Path() string {
	return s.path
}

// Load returns the persisted list, or an empty list when nothing was saved yet
func (s *RecentStore) Load() ([]vault.RecentVault, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []vault.RecentVault{}, nil
		}
		return nil, fmt.Errorf("failed to read recent vaults: %w", err)
	}

	var list []vault.RecentVault
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("%w: recent vaults file: %v", vault.ErrInvalidConfig, err)
	}
	if list == nil {
		list = []vault.RecentVault{}
	}
	if len(list) > vault.RecentCapacity {
		list = list[:vault.RecentCapacity]
	}
	return list, nil
}

// Save writes the full list, replacing the previous file
func (s *RecentStore) Save(list []vault.RecentVault) error {
	if list == nil {
		list = []vault.RecentVault{}
	}
	if err := writeJSON(s.fs, s.path, list); err != nil {
		return fmt.Errorf("failed to save recent vaults: %w", err)
	}
	return nil
}
