package store

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/onixnotes/onix/internal/vault"
	"github.com/spf13/afero"
)

// ConfigStore reads and writes the vault config kept at
// <vault root>/.onix/vault.json
type ConfigStore struct {
	fs afero.Fs
}

// NewConfigStore creates a config store over fs
func NewConfigStore(fs afero.Fs) *ConfigStore {
	return &ConfigStore{fs: fs}
}

// Exists reports whether a config file is present under root.
// The content is not validated.
func (s *ConfigStore) Exists(root string) bool {
	_, err := s.fs.Stat(vault.ConfigPath(root))
	return err == nil
}

// Load reads the vault config stored under root
func (s *ConfigStore) Load(root string) (vault.Vault, error) {
	info, err := s.fs.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return vault.Vault{}, fmt.Errorf("%w: %s", vault.ErrNotFound, root)
		}
		return vault.Vault{}, fmt.Errorf("failed to stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return vault.Vault{}, fmt.Errorf("%w: %s is not a directory", vault.ErrInvalidPath, root)
	}

	path := vault.ConfigPath(root)
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return vault.Vault{}, fmt.Errorf("%w: no vault config at %s", vault.ErrNotFound, path)
		}
		return vault.Vault{}, fmt.Errorf("failed to read vault config: %w", err)
	}

	return decodeVault(data)
}

// Save writes v to its config file, replacing whatever was there
func (s *ConfigStore) Save(v vault.Vault) error {
	if err := writeJSON(s.fs, v.ConfigPath(), v); err != nil {
		return fmt.Errorf("failed to save vault config: %w", err)
	}
	return nil
}

func decodeVault(data []byte) (vault.Vault, error) {
	var v vault.Vault
	if err := json.Unmarshal(data, &v); err != nil {
		return vault.Vault{}, fmt.Errorf("%w: %v", vault.ErrInvalidConfig, err)
	}
	if v.ID == "" {
		return vault.Vault{}, fmt.Errorf("%w: missing vault id", vault.ErrInvalidConfig)
	}
	if v.Config.Metadata == nil {
		v.Config.Metadata = map[string]any{}
	}
	return v, nil
}
