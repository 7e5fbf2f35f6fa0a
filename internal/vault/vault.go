// Package vault defines the vault data model: the persisted vault structure,
// its configuration and settings, and the lossy projections handed to callers.
package vault

import (
	"path/filepath"
	"strconv"
	"time"
)

const (
	// DirName is the per-vault directory holding onix's own files
	DirName = ".onix"
	// ConfigFileName is the vault config file inside DirName
	ConfigFileName = "vault.json"
	// RecentCapacity bounds the recent-vaults list
	RecentCapacity = 10
	// UnnamedVault is used when a directory has no usable base name
	UnnamedVault = "Unnamed Vault"
)

// Vault is a directory adopted as a managed note collection
type Vault struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Path       string      `json:"path"`
	CreatedAt  string      `json:"created_at"`
	LastOpened string      `json:"last_opened"`
	NoteCount  int         `json:"note_count"`
	TotalSize  int64       `json:"total_size"`
	Config     VaultConfig `json:"config"`
}

// VaultConfig holds the user-meaningful configuration of a vault
type VaultConfig struct {
	Name        string         `json:"name"`
	Description *string        `json:"description"`
	Settings    VaultSettings  `json:"settings"`
	Metadata    map[string]any `json:"metadata"`
}

// VaultSettings controls note creation and statistics scanning
type VaultSettings struct {
	AutoSave            bool     `json:"auto_save"`
	DefaultNoteLocation string   `json:"default_note_location"`
	FileExtensions      []string `json:"file_extensions"`
	ExcludePatterns     []string `json:"exclude_patterns"`
}

// CreateVaultRequest carries the arguments of a create operation
type CreateVaultRequest struct {
	Path        string  `json:"path"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// DefaultSettings returns the settings assigned to newly created vaults
func DefaultSettings() VaultSettings {
	return VaultSettings{
		AutoSave:            true,
		DefaultNoteLocation: "",
		FileExtensions:      []string{"md", "markdown"},
		ExcludePatterns:     []string{".git", DirName, "node_modules", ".DS_Store"},
	}
}

// New builds a vault with default settings, stamped with the given time.
// Statistics start at zero; the scanner fills them in.
func New(id, name, path string, now time.Time) Vault {
	ts := Timestamp(now)
	return Vault{
		ID:         id,
		Name:       name,
		Path:       path,
		CreatedAt:  ts,
		LastOpened: ts,
		Config: VaultConfig{
			Name:     name,
			Settings: DefaultSettings(),
			Metadata: map[string]any{},
		},
	}
}

// Timestamp encodes t as string epoch seconds, the on-disk time format
func Timestamp(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}

// Dir returns the vault's .onix directory
func (v Vault) Dir() string {
	return Dir(v.Path)
}

// ConfigPath returns the location of the vault's config file
func (v Vault) ConfigPath() string {
	return ConfigPath(v.Path)
}

// Dir returns the .onix directory for a vault rooted at root
func Dir(root string) string {
	return filepath.Join(root, DirName)
}

// ConfigPath returns the config file location for a vault rooted at root
func ConfigPath(root string) string {
	return filepath.Join(root, DirName, ConfigFileName)
}

// Clone returns a deep copy so callers can never mutate shared state.
// Metadata values are copied at the top level; they are opaque to onix.
func (v Vault) Clone() Vault {
	c := v
	if v.Config.Description != nil {
		d := *v.Config.Description
		c.Config.Description = &d
	}
	c.Config.Settings.FileExtensions = append([]string(nil), v.Config.Settings.FileExtensions...)
	c.Config.Settings.ExcludePatterns = append([]string(nil), v.Config.Settings.ExcludePatterns...)
	if v.Config.Metadata != nil {
		c.Config.Metadata = make(map[string]any, len(v.Config.Metadata))
		for k, val := range v.Config.Metadata {
			c.Config.Metadata[k] = val
		}
	}
	return c
}
