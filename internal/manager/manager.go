// Package manager owns the process-wide vault state: the currently open vault
// and the recent-vaults history. It validates paths, delegates to the config
// and recent-vaults stores, and refreshes statistics with the scanner.
//
// The two pieces of state are guarded independently and their locks are never
// held across filesystem work, so concurrent opens are last-writer-wins.
package manager

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/onixnotes/onix/internal/logger"
	"github.com/onixnotes/onix/internal/scanner"
	"github.com/onixnotes/onix/internal/store"
	"github.com/onixnotes/onix/internal/vault"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// infoConcurrency bounds the config loads VaultsInfo runs at once
const infoConcurrency = 4

// Manager coordinates vault lifecycle operations
type Manager struct {
	fs      afero.Fs
	configs *store.ConfigStore
	recents *store.RecentStore

	current cell[*vault.Vault]
	recent  cell[[]vault.RecentVault]

	// serializes recent-list writes so the file always ends up holding the
	// latest in-memory list
	saveMu sync.Mutex

	now   func() time.Time
	newID func() string
}

// Option customizes a Manager
type Option func(*Manager)

// WithFs sets the filesystem the manager works on (defaults to the OS)
func WithFs(fs afero.Fs) Option {
	return func(m *Manager) { m.fs = fs }
}

// WithClock sets the time source used for timestamps
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithIDGenerator sets the vault identifier generator
func WithIDGenerator(newID func() string) Option {
	return func(m *Manager) { m.newID = newID }
}

// New creates a manager keeping its recent-vaults list in dataDir and loads
// the persisted list
func New(dataDir string, opts ...Option) (*Manager, error) {
	m := &Manager{
		fs:    afero.NewOsFs(),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.current.name = "current vault"
	m.recent.name = "recent vaults"
	m.configs = store.NewConfigStore(m.fs)
	m.recents = store.NewRecentStore(m.fs, dataDir)

	list, err := m.recents.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load recent vaults: %w", err)
	}
	if err := m.recent.store(list); err != nil {
		return nil, err
	}
	logger.Debug("recent vaults loaded", "count", len(list), "path", m.recents.Path())
	return m, nil
}

// Create turns the directory at req.Path into a new vault and makes it current
func (m *Manager) Create(req vault.CreateVaultRequest) (vault.Vault, error) {
	root, err := m.resolveDir(req.Path)
	if err != nil {
		return vault.Vault{}, err
	}

	v := vault.New(m.newID(), req.Name, root, m.now())
	if req.Description != nil {
		d := *req.Description
		v.Config.Description = &d
	}

	// Scan before the first write so the config never holds zero counts; a
	// failed scan leaves the directory without a config.
	if v, err = m.refresh(v); err != nil {
		return vault.Vault{}, err
	}
	if err := m.activate(v); err != nil {
		return vault.Vault{}, err
	}

	logger.Info("vault created", "id", v.ID, "name", v.Name, "path", v.Path)
	return v.Clone(), nil
}

// Open makes the vault at path current. A directory without a config is
// turned into a vault named after the directory.
func (m *Manager) Open(path string) (vault.Vault, error) {
	root, err := m.resolveDir(path)
	if err != nil {
		return vault.Vault{}, err
	}

	var v vault.Vault
	if m.configs.Exists(root) {
		if v, err = m.configs.Load(root); err != nil {
			return vault.Vault{}, err
		}
		v.Path = root
		v.LastOpened = vault.Timestamp(m.now())
	} else {
		v = vault.New(m.newID(), dirName(root), root, m.now())
		logger.Info("adopting directory as vault", "path", root)
	}

	if v, err = m.refresh(v); err != nil {
		return vault.Vault{}, err
	}
	if err := m.activate(v); err != nil {
		return vault.Vault{}, err
	}

	logger.Info("vault opened", "id", v.ID, "name", v.Name, "path", v.Path)
	return v.Clone(), nil
}

// Current returns a copy of the current vault, or nil when none is open
func (m *Manager) Current() (*vault.Vault, error) {
	v, err := m.current.load()
	if err != nil || v == nil {
		return nil, err
	}
	c := v.Clone()
	return &c, nil
}

// Recent returns a copy of the recent-vaults list, most recent first
func (m *Manager) Recent() ([]vault.RecentVault, error) {
	list, err := m.recent.load()
	if err != nil {
		return nil, err
	}
	return append([]vault.RecentVault{}, list...), nil
}

// VaultsInfo summarizes every recent vault that still exists on disk with a
// readable config. Entries failing either check are left out silently.
func (m *Manager) VaultsInfo() ([]vault.VaultInfo, error) {
	list, err := m.Recent()
	if err != nil {
		return nil, err
	}
	cur, err := m.Current()
	if err != nil {
		return nil, err
	}
	var currentID string
	if cur != nil {
		currentID = cur.ID
	}

	loaded := make([]*vault.VaultInfo, len(list))
	var g errgroup.Group
	g.SetLimit(infoConcurrency)
	for i, r := range list {
		i, r := i, r
		g.Go(func() error {
			v, err := m.configs.Load(r.Path)
			if err != nil {
				logger.Debug("skipping recent vault", "id", r.ID, "path", r.Path, "error", err)
				return nil
			}
			info := vault.NewVaultInfo(v, currentID != "" && v.ID == currentID)
			loaded[i] = &info
			return nil
		})
	}
	_ = g.Wait() // per-entry failures are dropped above, never returned

	infos := make([]vault.VaultInfo, 0, len(list))
	for _, info := range loaded {
		if info != nil {
			infos = append(infos, *info)
		}
	}
	return infos, nil
}

// Close clears the current vault. Closing with nothing open is not an error.
func (m *Manager) Close() error {
	prev, err := m.current.load()
	if err != nil {
		return err
	}
	if err := m.current.store(nil); err != nil {
		return err
	}
	if prev != nil {
		logger.Info("vault closed", "id", prev.ID, "path", prev.Path)
	}
	return nil
}

// IsVault reports whether path is a directory holding a vault config.
// Missing paths and non-directories are simply not vaults.
func (m *Manager) IsVault(path string) (bool, error) {
	root, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("failed to resolve path %s: %w", path, err)
	}
	info, err := m.fs.Stat(root)
	if err != nil || !info.IsDir() {
		return false, nil
	}
	return m.configs.Exists(root), nil
}

// RecentPath returns where the recent-vaults list is kept
func (m *Manager) RecentPath() string {
	return m.recents.Path()
}

// resolveDir makes path absolute and checks that it is an existing directory
func (m *Manager) resolveDir(path string) (string, error) {
	root, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path %s: %w", path, err)
	}
	info, err := m.fs.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", vault.ErrNotFound, path)
		}
		return "", fmt.Errorf("failed to stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", vault.ErrInvalidPath, path)
	}
	return root, nil
}

// refresh recomputes the statistics of v and persists its config
func (m *Manager) refresh(v vault.Vault) (vault.Vault, error) {
	res, err := scanner.Stats(m.fs, v.Path, v.Config.Settings)
	if err != nil {
		return vault.Vault{}, fmt.Errorf("failed to scan vault %s: %w", v.Path, err)
	}
	v.NoteCount = res.NoteCount
	v.TotalSize = res.TotalSize
	logger.Debug("vault scanned", "path", v.Path, "notes", v.NoteCount, "bytes", v.TotalSize)

	if err := m.configs.Save(v); err != nil {
		return vault.Vault{}, err
	}
	return v, nil
}

// activate makes v the current vault and moves it to the front of the
// recent list, then persists the list
func (m *Manager) activate(v vault.Vault) error {
	cur := v.Clone()
	if err := m.current.store(&cur); err != nil {
		return err
	}

	entry := vault.NewRecentVault(v)
	if err := m.recent.update(func(list []vault.RecentVault) []vault.RecentVault {
		return vault.PushRecent(list, entry)
	}); err != nil {
		return err
	}
	return m.persistRecent()
}

func (m *Manager) persistRecent() error {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	list, err := m.recent.load()
	if err != nil {
		return err
	}
	if err := m.recents.Save(list); err != nil {
		return err
	}
	logger.Debug("recent vaults saved", "count", len(list))
	return nil
}

func dirName(root string) string {
	name := filepath.Base(root)
	if name == "" || name == "." || name == string(filepath.Separator) {
		return vault.UnnamedVault
	}
	return name
}
