package manager

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/onixnotes/onix/internal/store"
	"github.com/onixnotes/onix/internal/vault"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestManager(t *testing.T, dataDir string) *Manager {
	t.Helper()
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	m, err := New(dataDir, WithClock(clock.Now))
	require.NoError(t, err)
	return m
}

func mkdir(t *testing.T, parent, name string) string {
	t.Helper()
	dir := filepath.Join(parent, name)
	require.NoError(t, os.MkdirAll(dir, 0755))
	return dir
}

func write(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0644))
}

func TestCreateSetsCurrentAndClose(t *testing.T) {
	m := newTestManager(t, t.TempDir())
	dir := t.TempDir()
	write(t, filepath.Join(dir, "a.md"), 10)

	desc := "scratch"
	v, err := m.Create(vault.CreateVaultRequest{Path: dir, Name: "N", Description: &desc})
	require.NoError(t, err)
	assert.NotEmpty(t, v.ID)
	assert.Equal(t, "N", v.Name)
	assert.Equal(t, "N", v.Config.Name)
	assert.Equal(t, 1, v.NoteCount)
	assert.Equal(t, int64(10), v.TotalSize)
	require.NotNil(t, v.Config.Description)
	assert.Equal(t, "scratch", *v.Config.Description)
	assert.Equal(t, vault.DefaultSettings(), v.Config.Settings)

	cur, err := m.Current()
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Equal(t, dir, cur.Path)
	assert.Equal(t, "N", cur.Name)

	require.NoError(t, m.Close())
	cur, err = m.Current()
	require.NoError(t, err)
	assert.Nil(t, cur)

	// closing twice is fine
	require.NoError(t, m.Close())
}

func TestCreateThenIsVaultAndReopenKeepsID(t *testing.T) {
	m := newTestManager(t, t.TempDir())
	dir := t.TempDir()

	ok, err := m.IsVault(dir)
	require.NoError(t, err)
	assert.False(t, ok)

	created, err := m.Create(vault.CreateVaultRequest{Path: dir, Name: "Notes"})
	require.NoError(t, err)

	ok, err = m.IsVault(dir)
	require.NoError(t, err)
	assert.True(t, ok)

	opened, err := m.Open(dir)
	require.NoError(t, err)
	assert.Equal(t, created.ID, opened.ID)
	assert.Equal(t, created.CreatedAt, opened.CreatedAt)
	assert.NotEqual(t, created.LastOpened, opened.LastOpened)
	assert.Equal(t, "Notes", opened.Name)
}

func TestOpenPlainDirectoryAdoptsIt(t *testing.T) {
	m := newTestManager(t, t.TempDir())
	dir := mkdir(t, t.TempDir(), "journal")
	write(t, filepath.Join(dir, "day.md"), 4)

	v, err := m.Open(dir)
	require.NoError(t, err)
	assert.Equal(t, "journal", v.Name)
	assert.Equal(t, 1, v.NoteCount)

	_, err = os.Stat(vault.ConfigPath(dir))
	require.NoError(t, err, "open must create the vault config")

	ok, err := m.IsVault(dir)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOpenRecomputesAndPersistsStats(t *testing.T) {
	m := newTestManager(t, t.TempDir())
	dir := t.TempDir()

	v, err := m.Create(vault.CreateVaultRequest{Path: dir, Name: "n"})
	require.NoError(t, err)
	assert.Equal(t, 0, v.NoteCount)

	write(t, filepath.Join(dir, "sub", "new.md"), 25)

	v, err = m.Open(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, v.NoteCount)
	assert.Equal(t, int64(25), v.TotalSize)

	stored, err := store.NewConfigStore(afero.NewOsFs()).Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.NoteCount)
	assert.Equal(t, int64(25), stored.TotalSize)
	assert.Equal(t, v.LastOpened, stored.LastOpened)
}

func TestOpenPreservesStoredConfig(t *testing.T) {
	m := newTestManager(t, t.TempDir())
	dir := t.TempDir()

	created, err := m.Create(vault.CreateVaultRequest{Path: dir, Name: "n"})
	require.NoError(t, err)

	// Edit settings and metadata on disk as another tool would
	cs := store.NewConfigStore(afero.NewOsFs())
	onDisk, err := cs.Load(dir)
	require.NoError(t, err)
	onDisk.Config.Settings.FileExtensions = []string{"txt"}
	onDisk.Config.Metadata["color"] = "blue"
	require.NoError(t, cs.Save(onDisk))
	write(t, filepath.Join(dir, "a.txt"), 3)
	write(t, filepath.Join(dir, "b.md"), 3)

	opened, err := m.Open(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, opened.NoteCount)
	assert.Equal(t, "blue", opened.Config.Metadata["color"])

	if diff := cmp.Diff(created, opened,
		cmpopts.IgnoreFields(vault.Vault{}, "LastOpened", "NoteCount", "TotalSize"),
		cmpopts.IgnoreFields(vault.VaultSettings{}, "FileExtensions"),
		cmpopts.IgnoreFields(vault.VaultConfig{}, "Metadata"),
	); diff != "" {
		t.Errorf("reopened vault changed (-created +opened):\n%s", diff)
	}
}

func TestOpenAndCreateErrors(t *testing.T) {
	m := newTestManager(t, t.TempDir())
	base := t.TempDir()
	file := filepath.Join(base, "note.md")
	write(t, file, 1)
	missing := filepath.Join(base, "missing")

	_, err := m.Open(missing)
	assert.ErrorIs(t, err, vault.ErrNotFound)
	_, err = m.Open(file)
	assert.ErrorIs(t, err, vault.ErrInvalidPath)

	_, err = m.Create(vault.CreateVaultRequest{Path: missing, Name: "x"})
	assert.ErrorIs(t, err, vault.ErrNotFound)
	_, err = m.Create(vault.CreateVaultRequest{Path: file, Name: "x"})
	assert.ErrorIs(t, err, vault.ErrInvalidPath)

	cur, err := m.Current()
	require.NoError(t, err)
	assert.Nil(t, cur, "failed operations must not change the current vault")

	recent, err := m.Recent()
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestOpenCorruptConfig(t *testing.T) {
	m := newTestManager(t, t.TempDir())
	dir := t.TempDir()
	write(t, vault.ConfigPath(dir), 0)
	require.NoError(t, os.WriteFile(vault.ConfigPath(dir), []byte(`{"id": `), 0644))

	_, err := m.Open(dir)
	assert.ErrorIs(t, err, vault.ErrInvalidConfig)

	// presence alone makes it a vault
	ok, err := m.IsVault(dir)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIsVaultNonDirectories(t *testing.T) {
	m := newTestManager(t, t.TempDir())
	base := t.TempDir()
	file := filepath.Join(base, "f.md")
	write(t, file, 1)

	for _, p := range []string{filepath.Join(base, "nope"), file, base} {
		ok, err := m.IsVault(p)
		require.NoError(t, err)
		assert.False(t, ok, p)
	}
}

func TestRelativePathIsResolved(t *testing.T) {
	m := newTestManager(t, t.TempDir())
	dir := t.TempDir()
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(oldWd) })
	mkdir(t, dir, "rel")
	wd, err := os.Getwd()
	require.NoError(t, err)

	v, err := m.Open("rel")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(v.Path))
	assert.Equal(t, filepath.Join(wd, "rel"), v.Path)
}

func TestRecentListBoundedAndDeduplicated(t *testing.T) {
	dataDir := t.TempDir()
	m := newTestManager(t, dataDir)
	base := t.TempDir()

	var ids []string
	for i := 0; i < vault.RecentCapacity+1; i++ {
		v, err := m.Create(vault.CreateVaultRequest{Path: mkdir(t, base, fmt.Sprintf("v%02d", i)), Name: fmt.Sprint(i)})
		require.NoError(t, err)
		ids = append(ids, v.ID)
	}

	recent, err := m.Recent()
	require.NoError(t, err)
	require.Len(t, recent, vault.RecentCapacity)
	assert.Equal(t, ids[len(ids)-1], recent[0].ID)
	for _, r := range recent {
		assert.NotEqual(t, ids[0], r.ID, "oldest entry must be dropped")
	}

	// reopening an existing entry moves it to the front without duplicating
	_, err = m.Open(filepath.Join(base, "v05"))
	require.NoError(t, err)
	recent, err = m.Recent()
	require.NoError(t, err)
	require.Len(t, recent, vault.RecentCapacity)
	assert.Equal(t, ids[5], recent[0].ID)
	seen := map[string]bool{}
	for _, r := range recent {
		assert.False(t, seen[r.ID], "duplicate id %s", r.ID)
		seen[r.ID] = true
	}

	// the list survives a restart
	reloaded := newTestManager(t, dataDir)
	again, err := reloaded.Recent()
	require.NoError(t, err)
	assert.Equal(t, recent, again)

	cur, err := reloaded.Current()
	require.NoError(t, err)
	assert.Nil(t, cur, "current vault is not persisted")
}

func TestRecentReturnsCopy(t *testing.T) {
	m := newTestManager(t, t.TempDir())
	_, err := m.Create(vault.CreateVaultRequest{Path: t.TempDir(), Name: "a"})
	require.NoError(t, err)

	recent, err := m.Recent()
	require.NoError(t, err)
	recent[0].Name = "mutated"

	again, err := m.Recent()
	require.NoError(t, err)
	assert.Equal(t, "a", again[0].Name)

	cur, err := m.Current()
	require.NoError(t, err)
	cur.Config.Settings.FileExtensions[0] = "zzz"
	cur2, err := m.Current()
	require.NoError(t, err)
	assert.Equal(t, "md", cur2.Config.Settings.FileExtensions[0])
}

func TestVaultsInfo(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := newTestManager(t, t.TempDir())
	base := t.TempDir()

	gone := mkdir(t, base, "gone")
	corrupt := mkdir(t, base, "corrupt")
	kept := mkdir(t, base, "kept")
	write(t, filepath.Join(kept, "k.md"), 8)
	current := mkdir(t, base, "current")

	_, err := m.Create(vault.CreateVaultRequest{Path: gone, Name: "gone"})
	require.NoError(t, err)
	_, err = m.Create(vault.CreateVaultRequest{Path: corrupt, Name: "corrupt"})
	require.NoError(t, err)
	keptVault, err := m.Create(vault.CreateVaultRequest{Path: kept, Name: "kept"})
	require.NoError(t, err)
	curVault, err := m.Create(vault.CreateVaultRequest{Path: current, Name: "current"})
	require.NoError(t, err)

	require.NoError(t, os.RemoveAll(gone))
	require.NoError(t, os.WriteFile(vault.ConfigPath(corrupt), []byte("nope"), 0644))

	infos, err := m.VaultsInfo()
	require.NoError(t, err)
	require.Len(t, infos, 2)

	assert.Equal(t, curVault.ID, infos[0].ID)
	assert.True(t, infos[0].IsCurrent)
	assert.Equal(t, keptVault.ID, infos[1].ID)
	assert.False(t, infos[1].IsCurrent)
	assert.Equal(t, 1, infos[1].NoteCount)
	assert.Equal(t, int64(8), infos[1].TotalSize)

	require.NoError(t, m.Close())
	infos, err = m.VaultsInfo()
	require.NoError(t, err)
	for _, info := range infos {
		assert.False(t, info.IsCurrent)
	}
}

func TestVaultsInfoEmpty(t *testing.T) {
	m := newTestManager(t, t.TempDir())
	infos, err := m.VaultsInfo()
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestConcurrentOpens(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := newTestManager(t, t.TempDir())
	base := t.TempDir()

	const n = 8
	dirs := make([]string, n)
	for i := range dirs {
		dirs[i] = mkdir(t, base, fmt.Sprintf("c%d", i))
		write(t, filepath.Join(dirs[i], "n.md"), i)
	}

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for _, d := range dirs {
		d := d
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Open(d); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	cur, err := m.Current()
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Contains(t, dirs, cur.Path)

	recent, err := m.Recent()
	require.NoError(t, err)
	assert.Len(t, recent, n)

	// the persisted list matches memory once all writers are done
	onDisk, err := store.NewRecentStore(afero.NewOsFs(), filepath.Dir(m.RecentPath())).Load()
	require.NoError(t, err)
	assert.Equal(t, recent, onDisk)
}

func TestNewFailsOnCorruptRecents(t *testing.T) {
	dataDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, store.RecentFileName), []byte("]["), 0644))

	_, err := New(dataDir)
	assert.ErrorIs(t, err, vault.ErrInvalidConfig)
}

func TestCreateAndOpenThroughSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require privileges on windows")
	}
	m := newTestManager(t, t.TempDir())
	target := t.TempDir()
	write(t, filepath.Join(target, "a.md"), 10)
	link := filepath.Join(t.TempDir(), "link")
	require.NoError(t, os.Symlink(target, link))

	created, err := m.Create(vault.CreateVaultRequest{Path: link, Name: "Linked"})
	require.NoError(t, err)
	assert.Equal(t, 1, created.NoteCount)
	assert.Equal(t, int64(10), created.TotalSize)

	opened, err := m.Open(link)
	require.NoError(t, err)
	assert.Equal(t, created.ID, opened.ID)
	assert.Equal(t, 1, opened.NoteCount)
	assert.Equal(t, int64(10), opened.TotalSize)

	stored, err := store.NewConfigStore(afero.NewOsFs()).Load(target)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.NoteCount)
	assert.Equal(t, int64(10), stored.TotalSize)
}

func TestManagerOnMemFs(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/notes/a.md", []byte("hello"), 0644))

	m, err := New("/data/onix", WithFs(fs), WithIDGenerator(func() string { return "fixed-id" }))
	require.NoError(t, err)

	v, err := m.Open("/notes")
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", v.ID)
	assert.Equal(t, "notes", v.Name)
	assert.Equal(t, 1, v.NoteCount)

	exists, err := afero.Exists(fs, "/data/onix/recent_vaults.json")
	require.NoError(t, err)
	assert.True(t, exists)
}
