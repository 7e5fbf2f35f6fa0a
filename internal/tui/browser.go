package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/onixnotes/onix/internal/scanner"
	"github.com/onixnotes/onix/internal/vault"
)

var (
	titleStyle        = lipgloss.NewStyle().MarginLeft(2)
	itemStyle         = lipgloss.NewStyle().PaddingLeft(2)
	selectedItemStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("170"))
	pathStyle         = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	labelStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	valueStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	currentStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	paneStyle         = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("62"))
)

// VaultService is the part of the vault manager the browser drives
type VaultService interface {
	VaultsInfo() ([]vault.VaultInfo, error)
	Open(path string) (vault.Vault, error)
	Close() error
}

// GitInspector returns git metadata for a vault root
type GitInspector func(root string) (scanner.GitMetadata, error)

// VaultItem is an entry of the vault list
type VaultItem struct {
	Info vault.VaultInfo
}

func (i VaultItem) FilterValue() string { return i.Info.Name }

func (i VaultItem) Title() string {
	if i.Info.IsCurrent {
		return "● " + i.Info.Name
	}
	return "  " + i.Info.Name
}

func (i VaultItem) Description() string { return i.Info.Path }

type vaultsLoadedMsg struct {
	infos []vault.VaultInfo
	err   error
}

type vaultOpenedMsg struct {
	vault vault.Vault
	err   error
}

type vaultClosedMsg struct {
	err error
}

type gitLoadedMsg struct {
	path string
	meta scanner.GitMetadata
	err  error
}

// Browser lists known vaults and lets the user open or close them
type Browser struct {
	service VaultService
	inspect GitInspector

	list   list.Model
	infos  []vault.VaultInfo
	git    map[string]gitLoadedMsg
	status string
	err    error

	width      int
	height     int
	leftWidth  int
	rightWidth int
}

// NewBrowser creates the vault browser model
func NewBrowser(service VaultService, inspect GitInspector) Browser {
	l := list.New(nil, newVaultDelegate(), 0, 0)
	l.Title = "Vaults"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.PaginationStyle = lipgloss.NewStyle()
	l.Styles.HelpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	l.DisableQuitKeybindings()

	return Browser{
		service:    service,
		inspect:    inspect,
		list:       l,
		git:        map[string]gitLoadedMsg{},
		width:      80,
		height:     24,
		leftWidth:  32,
		rightWidth: 48,
	}
}

// Init loads the vault list
func (b Browser) Init() tea.Cmd {
	return tea.Batch(tea.WindowSize(), b.loadVaults())
}

// Update handles messages and updates the model
func (b Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.width = msg.Width
		b.height = msg.Height
		// 40% list, 60% details
		b.leftWidth = int(float64(msg.Width) * 0.4)
		b.rightWidth = msg.Width - b.leftWidth
		// Leave room for the pane border and padding, plus header and footer rows
		b.list.SetWidth(max(b.leftWidth-4, 10))
		b.list.SetHeight(max(msg.Height-4, 5))
		return b, nil

	case tea.KeyMsg:
		// While filtering every key belongs to the filter input
		if b.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return b, tea.Quit
		case "r":
			b.status = "refreshing..."
			return b, b.loadVaults()
		case "enter":
			if item, ok := b.list.SelectedItem().(VaultItem); ok {
				// Opening rescans the vault, so the stats shown refresh afterwards
				b.status = "opening " + item.Info.Name + "..."
				return b, b.openVault(item.Info.Path)
			}
			return b, nil
		case "x":
			return b, b.closeVault()
		}

	case vaultsLoadedMsg:
		b.err = msg.err
		if msg.err == nil {
			b.infos = msg.infos
			items := make([]list.Item, len(msg.infos))
			for i, info := range msg.infos {
				items[i] = VaultItem{Info: info}
			}
			cmd := b.list.SetItems(items)
			b.status = fmt.Sprintf("%d vaults", len(msg.infos))
			return b, tea.Batch(cmd, b.loadGit())
		}
		return b, nil

	case vaultOpenedMsg:
		b.err = msg.err
		if msg.err != nil {
			return b, nil
		}
		b.status = fmt.Sprintf("opened %s (%d notes)", msg.vault.Name, msg.vault.NoteCount)
		// Drop cached git status so the details pane reloads it
		delete(b.git, msg.vault.Path)
		return b, b.loadVaults()

	case vaultClosedMsg:
		b.err = msg.err
		if msg.err != nil {
			return b, nil
		}
		b.status = "vault closed"
		return b, b.loadVaults()

	case gitLoadedMsg:
		b.git[msg.path] = msg
		return b, nil
	}

	// Everything else goes to the list; a new selection needs its git status
	var cmd tea.Cmd
	prev := b.selectedPath()
	b.list, cmd = b.list.Update(msg)
	if b.selectedPath() != prev {
		cmd = tea.Batch(cmd, b.loadGit())
	}
	return b, cmd
}

// View renders the UI
func (b Browser) View() string {
	header := lipgloss.NewStyle().Width(b.width).Padding(0, 1).Render("onix - vaults")

	// Header and footer take one row each, borders the other two
	paneHeight := max(b.height-4, 3)
	left := paneStyle.Width(b.leftWidth).Height(paneHeight).Render(b.list.View())
	right := paneStyle.Width(b.rightWidth).Height(paneHeight).Padding(1, 1).
		Render(b.renderDetails())

	footer := labelStyle.Render("enter: open  x: close current  r: refresh  /: filter  q: quit")
	if b.err != nil {
		footer = errorStyle.Render("error: "+b.err.Error()) + "  " + footer
	} else if b.status != "" {
		footer = valueStyle.Render(b.status) + "  " + footer
	}

	panes := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	return lipgloss.JoinVertical(lipgloss.Left, header, panes, footer)
}

func (b Browser) selectedPath() string {
	if item, ok := b.list.SelectedItem().(VaultItem); ok {
		return item.Info.Path
	}
	return ""
}

func (b Browser) renderDetails() string {
	item, ok := b.list.SelectedItem().(VaultItem)
	if !ok {
		if len(b.infos) == 0 {
			return "No vaults yet. Use 'onix create' or 'onix open'."
		}
		return "Select a vault"
	}
	info := item.Info

	sections := []string{pathStyle.Render(info.Path), ""}
	if info.IsCurrent {
		sections = append(sections, currentStyle.Render("Current vault"), "")
	}
	sections = append(sections,
		labelStyle.Render("Notes:"), valueStyle.Render("  "+strconv.Itoa(info.NoteCount)), "",
		labelStyle.Render("Size:"), valueStyle.Render("  "+humanize.Bytes(uint64(info.TotalSize))), "",
		labelStyle.Render("Last opened:"), valueStyle.Render("  "+formatTimestamp(info.LastOpened)), "",
	)

	sections = append(sections, labelStyle.Render("Git:"))
	g, ok := b.git[info.Path]
	switch {
	case !ok:
		sections = append(sections, valueStyle.Render("  ..."))
	case g.err != nil:
		sections = append(sections, errorStyle.Render("  "+g.err.Error()))
	case !g.meta.IsGitRepo:
		sections = append(sections, valueStyle.Render("  No"))
	default:
		if g.meta.CurrentBranch != "" {
			sections = append(sections, valueStyle.Render("  Branch: "+g.meta.CurrentBranch))
		}
		if g.meta.RemoteURL != "" {
			sections = append(sections, valueStyle.Render("  Remote: "+g.meta.RemoteURL))
		}
		if g.meta.ChangedCount == 0 {
			sections = append(sections, valueStyle.Render("  Clean"))
		} else {
			sections = append(sections, valueStyle.Render(fmt.Sprintf("  %d uncommitted:", g.meta.ChangedCount)))
			for _, f := range g.meta.Changed {
				sections = append(sections, valueStyle.Render("  - "+f))
			}
			if more := g.meta.ChangedCount - len(g.meta.Changed); more > 0 {
				sections = append(sections, valueStyle.Render(fmt.Sprintf("  ... (%d more)", more)))
			}
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (b Browser) loadVaults() tea.Cmd {
	svc := b.service
	return func() tea.Msg {
		infos, err := svc.VaultsInfo()
		return vaultsLoadedMsg{infos: infos, err: err}
	}
}

func (b Browser) openVault(path string) tea.Cmd {
	svc := b.service
	return func() tea.Msg {
		v, err := svc.Open(path)
		return vaultOpenedMsg{vault: v, err: err}
	}
}

func (b Browser) closeVault() tea.Cmd {
	svc := b.service
	return func() tea.Msg {
		return vaultClosedMsg{err: svc.Close()}
	}
}

// loadGit fetches git metadata for the selection unless it is cached
func (b Browser) loadGit() tea.Cmd {
	path := b.selectedPath()
	if path == "" || b.inspect == nil {
		return nil
	}
	if _, ok := b.git[path]; ok {
		return nil
	}
	inspect := b.inspect
	return func() tea.Msg {
		meta, err := inspect(path)
		return gitLoadedMsg{path: path, meta: meta, err: err}
	}
}

// formatTimestamp renders epoch seconds as local time, or the raw value
func formatTimestamp(ts string) string {
	secs, err := strconv.ParseInt(strings.TrimSpace(ts), 10, 64)
	if err != nil {
		return ts
	}
	t := time.Unix(secs, 0)
	return t.Format("2006-01-02 15:04") + " (" + humanize.Time(t) + ")"
}

func newVaultDelegate() list.DefaultDelegate {
	d := list.NewDefaultDelegate()
	d.Styles.SelectedTitle = selectedItemStyle
	d.Styles.SelectedDesc = selectedItemStyle.Foreground(lipgloss.Color("241"))
	d.Styles.NormalTitle = itemStyle
	d.Styles.NormalDesc = itemStyle.Foreground(lipgloss.Color("241"))
	d.SetSpacing(0)
	return d
}
