package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/onixnotes/onix/internal/scanner"
	"github.com/onixnotes/onix/internal/tui"
	"github.com/spf13/cobra"
)

// browseCmd represents: `onix browse`
var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse recent vaults interactively",
	Long: `Open a full-screen list of recent vaults. Select a vault to see its
statistics and git status, press enter to open it, x to close it.`,
	Args: cobra.NoArgs,
	// stderr logging would corrupt the alternate screen
	Annotations: map[string]string{"fullscreen": "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}

		// The manager serves the browser directly; git status is loaded per selection
		p := tea.NewProgram(tui.NewBrowser(m, scanner.CollectGitMetadata), tea.WithAltScreen(), tea.WithMouseCellMotion())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("TUI error: %w", err)
		}
		return nil
	},
}

func init() {
	// Attach the `browse` command to the root
	rootCmd.AddCommand(browseCmd)
}
