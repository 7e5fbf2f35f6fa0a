package main

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/onixnotes/onix/internal/logger"
	"github.com/onixnotes/onix/internal/scanner"
	"github.com/onixnotes/onix/internal/store"
	"github.com/onixnotes/onix/internal/vault"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// scanCmd represents: `onix scan [path]`
var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Count the notes under a directory without touching it",
	Long: `Scan a directory and report how many notes it holds and their total size.
A vault is scanned with its own settings; any other directory with the defaults.
Nothing is written to disk.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "."
		if len(args) == 1 {
			path = args[0]
		}

		// Scan with the vault's own settings when path is already a vault
		fs := afero.NewOsFs()
		settings := vault.DefaultSettings()
		v, err := store.NewConfigStore(fs).Load(path)
		switch {
		case err == nil:
			settings = v.Config.Settings
			logger.Debug("using vault settings", "vault", v.Name)
		case errors.Is(err, vault.ErrNotFound):
			// a missing directory is reported by the scan itself
		default:
			return err
		}

		logger.Info("scanning directory", "path", path,
			"extensions", settings.FileExtensions,
			"exclude", settings.ExcludePatterns)

		res, err := scanner.Stats(fs, path, settings)
		if err != nil {
			return fmt.Errorf("failed to scan %s: %w", path, err)
		}
		logger.Info("scan completed", "notes", res.NoteCount, "bytes", res.TotalSize)

		if outputJSON {
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"path":       path,
				"note_count": res.NoteCount,
				"total_size": res.TotalSize,
			})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d notes (%s) in %s\n",
			res.NoteCount, humanize.Bytes(uint64(res.TotalSize)), path)
		return nil
	},
}

func init() {
	// Attach the `scan` command to the root
	rootCmd.AddCommand(scanCmd)
}
