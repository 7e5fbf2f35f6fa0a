package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/onixnotes/onix/internal/scanner"
	"github.com/onixnotes/onix/internal/vault"
	"github.com/spf13/cobra"
)

var (
	vaultName        string
	vaultDescription string
	showGit          bool
)

// createCmd represents: `onix create <path> --name <name>`
var createCmd = &cobra.Command{
	Use:   "create <path>",
	Short: "Turn a directory into a new vault",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}

		req := vault.CreateVaultRequest{Path: args[0], Name: vaultName}
		// Only an explicit --description is stored; absent stays null
		if cmd.Flags().Changed("description") {
			req.Description = &vaultDescription
		}
		v, err := m.Create(req)
		if err != nil {
			return err
		}
		return printVault(cmd.OutOrStdout(), v)
	},
}

// openCmd represents: `onix open <path>`
var openCmd = &cobra.Command{
	Use:   "open <path>",
	Short: "Open a vault, adopting the directory if it is not one yet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}
		v, err := m.Open(args[0])
		if err != nil {
			return err
		}
		return printVault(cmd.OutOrStdout(), v)
	},
}

// recentCmd represents: `onix recent`
var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List recently opened vaults",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}
		list, err := m.Recent()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if outputJSON {
			return printJSON(out, list)
		}
		if len(list) == 0 {
			fmt.Fprintln(out, "No recent vaults")
			return nil
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tPATH\tLAST OPENED")
		for _, r := range list {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Name, r.Path, r.LastOpened)
		}
		return tw.Flush()
	},
}

// infoCmd represents: `onix info`
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show statistics of recent vaults that still exist",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}
		infos, err := m.VaultsInfo()
		if err != nil {
			return err
		}
		return printInfos(cmd.OutOrStdout(), infos)
	},
}

// isVaultCmd represents: `onix is-vault <path>`
var isVaultCmd = &cobra.Command{
	Use:   "is-vault <path>",
	Short: "Report whether a directory is a vault",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}
		ok, err := m.IsVault(args[0])
		if err != nil {
			return err
		}
		if outputJSON {
			return printJSON(cmd.OutOrStdout(), map[string]bool{"is_vault": ok})
		}
		fmt.Fprintln(cmd.OutOrStdout(), ok)
		return nil
	},
}

func init() {
	createCmd.Flags().StringVarP(&vaultName, "name", "n", "", "Display name of the vault (required)")
	createCmd.Flags().StringVarP(&vaultDescription, "description", "d", "", "Optional description")
	_ = createCmd.MarkFlagRequired("name")

	infoCmd.Flags().BoolVar(&showGit, "git", false, "Include git status of each vault")

	// Attach the vault commands to the root
	rootCmd.AddCommand(createCmd, openCmd, recentCmd, infoCmd, isVaultCmd)
}

func printVault(w io.Writer, v vault.Vault) error {
	if outputJSON {
		return printJSON(w, v)
	}
	fmt.Fprintf(w, "Vault:  %s\n", v.Name)
	fmt.Fprintf(w, "ID:     %s\n", v.ID)
	fmt.Fprintf(w, "Path:   %s\n", v.Path)
	fmt.Fprintf(w, "Notes:  %d (%s)\n", v.NoteCount, humanize.Bytes(uint64(v.TotalSize)))
	if v.Config.Description != nil && *v.Config.Description != "" {
		fmt.Fprintf(w, "About:  %s\n", *v.Config.Description)
	}
	return nil
}

// vaultInfoWithGit is the JSON shape of `onix info --git`
type vaultInfoWithGit struct {
	vault.VaultInfo
	Git *scanner.GitMetadata `json:"git,omitempty"`
}

func printInfos(w io.Writer, infos []vault.VaultInfo) error {
	rows := make([]vaultInfoWithGit, len(infos))
	for i, info := range infos {
		rows[i].VaultInfo = info
		// Git status is collected on demand, it is never stored in the vault
		if showGit {
			meta, err := scanner.CollectGitMetadata(info.Path)
			if err != nil {
				return err
			}
			rows[i].Git = &meta
		}
	}

	if outputJSON {
		return printJSON(w, rows)
	}
	if len(rows) == 0 {
		fmt.Fprintln(w, "No vaults found")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	header := "NAME\tNOTES\tSIZE\tPATH"
	if showGit {
		header += "\tGIT"
	}
	fmt.Fprintln(tw, header)
	for _, r := range rows {
		line := fmt.Sprintf("%s\t%d\t%s\t%s", r.Name, r.NoteCount, humanize.Bytes(uint64(r.TotalSize)), r.Path)
		if r.Git != nil {
			line += "\t" + r.Git.Summary()
		}
		fmt.Fprintln(tw, line)
	}
	return tw.Flush()
}
