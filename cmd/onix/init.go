package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/onixnotes/onix/internal/config"
	"github.com/onixnotes/onix/internal/store"
	"github.com/spf13/cobra"
)

// initCmd represents: `onix init`
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the onix configuration file",
	Long: `Create the onix configuration file, prompting for each value.
Press enter to accept the default shown in brackets.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit(bufio.NewReader(cmd.InOrStdin()), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

// runInit handles the interactive initialization process
func runInit(in *bufio.Reader, out io.Writer) error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	defaultConfigPath := configPath
	if defaultConfigPath == "" {
		if defaultConfigPath, err = config.DefaultPath(); err != nil {
			return err
		}
	}
	defaultDataDir, err := store.DefaultDataDir()
	if err != nil {
		return err
	}

	path := expandHome(prompt(in, out, "Config file location", defaultConfigPath), homeDir)
	data := expandHome(prompt(in, out, "Data directory", defaultDataDir), homeDir)
	level := prompt(in, out, "Log level", "info")

	c := config.Default()
	if data != defaultDataDir {
		c.DataDir = data
	}
	c.Logging.Level = level

	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(out, "\nConfig file already exists at %s\n", path)
		answer := strings.ToLower(prompt(in, out, "Overwrite? (y/N)", "n"))
		if answer != "y" && answer != "yes" {
			fmt.Fprintln(out, "Initialization cancelled.")
			return nil
		}
	}

	if err := config.Save(c, path); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n✓ Configuration file created at %s\n", path)
	return nil
}

func prompt(in *bufio.Reader, out io.Writer, label, def string) string {
	fmt.Fprintf(out, "%s [%s]: ", label, def)
	line, _ := in.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return def
	}
	return line
}

// expandHome expands a leading ~/ to the home directory
func expandHome(path, homeDir string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir, path[2:])
	}
	return path
}
