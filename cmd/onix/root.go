package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/onixnotes/onix/internal/config"
	"github.com/onixnotes/onix/internal/logger"
	"github.com/onixnotes/onix/internal/manager"
	"github.com/onixnotes/onix/internal/store"
	"github.com/spf13/cobra"
)

var (
	// Global flags (available to all subcommands)
	configPath string
	dataDir    string
	logLevel   string
	outputJSON bool

	// cfg is the loaded configuration, set before any subcommand runs
	cfg *config.Config
)

// rootCmd represents the base command: `onix`
var rootCmd = &cobra.Command{
	Use:   "onix",
	Short: "Onix manages vaults of markdown notes",
	Long: `Onix turns directories into note vaults, keeps their configuration and
statistics up to date, and remembers the vaults you used recently.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
}

// Execute is called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the config file (default is the user config dir)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory holding the recent-vaults list")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Print results as JSON")
}

// setup loads the configuration and initializes logging.
// Precedence: flag > env > config file > default.
func setup(cmd *cobra.Command) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg = loaded

	// Flags win over whatever viper resolved from env and file
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}

	return logger.Init(logger.Options{
		Level:  cfg.Logging.Level,
		JSON:   cfg.Logging.JSON,
		ToFile: cfg.Logging.ToFile,
		// Full-screen commands own the terminal, so stderr logging is off
		Quiet:  cmd.Annotations["fullscreen"] == "true",
	})
}

// newManager builds the vault manager from the loaded configuration
func newManager() (*manager.Manager, error) {
	dir := cfg.DataDir
	// Fall back to the platform data directory
	if dir == "" {
		d, err := store.DefaultDataDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	return manager.New(dir)
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
