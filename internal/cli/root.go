// Package cli implements the m365 command line interface.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	// version is set by goreleaser ldflags.
	version = "dev"

	// configPath overrides the default config file location.
	configPath string

	// verbose enables debug logging.
	verbose bool
)

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "m365",
	Short: "Command line client for Microsoft 365",
	Long: `m365 talks to Microsoft 365 services from the terminal: read mail,
list calendars and events, and browse OneDrive.

Configuration lives in a TOML file (default ~/.config/m365/config.toml)
holding the Azure application credentials. Run 'm365 auth login' to set it
up and authenticate.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string for the CLI.
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// logger returns a slog logger honouring the verbose flag.
func logger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose debug output")
}
