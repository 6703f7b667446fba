package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jonandersen/apca/internal/config"
	"github.com/jonandersen/apca/internal/logging"
)

var Version = "dev"

// jsonOutput controls whether output is formatted as JSON
var jsonOutput bool

// logLevel overrides APCA_LOG_LEVEL and the configured level when set.
var logLevel string

var rootCmd = &cobra.Command{
	Use:   "apca",
	Short: "Alpaca options and equities CLI",
	Long: `A CLI for Alpaca market data and multi-leg option orders.

Credentials are read from the system keyring (see 'apca configure') or from
APCA_API_KEY_ID and APCA_API_SECRET_KEY. A .env file in the working
directory is loaded first.`,
	Version:           Version,
	PersistentPreRunE: setupRun,
}

func init() {
	// Subcommands install their own pre-run hooks; run the root's first.
	cobra.EnableTraverseRunHooks = true

	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

// setupRun loads .env and configures logging before any command runs.
func setupRun(cmd *cobra.Command, args []string) error {
	if err := config.LoadEnv(); err != nil {
		return err
	}

	level := logLevel
	if level == "" {
		level = os.Getenv(config.EnvLogLevel)
	}
	if level == "" {
		if cfg, err := config.Load(config.ConfigPath()); err == nil {
			level = cfg.LogLevel
		}
	}
	return logging.Setup(level, cmd.ErrOrStderr())
}

// SetVersion sets the version reported by --version.
func SetVersion(v string) {
	Version = v
	rootCmd.Version = v
}

// GetJSONMode returns whether JSON output mode is enabled.
func GetJSONMode() bool {
	return jsonOutput
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
