// Package commands provides the CLI commands for the acta agent core.
package commands

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/acta-run/acta-core/internal/config"
	"github.com/acta-run/acta-core/internal/logging"
	"github.com/acta-run/acta-core/internal/profile"
)

// Version information set at build time.
var (
	Version   = "0.1.0"
	BuildTime = "dev"
)

// Global flags.
var (
	printLogs bool
	logLevel  string
	logFile   bool
)

// paths, profiles, and log are populated by PersistentPreRun and shared by
// every subcommand; none of cmd/acta's commands run concurrently with one
// another, so unsynchronized package state is safe here.
var (
	paths    *config.Paths
	profiles *profile.Manager
	log      *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:     "acta",
	Short:   "acta - local-first permissioned agent execution core",
	Version: Version,
	Long: `acta runs the agent execution core: trust evaluation, planning,
tool orchestration, and permission prompting for a local AI assistant.

Run 'acta serve' to start the stdio IPC server the desktop shell talks to.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loadDotEnv()

		paths = config.GetPaths()
		if err := paths.EnsurePaths(); err != nil {
			return fmt.Errorf("acta: ensure data directories: %w", err)
		}

		bootstrapLog := zerolog.New(os.Stderr).Level(logging.ParseLevel(logLevel)).With().Timestamp().Logger()
		profiles = profile.New(paths, bootstrapLog)

		logCfg := logging.Config{
			Level:     logging.ParseLevel(logLevel),
			Output:    os.Stderr,
			Pretty:    printLogs,
			LogToFile: logFile,
		}
		if !printLogs && !logFile {
			logCfg.Level = logging.FatalLevel
		}

		l, err := logging.New(logCfg, profiles)
		if err != nil {
			return fmt.Errorf("acta: init logging: %w", err)
		}
		log = l

		if logFile {
			log.Info().Str("version", Version).Str("logFile", log.LogFilePath()).Msg("acta started with file logging")
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&printLogs, "print-logs", false, "Print logs to stderr")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "INFO", "Log level (DEBUG|INFO|WARN|ERROR)")
	rootCmd.PersistentFlags().BoolVar(&logFile, "log-file", false, "Write logs to the active profile's log directory")

	rootCmd.SetVersionTemplate(fmt.Sprintf("acta %s (%s)\n", Version, BuildTime))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(rulesCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadDotEnv loads a .env file from the current directory, used for cloud
// adapter API keys; absent is not an error.
func loadDotEnv() {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil && log != nil {
			log.Warn().Err(err).Msg("acta: failed to load .env")
		}
	}
}
