// Package cli implements the command line interface built on cobra.
// Commands run against package-level services injected by Configure.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/extindex/extindex/internal/core/ports/driven"
	"github.com/extindex/extindex/internal/core/ports/driving"
	"github.com/extindex/extindex/internal/logger"
)

// version is overridden at build time via -ldflags.
var version = "dev"

// Services wired in by Configure before Execute runs.
var (
	configStore driven.ConfigStore
	repoStore   driven.RepositoryStore
	searchIndex driven.SearchIndex
	updater     driving.Updater
	checker     driving.Checker
	submitter   driving.Submitter
	dispatcher  driving.Dispatcher
)

var (
	logLevel   string
	logConsole bool
)

var rootCmd = &cobra.Command{
	Use:   "extindex",
	Short: "GitHub extension catalog and ingestion service",
	Long: `extindex catalogues GitHub-hosted extensions: it imports repository
metadata, the optional package.yaml manifest, readme and releases, infers
the extension type from the file tree, and keeps everything searchable.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.Setup(logLevel, logConsole)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logConsole, "log-console", true,
		"human-readable console logging instead of JSON")
}

// Configure injects the wired services the commands run against.
func Configure(
	config driven.ConfigStore,
	repos driven.RepositoryStore,
	index driven.SearchIndex,
	upd driving.Updater,
	chk driving.Checker,
	sub driving.Submitter,
	disp driving.Dispatcher,
) {
	configStore = config
	repoStore = repos
	searchIndex = index
	updater = upd
	checker = chk
	submitter = sub
	dispatcher = disp
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
