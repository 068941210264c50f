package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hirosato/go-bill-ledger/internal/app"
	envconfig "github.com/hirosato/go-bill-ledger/internal/common/config"
)

var storeOverride string
var forceJSON bool
var verbose bool

var (
	cfg      *envconfig.Config
	logger   *slog.Logger
	repos    *app.Repositories
	services *app.Services
	out      *printer
)

var rootCmd = &cobra.Command{
	Use:           "ledgerctl",
	Short:         "Import payment exports into a double-entry ledger",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig(storeOverride)
		if err != nil {
			return err
		}

		level := cfg.SlogLevel()
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		out = newPrinter(cmd.OutOrStdout(), forceJSON)

		// table commands manage storage themselves
		if cmd.HasParent() && cmd.Parent() == tableCmd {
			return nil
		}

		repos, err = app.OpenRepositories(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		services = app.NewServices(repos, cfg.DefaultCurrency, logger)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if repos == nil {
			return nil
		}
		return repos.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storeOverride, "store", "", "Store backend (dynamodb, mysql, memory); memory keeps nothing after exit")
	rootCmd.PersistentFlags().BoolVar(&forceJSON, "json", false, "Print JSON even on a terminal")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")
}

// loadConfig reads the environment, letting --store pick the backend
func loadConfig(store string) (*envconfig.Config, error) {
	if store != "" {
		os.Setenv("STORE_BACKEND", store)
	}
	return envconfig.LoadFromEnv()
}
