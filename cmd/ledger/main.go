package main

import (
	"context"
	"fmt"
	"os"

	"ledger/internal/backend"
	"ledger/internal/cli"
	"ledger/internal/config"
	"ledger/internal/log"

	"github.com/spf13/cobra"
)

// app holds what every subcommand needs once the root command has run.
type app struct {
	cfg     *config.Config
	logger  *log.Logger
	backend *backend.Backend
}

var (
	state   app
	envFile string
)

var rootCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Personal ledger mirrored from Notion",
	Long: `ledger keeps a local copy of the categories, payment methods and
transactions stored in three Notion databases and answers queries from it.

Views are served from the local cache first; the cache is refreshed from
Notion on every run. Writes go straight to Notion.

Configuration is read from the environment (and a .env file when present):
  NOTION_TOKEN, NOTION_CATEGORIES_DB_ID, NOTION_PAYMENT_METHODS_DB_ID,
  NOTION_TRANSACTIONS_DB_ID, CACHE_BACKEND, SQLITE_DB_PATH, AMQP_URL ...`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := cli.LoadEnvFile(envFile); err != nil {
			return err
		}
		cfg, err := cli.LoadConfig()
		if err != nil {
			return err
		}
		state.cfg = cfg
		state.logger = cli.SetupLogger(cfg, log.ComponentCLI)

		backendCfg, err := backend.FromAppConfig(cfg)
		if err != nil {
			return err
		}
		b, err := backend.NewFactory(state.logger).CreateBackend(cmd.Context(), backendCfg)
		if err != nil {
			return fmt.Errorf("create backend: %w", err)
		}
		state.backend = b
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if state.backend == nil {
			return nil
		}
		return state.backend.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file to load")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
