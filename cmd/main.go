// cmd/main.go is the application entry point.
// It wires together all layers behind the videotheek command line.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Shivanand-hulikatti/videotheek/internal/config"
	"github.com/Shivanand-hulikatti/videotheek/internal/database"
	"github.com/Shivanand-hulikatti/videotheek/internal/logging"
	"github.com/Shivanand-hulikatti/videotheek/internal/repository"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  zerolog.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "videotheek",
	Short: "Film catalogue with reservations, an audit log and a JSON API",
	Long: `videotheek serves a small video-rental catalogue. Administrators add,
edit and delete films; signed-in users reserve and return them. Every change
is recorded in the audit log.`,
	PersistentPreRunE: initializeApp,
	SilenceUsage:      true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initializeApp loads the configuration and sets up the logger.
func initializeApp(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger = logging.New(cfg.Logging, os.Stderr)
	return nil
}

// openStore returns the configured store and a function releasing it.
// Pending migrations are applied first when migrate is set.
func openStore(ctx context.Context, dbCfg config.DatabaseConfig, migrate bool) (repository.Store, func(), error) {
	if dbCfg.Driver == "memory" {
		logger.Warn().Msg("using in-memory storage, data is lost on exit")
		return repository.NewMemoryStore(), func() {}, nil
	}

	pool, err := database.NewPool(ctx, dbCfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}
	logger.Info().Msg("connected to PostgreSQL")

	if migrate {
		if err := database.Migrate(ctx, pool, database.MigrateUp, logger); err != nil {
			pool.Close()
			return nil, nil, err
		}
	}
	return repository.NewPostgresStore(pool), pool.Close, nil
}
