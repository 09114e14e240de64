// Package cli implements the hotel command line: the API server, schema
// migration, catalog seeding, the booking log consumer and a token
// helper for local testing.
package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/hotel-reservation/internal/config"
	"github.com/iliyamo/hotel-reservation/internal/database"
	"github.com/iliyamo/hotel-reservation/internal/logging"
)

// RootOptions holds the global flags.
type RootOptions struct {
	EnvFile  string
	LogLevel string
}

// NewRootCommand returns the hotel root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}
	cmd := &cobra.Command{
		Use:   "hotel",
		Short: "Hotel room reservation and pricing service",
		Long: `Hotel runs the room reservation API: guests browse availability,
hold rooms in a cart and book them; admins manage room types and bookings.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadDotEnv(opts.EnvFile)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override LOG_LEVEL")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewConsumeCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))
	return cmd
}

// runtime is what most commands need: config, a logger and a database.
type runtime struct {
	cfg config.Config
	log *zap.Logger
	db  *sql.DB
}

func (r *runtime) Close() {
	if r.db != nil {
		_ = r.db.Close()
	}
	_ = r.log.Sync()
}

func loadConfig(opts *RootOptions) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, nil, err
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	log, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, log, nil
}

// openRuntime loads config, opens the database and, when migrate is set,
// applies the schema.
func openRuntime(ctx context.Context, opts *RootOptions, migrate bool) (*runtime, error) {
	cfg, log, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	db, err := database.Open(database.Settings{
		Driver:     cfg.DBDriver,
		User:       cfg.DBUser,
		Pass:       cfg.DBPass,
		Host:       cfg.DBHost,
		Port:       cfg.DBPort,
		Name:       cfg.DBName,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		_ = log.Sync()
		return nil, fmt.Errorf("open database: %w", err)
	}
	rt := &runtime{cfg: cfg, log: log, db: db}
	if migrate {
		if err := database.Migrate(ctx, db, cfg.DBDriver); err != nil {
			rt.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	log.Info("database ready", zap.String("driver", cfg.DBDriver))
	return rt, nil
}
