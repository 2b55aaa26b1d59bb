package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gurkanbulca/teamtask/internal/config"
	"github.com/gurkanbulca/teamtask/internal/database"
	"github.com/gurkanbulca/teamtask/pkg/auth"
	"github.com/gurkanbulca/teamtask/pkg/logger"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Manage the teamtask database schema",
		SilenceUsage: true,
	}

	root.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Create or update the schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), func(ctx context.Context, db *database.DB, logger *zap.Logger) error {
				logger.Info("running database migrations")
				if err := db.Migrate(ctx); err != nil {
					return err
				}
				logger.Info("migrations completed")
				return nil
			})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "seed",
		Short: "Migrate and create the demo company",
		Long: `Creates "Default Company" with an admin (admin@default.com / admin123),
an employee (john@default.com / employee123), three tasks and a comment.
Does nothing when the company already exists.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), func(ctx context.Context, db *database.DB, logger *zap.Logger) error {
				if err := db.Migrate(ctx); err != nil {
					return err
				}
				return seed(ctx, db, auth.NewPasswordManager(), logger)
			})
		},
	})

	return root
}

// withDatabase opens the configured database for the duration of fn.
func withDatabase(ctx context.Context, fn func(context.Context, *database.DB, *zap.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.ValidateConfig(); err != nil {
		return err
	}

	zlog, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	defer func() { _ = zlog.Sync() }()

	db, err := database.Open(ctx, database.Config{
		Driver:   cfg.Database.Driver,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
		Path:     cfg.Database.Path,
	}, zlog)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(ctx, db, zlog)
}
