package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/akeren/mandarin-waitlist/config"
	"github.com/akeren/mandarin-waitlist/pkg/migrations"
	"github.com/akeren/mandarin-waitlist/pkg/utils"
	"github.com/spf13/cobra"
)

const migrateTimeout = 5 * time.Minute

func migrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQL migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrationDB(cmd.Context(), func(ctx context.Context, db *sql.DB, cfg migrations.Config) error {
				return migrations.Up(ctx, db, cfg)
			})
		},
	}

	var steps int
	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back applied migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrationDB(cmd.Context(), func(ctx context.Context, db *sql.DB, cfg migrations.Config) error {
				return migrations.Down(ctx, db, cfg, steps)
			})
		},
	}
	downCmd.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrationDB(cmd.Context(), func(ctx context.Context, db *sql.DB, cfg migrations.Config) error {
				status, err := migrations.CurrentStatus(ctx, db, cfg)
				if err != nil {
					return err
				}
				switch {
				case status.Pristine:
					fmt.Fprintln(cmd.OutOrStdout(), "no migrations applied")
				case status.Dirty:
					fmt.Fprintf(cmd.OutOrStdout(), "%d (dirty)\n", status.Version)
				default:
					fmt.Fprintln(cmd.OutOrStdout(), status.Version)
				}
				return nil
			})
		},
	}

	migrateCmd.AddCommand(downCmd, versionCmd)
	return migrateCmd
}

func withMigrationDB(parent context.Context, fn func(context.Context, *sql.DB, migrations.Config) error) error {
	db, err := config.NewDatabase(logger, &config.DBConfig{})
	if err != nil {
		logger.Error("Failed to connect to database for migration", "error", err)
		return err
	}
	defer config.CloseDatabase(db, logger)

	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("Failed to get SQL DB instance for migration", "error", err)
		return err
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, migrateTimeout)
	defer cancel()

	cfg := migrations.Config{
		Dir:    utils.GetEnvTrimmedOrDefault("MIGRATIONS_DIR", "migrations"),
		Logger: logger,
	}
	if err := fn(ctx, sqlDB, cfg); err != nil {
		logger.Error("Database migration failed", "error", err)
		return err
	}
	return nil
}
