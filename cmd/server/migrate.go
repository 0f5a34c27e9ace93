package main

import (
	"context"
	"strconv"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/iliyamo/devvibe-backend/internal/config"
	"github.com/iliyamo/devvibe-backend/internal/database"
)

// NewMigrateCmd creates the migrate subcommand.  Without a subcommand it
// applies all pending migrations.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Apply all pending schema migrations to the MySQL database named by DB_*.`,
		RunE: withMigrator(func(cmd *cobra.Command, m *database.Migrator, _ []string) error {
			cmd.Println("Running migrations...")
			if err := m.Up(); err != nil {
				return err
			}
			cmd.Println("Migrations completed successfully")
			return nil
		}),
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations (drops every table)",
		RunE: withMigrator(func(cmd *cobra.Command, m *database.Migrator, _ []string) error {
			if err := m.Down(); err != nil {
				return err
			}
			cmd.Println("Rolled back all migrations")
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied migration version",
		RunE: withMigrator(func(cmd *cobra.Command, m *database.Migrator, _ []string) error {
			v, dirty, err := m.Version()
			if err != nil {
				return err
			}
			cmd.Printf("version %d (dirty: %t)\n", v, dirty)
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "force VERSION",
		Short: "Mark VERSION as applied without running it",
		Args:  cobra.ExactArgs(1),
		RunE: withMigrator(func(cmd *cobra.Command, m *database.Migrator, args []string) error {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return oops.Code("INVALID_VERSION").Errorf("version must be an integer, got %q", args[0])
			}
			if err := m.Force(v); err != nil {
				return err
			}
			cmd.Printf("forced version %d\n", v)
			return nil
		}),
	})

	return cmd
}

type migratorFunc func(cmd *cobra.Command, m *database.Migrator, args []string) error

// withMigrator connects to the database, runs fn and closes everything.
func withMigrator(fn migratorFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		dbCfg, err := config.DBFromEnv()
		if err != nil {
			return oops.Code("CONFIG_INVALID").Wrap(err)
		}

		cmd.Println("Connecting to database...")
		db, err := database.Open(context.Background(), dbCfg)
		if err != nil {
			return oops.Code("DB_CONNECT_FAILED").With("host", dbCfg.Host).Wrap(err)
		}
		m, err := database.NewMigrator(db)
		if err != nil {
			_ = db.Close()
			return err
		}
		defer func() { _ = m.Close() }()

		return fn(cmd, m, args)
	}
}
