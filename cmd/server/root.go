package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var envFile string

// NewRootCmd creates the root command.  Running it without a subcommand
// starts the HTTP server.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devvibe",
		Short: "DevVibe backend: accounts, password reset and AI proxy",
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			// A missing .env file is fine; the environment may be set already.
			_ = godotenv.Load(envFile)
			return nil
		},
		RunE:         runServe,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading configuration")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
