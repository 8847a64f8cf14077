package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roamplan/server/internal/storage/postgres"
)

var migrateSteps int

var migrateCmd = &cobra.Command{
	Use:   "migrate [up|down]",
	Short: "Apply database migrations",
	Long: `Apply database schema migrations for the postgres driver.

The sqlite driver applies its schema automatically when the server opens the
database file, so this command only operates on postgres.

Examples:
  # Apply all pending migrations
  server migrate up

  # Roll back the most recent migration
  server migrate down --steps 1`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}

		if cfg.Database.Driver != "postgres" {
			fmt.Fprintln(cmd.OutOrStdout(), "sqlite schema is applied on open; nothing to do")
			return nil
		}

		switch args[0] {
		case "up":
			if err := postgres.MigrateUp(cfg.Database.DSN); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		case "down":
			if err := postgres.MigrateDown(cfg.Database.DSN, migrateSteps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", migrateSteps)
		default:
			return fmt.Errorf("unknown direction %q (want up or down)", args[0])
		}
		return nil
	},
}

func init() {
	migrateCmd.Flags().IntVar(&migrateSteps, "steps", 1, "number of migrations to roll back (down only)")
}
