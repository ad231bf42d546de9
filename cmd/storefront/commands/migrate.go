package commands

import (
	"context"
	"time"

	"github.com/marshallshelly/storefront/cmd/storefront/output"
	"github.com/marshallshelly/storefront/pkg/postgres"
	"github.com/spf13/cobra"
)

var resetSchema bool

// migrateCmd applies pending schema migrations
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Long: `Apply every schema migration that has not run yet. Applied versions
are tracked in schema_migrations, so running migrate repeatedly is safe.

Examples:
  storefront migrate                 # Apply pending migrations
  storefront migrate --reset         # Drop everything and re-apply
  storefront migrate status          # Show the migration history`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		db, _, err := connect(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		if resetSchema {
			if err := postgres.DropSchema(ctx, db); err != nil {
				return err
			}
			output.Warning("dropped existing schema")
		}

		if err := postgres.NewMigrator(db).Up(ctx); err != nil {
			return err
		}
		output.Success("schema is up to date")
		return nil
	},
}

// migrateStatusCmd lists applied and pending migrations
var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the migration history",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		db, _, err := connect(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		records, err := postgres.NewMigrator(db).Status(ctx)
		if err != nil {
			return err
		}

		output.Section("Migrations")
		for _, r := range records {
			if r.AppliedAt != nil {
				output.Success("%s %s (applied %s)", r.Version, r.Name, r.AppliedAt.Format(time.RFC3339))
			} else {
				output.Muted("%s %s (pending)", r.Version, r.Name)
			}
		}
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&resetSchema, "reset", false, "Drop all tables before re-applying migrations")
	migrateCmd.AddCommand(migrateStatusCmd)
	rootCmd.AddCommand(migrateCmd)
}
