package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/information-sharing-networks/pass-issuer/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the ledger schema migrations",
	Long:  `Apply all pending migrations to the database at DATABASE_URL and print the schema version.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is not set")
		}

		pool, err := database.Connect(cmd.Context(), cfg.PoolConfig())
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := database.Migrate(cmd.Context(), pool); err != nil {
			return err
		}

		v, err := database.MigrationVersion(cmd.Context(), pool)
		if err != nil {
			return err
		}
		appLogger.Info("database migrated", slog.Int64("version", v))
		fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", v)
		return nil
	},
}
