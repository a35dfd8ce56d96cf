// filepath: internal/cli/migrate.go
package cli

import (
	"context"
	"fmt"

	"sonerezh/internal/config"
	"sonerezh/internal/logging"
	"sonerezh/internal/repository"

	"github.com/spf13/cobra"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database migration tools",
	Long:  `Manage the schema version of the installed database. Use subcommands 'up', 'down', or 'status'.`,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Migrate the database to the most recent version",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigration(cmd.Context(), "up")
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the database by one version",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigration(cmd.Context(), "down")
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Dump the migration status for the current DB",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigration(cmd.Context(), "status")
	},
}

func init() {
	RootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(upCmd)
	migrateCmd.AddCommand(downCmd)
	migrateCmd.AddCommand(statusCmd)
}

func runMigration(ctx context.Context, command string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// The root command's PersistentPreRunE has already loaded the 'cfg' global variable.
	dbCfg, err := config.LoadDatabaseConfig(cfg.DatabaseConfigPath())
	if err != nil {
		return fmt.Errorf("failed to read database configuration: %w", err)
	}

	repo, err := repository.Open(ctx, *dbCfg, cfg.ConnectTimeout)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer repo.Close()

	if err := repo.Migrate(ctx, command); err != nil {
		return err
	}

	logging.Log.Info("Migration operation completed successfully.")
	return nil
}
