// filepath: internal/repository/schema.go
package repository

import (
	"context"
	"fmt"

	"sonerezh/internal/db/migrations"
	"sonerezh/internal/logging"
	"sonerezh/internal/models"

	"github.com/pressly/goose/v3"
)

// gooseDialect returns the goose dialect and the embedded migration directory.
func gooseDialect(ds models.Datasource) (string, string, error) {
	switch ds {
	case models.DatasourceMySQL:
		return "mysql", "mysql", nil
	case models.DatasourcePostgres:
		return "postgres", "postgres", nil
	case models.DatasourceSQLite:
		return "sqlite3", "sqlite", nil
	}
	return "", "", fmt.Errorf("no migrations for datasource %q", ds)
}

// ApplySchema creates every table of the application by migrating to the latest version.
func (s *Repository) ApplySchema(ctx context.Context) error {
	return s.Migrate(ctx, "up")
}

// Migrate runs a goose command ("up", "down" or "status") against the database.
func (s *Repository) Migrate(ctx context.Context, command string) error {
	dialect, dir, err := gooseDialect(s.Datasource)
	if err != nil {
		return err
	}

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	logging.Log.Infof("Running migration command: %s (%s)", command, dialect)

	var gooseErr error
	switch command {
	case "up":
		gooseErr = goose.UpContext(ctx, s.DB, dir)
	case "down":
		gooseErr = goose.DownContext(ctx, s.DB, dir)
	case "status":
		gooseErr = goose.StatusContext(ctx, s.DB, dir)
	default:
		return fmt.Errorf("unknown migration command: %s", command)
	}

	if gooseErr != nil {
		return fmt.Errorf("migration failed: %w", gooseErr)
	}
	return nil
}

// SchemaVersion returns the current goose version of the database.
func (s *Repository) SchemaVersion(ctx context.Context) (int64, error) {
	dialect, _, err := gooseDialect(s.Datasource)
	if err != nil {
		return 0, err
	}
	if err := goose.SetDialect(dialect); err != nil {
		return 0, fmt.Errorf("failed to set dialect: %w", err)
	}
	return goose.GetDBVersionContext(ctx, s.DB)
}
