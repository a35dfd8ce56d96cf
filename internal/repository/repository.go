// filepath: internal/repository/repository.go
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"sonerezh/internal/config"
	"sonerezh/internal/logging"
	"sonerezh/internal/models"

	"github.com/Masterminds/squirrel"
)

// Repository wraps the application database opened from the installer's
// database configuration.
type Repository struct {
	DB         *sql.DB
	Builder    squirrel.StatementBuilderType // SQL Query Builder
	Datasource models.Datasource
}

// New wraps an already opened database handle.
func New(db *sql.DB, datasource models.Datasource) *Repository {
	var placeholder squirrel.PlaceholderFormat = squirrel.Question
	if datasource == models.DatasourcePostgres {
		placeholder = squirrel.Dollar
	}
	return &Repository{
		DB:         db,
		Builder:    squirrel.StatementBuilder.PlaceholderFormat(placeholder),
		Datasource: datasource,
	}
}

// Open connects to the database described by cfg and verifies the connection.
// The ping is bounded by timeout.
func Open(ctx context.Context, cfg config.DatabaseConfig, timeout time.Duration) (*Repository, error) {
	db, err := openDB(cfg, timeout)
	if err != nil {
		return nil, err
	}

	if !cfg.Persistent {
		db.SetConnMaxIdleTime(time.Minute)
	}
	if cfg.Datasource == models.DatasourceSQLite {
		// One writer at a time.
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logging.Log.Debugf("Repository: pinging %s database '%s'", cfg.Datasource, cfg.Database)
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", cfg.Datasource, err)
	}

	return New(db, cfg.Datasource), nil
}

// Close closes the database connection.
func (s *Repository) Close() error {
	return s.DB.Close()
}
