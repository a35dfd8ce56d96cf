package config

import (
	"bytes"
	"fmt"
	"os"

	"sonerezh/internal/fsutil"
	"sonerezh/internal/models"
	"sonerezh/internal/shared"

	"github.com/BurntSushi/toml"
)

// DatabaseConfig holds the connection parameters written by the installer.
type DatabaseConfig struct {
	Datasource models.Datasource `toml:"datasource"`
	Host       string            `toml:"host"`
	Login      string            `toml:"login"`
	Password   string            `toml:"password"`
	Database   string            `toml:"database"`
	Encoding   string            `toml:"encoding"`
	Persistent bool              `toml:"persistent"`
}

// databaseFile is the on-disk layout, one named connection per table.
type databaseFile struct {
	Default DatabaseConfig `toml:"default"`
}

// NewDatabaseConfig builds the connection parameters from the installer form.
// Encoding and persistence are fixed.
func NewDatabaseConfig(in models.InstallDatabase) DatabaseConfig {
	return DatabaseConfig{
		Datasource: in.Datasource,
		Host:       in.Host,
		Login:      in.Login,
		Password:   in.Password,
		Database:   in.Database,
		Encoding:   "utf8",
		Persistent: false,
	}
}

// LoadDatabaseConfig reads the default connection from a database config file.
func LoadDatabaseConfig(path string) (*DatabaseConfig, error) {
	var file databaseFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, shared.ErrNotInstalled)
		}
		return nil, fmt.Errorf("failed to parse database config %s: %w", path, err)
	}
	if !file.Default.Datasource.Valid() {
		return nil, fmt.Errorf("database config %s: unsupported datasource %q", path, file.Default.Datasource)
	}
	return &file.Default, nil
}

// WriteDatabaseConfig writes the connection parameters, readable by the owner only.
func WriteDatabaseConfig(path string, db DatabaseConfig) error {
	var buf bytes.Buffer
	buf.WriteString("# Generated by the Sonerezh installer.\n")
	if err := toml.NewEncoder(&buf).Encode(databaseFile{Default: db}); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrorEncodeFile, err)
	}
	if err := fsutil.WriteFileAtomic(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrorCreateFile, err)
	}
	return nil
}
