package config

import (
	"errors"
	"fmt"
	"os"

	"sonerezh/internal/logging"
)

// StagedDatabaseConfig is a provisional database configuration. It only becomes
// the application's configuration once Commit is called; Discard removes it.
type StagedDatabaseConfig struct {
	pendingPath string
	finalPath   string
	done        bool
}

// StageDatabaseConfig writes db next to the final database config file.
func StageDatabaseConfig(cfg *Config, db DatabaseConfig) (*StagedDatabaseConfig, error) {
	s := &StagedDatabaseConfig{
		pendingPath: cfg.PendingDatabaseConfigPath(),
		finalPath:   cfg.DatabaseConfigPath(),
	}
	if err := WriteDatabaseConfig(s.pendingPath, db); err != nil {
		return nil, err
	}
	logging.Log.Debugf("Staged database configuration at %s", s.pendingPath)
	return s, nil
}

// Path returns the staged file.
func (s *StagedDatabaseConfig) Path() string {
	return s.pendingPath
}

// Load reads the staged parameters back, the way the application will read them.
func (s *StagedDatabaseConfig) Load() (*DatabaseConfig, error) {
	return LoadDatabaseConfig(s.pendingPath)
}

// Commit moves the staged file into place.
func (s *StagedDatabaseConfig) Commit() error {
	if s.done {
		return errors.New("staged database configuration already finalized")
	}
	if err := os.Rename(s.pendingPath, s.finalPath); err != nil {
		return fmt.Errorf("failed to commit database configuration: %w", err)
	}
	s.done = true
	logging.Log.Infof("Database configuration written to %s", s.finalPath)
	return nil
}

// Discard removes the staged file. It is a no-op after Commit or a previous Discard.
func (s *StagedDatabaseConfig) Discard() {
	if s.done {
		return
	}
	s.done = true
	if err := os.Remove(s.pendingPath); err != nil && !os.IsNotExist(err) {
		logging.Log.Errorf("Failed to remove staged database configuration %s: %v", s.pendingPath, err)
		return
	}
	logging.Log.Debugf("Discarded staged database configuration %s", s.pendingPath)
}
