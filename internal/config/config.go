// filepath: internal/config/config.go
package config

import (
	"bytes"
	"fmt"
	"path/filepath"
	"time"

	"sonerezh/internal/fsutil"
	"sonerezh/internal/shared"

	"github.com/BurntSushi/toml"
)

const (
	DatabaseFileName = "database.toml"
	LockFileName     = "install.lock"
	pendingSuffix    = ".pending"
)

// Config holds the application's configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Logging   LoggingConfig   `toml:"logging"`
	Media     MediaConfig     `toml:"media"`
	Security  SecurityConfig  `toml:"security"`
	Installer InstallerConfig `toml:"installer"`

	Path           string        `toml:"-"` // File the config was loaded from
	ProbeTimeout   time.Duration `toml:"-"` // Runtime computed value
	ConnectTimeout time.Duration `toml:"-"` // Runtime computed value
	StaleAfter     time.Duration `toml:"-"` // Runtime computed value
}

// ServerConfig holds the server configuration.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LoggingConfig holds the logging configuration.
type LoggingConfig struct {
	Level string `toml:"level"`
	Audit bool   `toml:"audit"` // Emit AUDIT EVENT lines for installs and key rotations
}

// MediaConfig holds media processing settings.
type MediaConfig struct {
	FFmpegPath string `toml:"ffmpeg_path"`
}

// SecurityConfig holds the secrets used by the application for hashing and encryption.
type SecurityConfig struct {
	CipherSeed string `toml:"cipher_seed"`
	Salt       string `toml:"salt"`
	// RotateOnce limits key regeneration to an empty pair. The default (false)
	// regenerates on every installer page load.
	RotateOnce bool `toml:"rotate_once"`
}

// InstallerConfig holds settings of the setup wizard.
type InstallerConfig struct {
	ConfigDir      string `toml:"config_dir"`
	LandingURL     string `toml:"landing_url"`
	ProbeTimeout   string `toml:"probe_timeout"`   // e.g. "5s"
	ConnectTimeout string `toml:"connect_timeout"` // e.g. "10s"
	// StaleAfter is the age after which a leftover install.lock or staged
	// database configuration is removed by the housekeeping worker.
	StaleAfter string `toml:"stale_after"` // e.g. "1h"
}

// Default returns the configuration written when no config file exists yet.
// The security keys are left empty for the installer to fill in.
func Default() *Config {
	return &Config{
		Server:  ServerConfig{Host: "0.0.0.0", Port: 8080},
		Logging: LoggingConfig{Level: "info"},
		Installer: InstallerConfig{
			LandingURL:     "/songs/import",
			ProbeTimeout:   "5s",
			ConnectTimeout: "10s",
			StaleAfter:     "1h",
		},
	}
}

// LoadConfig loads the configuration from a TOML file.
func LoadConfig(path string) (*Config, error) {
	var config Config
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, err
	}
	config.Path = path
	return &config, nil
}

// SaveConfig writes the configuration back to a TOML file.
func SaveConfig(path string, cfg *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("trying to save the config: %w", shared.ErrorEncodeFile)
	}
	if err := fsutil.WriteFileAtomic(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("trying to save the config: %w: %v", shared.ErrorCreateFile, err)
	}
	return nil
}

// ParseAndValidate processes configuration strings into runtime values.
// It sets defaults if values are missing.
func (c *Config) ParseAndValidate() error {
	if c.Installer.ProbeTimeout == "" {
		c.Installer.ProbeTimeout = "5s"
	}
	if c.Installer.ConnectTimeout == "" {
		c.Installer.ConnectTimeout = "10s"
	}
	if c.Installer.StaleAfter == "" {
		c.Installer.StaleAfter = "1h"
	}
	if c.Installer.LandingURL == "" {
		c.Installer.LandingURL = "/songs/import"
	}
	if c.Installer.ConfigDir == "" {
		c.Installer.ConfigDir = filepath.Dir(c.Path)
	}

	var err error
	if c.ProbeTimeout, err = parseTimeout(c.Installer.ProbeTimeout); err != nil {
		return fmt.Errorf("invalid probe_timeout: %w", err)
	}
	if c.ConnectTimeout, err = parseTimeout(c.Installer.ConnectTimeout); err != nil {
		return fmt.Errorf("invalid connect_timeout: %w", err)
	}
	if c.StaleAfter, err = parseTimeout(c.Installer.StaleAfter); err != nil {
		return fmt.Errorf("invalid stale_after: %w", err)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	return nil
}

func parseTimeout(s string) (time.Duration, error) {
	d, err := shared.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("timeout must be positive: %s", s)
	}
	return d, nil
}

// DatabaseConfigPath is the committed database configuration file.
func (c *Config) DatabaseConfigPath() string {
	return filepath.Join(c.Installer.ConfigDir, DatabaseFileName)
}

// PendingDatabaseConfigPath is where credentials are staged during an install.
func (c *Config) PendingDatabaseConfigPath() string {
	return c.DatabaseConfigPath() + pendingSuffix
}

// LockPath is the file that serializes install submissions.
func (c *Config) LockPath() string {
	return filepath.Join(c.Installer.ConfigDir, LockFileName)
}

// IsInstalled reports whether a committed database configuration exists.
func (c *Config) IsInstalled() bool {
	return fsutil.FileExists(c.DatabaseConfigPath())
}
