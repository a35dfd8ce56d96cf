// filepath: internal/cli/config_loader.go
package cli

import (
	"fmt"
	"os"

	"sonerezh/internal/config"
	"sonerezh/internal/logging"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const defaultConfigPath = "config.toml"

// Global config object populated by flags/env/file
var cfg *config.Config

// override binds a config key to its command line flag and environment variable.
type override struct {
	key  string
	flag string
	env  string
}

var overrides = []override{
	{"server.host", "host", "SONEREZH_HOST"},
	{"server.port", "port", "SONEREZH_PORT"},
	{"logging.level", "log-level", "SONEREZH_LOG_LEVEL"},
	{"logging.audit", "audit-enabled", "SONEREZH_AUDIT_ENABLED"},
	{"media.ffmpeg_path", "ffmpeg-path", "SONEREZH_FFMPEG_PATH"},
	{"security.rotate_once", "rotate-once", "SONEREZH_ROTATE_ONCE"},
	{"installer.config_dir", "config-dir", "SONEREZH_CONFIG_DIR"},
	{"installer.landing_url", "landing-url", "SONEREZH_LANDING_URL"},
	{"installer.probe_timeout", "probe-timeout", "SONEREZH_PROBE_TIMEOUT"},
	{"installer.connect_timeout", "connect-timeout", "SONEREZH_CONNECT_TIMEOUT"},
	{"installer.stale_after", "stale-after", "SONEREZH_STALE_AFTER"},
}

func registerFlags(cmd *cobra.Command) {
	// flags that can be used for each command
	pf := cmd.PersistentFlags()
	pf.String("config_path", defaultConfigPath, "Path to the base configuration file. (Env: SONEREZH_CONFIG_PATH)")
	pf.String("log-level", "", "Logging level (debug, info, warn, error). (Env: SONEREZH_LOG_LEVEL)")
	pf.String("config-dir", "", "Directory receiving database.toml. Defaults to the directory of the config file. (Env: SONEREZH_CONFIG_DIR)")
	pf.Bool("audit-enabled", false, "Enable audit logging of installs and key rotations. (Env: SONEREZH_AUDIT_ENABLED=true)")
	pf.String("connect-timeout", "", "Timeout of the database connection check, e.g. '10s'. (Env: SONEREZH_CONNECT_TIMEOUT)")

	// Server-specific flags
	f := cmd.Flags()
	f.String("host", "", "Interface for the HTTP server. (Env: SONEREZH_HOST)")
	f.Int("port", 0, "Port for the HTTP server. (Env: SONEREZH_PORT)")
	f.String("ffmpeg-path", "", "Path to the ffmpeg or avconv executable. (Env: SONEREZH_FFMPEG_PATH)")
	f.String("landing-url", "", "Where to redirect once installed. (Env: SONEREZH_LANDING_URL)")
	f.String("probe-timeout", "", "Timeout of each converter lookup, e.g. '5s'. (Env: SONEREZH_PROBE_TIMEOUT)")
	f.String("stale-after", "", "Age after which a leftover install lock is removed, e.g. '1h'. (Env: SONEREZH_STALE_AFTER)")
	f.Bool("rotate-once", false, "Only generate security keys when none are set. (Env: SONEREZH_ROTATE_ONCE=true)")
}

// newViper binds the flags of cmd and the environment to config keys.
// Flags win over the environment; neither is set unless given explicitly.
func newViper(flags *pflag.FlagSet) *viper.Viper {
	v := viper.New()
	v.SetDefault("config_path", defaultConfigPath)
	_ = v.BindEnv("config_path", "SONEREZH_CONFIG_PATH")
	if f := flags.Lookup("config_path"); f != nil {
		_ = v.BindPFlag("config_path", f)
	}

	for _, o := range overrides {
		_ = v.BindEnv(o.key, o.env)
		if f := flags.Lookup(o.flag); f != nil {
			_ = v.BindPFlag(o.key, f)
		}
	}
	return v
}

// initializeConfig loads and overrides configuration values.
func initializeConfig(cmd *cobra.Command) error {
	v := newViper(cmd.Flags())
	path := v.GetString("config_path")

	var err error
	cfg, err = config.LoadConfig(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Start from defaults, the server writes the file on startup.
			cfg = config.Default()
			cfg.Path = path
		} else {
			return fmt.Errorf("failed to load configuration from %s: %w", path, err)
		}
	}

	// Apply Overrides (Env Vars and CLI Flags)
	applyOverrides(cfg, v)

	// Validate
	if err := cfg.ParseAndValidate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Initialize Logging
	logging.Init(cfg.Logging.Level)
	goose.SetLogger(logging.Log)

	return nil
}

func applyOverrides(c *config.Config, v *viper.Viper) {
	// --- Environment Variables and CLI Flags ---
	if v.IsSet("server.host") {
		c.Server.Host = v.GetString("server.host")
	}
	if v.IsSet("server.port") {
		c.Server.Port = v.GetInt("server.port")
	}
	if v.IsSet("logging.level") {
		c.Logging.Level = v.GetString("logging.level")
	}
	if v.IsSet("logging.audit") {
		c.Logging.Audit = v.GetBool("logging.audit")
	}
	if v.IsSet("media.ffmpeg_path") {
		c.Media.FFmpegPath = v.GetString("media.ffmpeg_path")
	}
	if v.IsSet("security.rotate_once") {
		c.Security.RotateOnce = v.GetBool("security.rotate_once")
	}
	if v.IsSet("installer.config_dir") {
		c.Installer.ConfigDir = v.GetString("installer.config_dir")
	}
	if v.IsSet("installer.landing_url") {
		c.Installer.LandingURL = v.GetString("installer.landing_url")
	}
	if v.IsSet("installer.probe_timeout") {
		c.Installer.ProbeTimeout = v.GetString("installer.probe_timeout")
	}
	if v.IsSet("installer.connect_timeout") {
		c.Installer.ConnectTimeout = v.GetString("installer.connect_timeout")
	}
	if v.IsSet("installer.stale_after") {
		c.Installer.StaleAfter = v.GetString("installer.stale_after")
	}

	// --- Defaults ---
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}
