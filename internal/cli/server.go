// filepath: internal/cli/server.go
package cli

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"sonerezh/internal/api/handlers"
	"sonerezh/internal/audit"
	"sonerezh/internal/config"
	"sonerezh/internal/fsutil"
	"sonerezh/internal/housekeeping"
	"sonerezh/internal/httpserver"
	"sonerezh/internal/logging"
	"sonerezh/internal/media"
	"sonerezh/internal/security"
	"sonerezh/internal/services"
	"sonerezh/internal/web"
)

// newInstallerService wires the installer the same way for the server and the CLI.
func newInstallerService(c *config.Config) services.InstallerService {
	converter := media.NewConverter(media.ShellLocator{}, c.Media.FFmpegPath, c.ProbeTimeout)
	prober := services.NewProber(converter, c.Installer.ConfigDir, c.Path)
	auditor := audit.NewLoggerAuditor(c.Logging.Audit)
	return services.NewInstallerService(c, prober, security.NewKeyRewriter(c.Path), auditor)
}

// ensureConfigFile writes a default configuration so the installer has a file
// to store the security keys in.
func ensureConfigFile(c *config.Config) {
	if fsutil.FileExists(c.Path) {
		return
	}
	if err := config.SaveConfig(c.Path, config.Default()); err != nil {
		logging.Log.Warnf("Failed to create default configuration %s: %v", c.Path, err)
		return
	}
	logging.Log.Infof("Default configuration written to %s.", c.Path)
}

// newRouter builds the HTTP handler of the installer.
func newRouter(c *config.Config) (http.Handler, error) {
	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to load installer templates: %w", err)
	}
	installer := newInstallerService(c)
	info := services.NewInfoService(Version, StartTime, installer.IsInstalled)

	h := handlers.NewHandlers(info, installer, renderer)
	return httpserver.SetupRouter(h), nil
}

// runServer contains the logic to start the HTTP server with graceful shutdown.
func runServer() error {
	ensureConfigFile(cfg)

	if cfg.IsInstalled() {
		logging.Log.Infof("Sonerezh is already installed (%s), /install redirects to %s.", cfg.DatabaseConfigPath(), cfg.Installer.LandingURL)
	}

	r, err := newRouter(cfg)
	if err != nil {
		return err
	}

	janitor := housekeeping.NewService(housekeeping.Dependencies{
		Auditor:    audit.NewLoggerAuditor(cfg.Logging.Audit),
		Paths:      []string{cfg.LockPath(), cfg.PendingDatabaseConfigPath()},
		StaleAfter: cfg.StaleAfter,
	})
	janitor.Start()
	defer janitor.Stop()

	serverAddr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	srv := &http.Server{
		Addr:              serverAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// --- Graceful Shutdown Setup ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logging.Log.Infof("Installer starting on %s (config: %s)", serverAddr, cfg.Path)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed to start: %w", err)
	case <-stop:
	}
	logging.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Log.Errorf("Server forced to shutdown: %v", err)
		return err
	}

	logging.Log.Info("Server exiting")
	return nil
}
