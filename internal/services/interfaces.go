// filepath: internal/services/interfaces.go
package services

import (
	"context"

	"sonerezh/internal/models"
)

// Auditor defines the interface for recording security-relevant events.
type Auditor interface {
	// Log records an event.
	// ctx: context to trace request IDs (if available)
	// action: what happened (e.g., "install.complete", "security.keys.rotate")
	// actor: who did it (the admin username, or "installer")
	// resource: what was affected (e.g., a config file path)
	// details: structured metadata about the event
	Log(ctx context.Context, action string, actor string, resource string, details map[string]interface{})
}

// InfoService defines the interface for the info service.
type InfoService interface {
	GetInfo() models.Info
}

// RequirementProber checks the server prerequisites of an installation.
type RequirementProber interface {
	Probe(ctx context.Context) models.RequirementReport
}

// InstallerService defines the interface for the setup wizard.
type InstallerService interface {
	// IsInstalled reports whether a database configuration has been committed.
	IsInstalled() bool
	// LandingURL is where the browser goes once the application is installed.
	LandingURL() string
	// PreparePage probes the requirements and regenerates the security keys.
	PreparePage(ctx context.Context) models.InstallPage
	// Requirements probes the requirements without touching any file.
	Requirements(ctx context.Context) models.RequirementReport
	// Install runs a submission to completion or rolls it back.
	Install(ctx context.Context, req models.InstallRequest) models.InstallResult
}
