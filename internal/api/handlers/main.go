// filepath: internal/api/handlers/main.go
package handlers

import (
	"net/http"

	"sonerezh/internal/models"
	"sonerezh/internal/services"
)

// PageRenderer renders the installer page.
type PageRenderer interface {
	Render(w http.ResponseWriter, code int, page models.InstallPage) error
}

// Handlers provides a struct to hold shared dependencies for HTTP handlers.
type Handlers struct {
	// --- Depend on interfaces, not concrete structs ---
	Info      services.InfoService
	Installer services.InstallerService
	Pages     PageRenderer
}

// NewHandlers creates a new instance of Handlers with its dependencies.
func NewHandlers(
	info services.InfoService,
	installer services.InstallerService,
	pages PageRenderer,
) *Handlers {
	return &Handlers{
		Info:      info,
		Installer: installer,
		Pages:     pages,
	}
}
