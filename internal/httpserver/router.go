package httpserver

import (
	"net/http"

	"sonerezh/internal/api/handlers"
	"sonerezh/internal/web"

	"github.com/gorilla/mux"
)

// SetupRouter configures the main router.
// The installer answers GET and POST on a single path, nothing else.
func SetupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	// Public Endpoints
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/api/info", h.GetInfo).Methods("GET")

	addInstallerRoutes(r, h)

	// Installer assets
	web.AddRoutes(r)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}

// addInstallerRoutes configures the setup wizard. The root redirects to it.
func addInstallerRoutes(r *mux.Router, h *handlers.Handlers) {
	r.HandleFunc("/install", h.ShowInstaller).Methods("GET")
	r.HandleFunc("/install", h.SubmitInstaller).Methods("POST")
	r.Handle("/", http.RedirectHandler("/install", http.StatusFound)).Methods("GET")
}
