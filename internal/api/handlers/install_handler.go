// filepath: internal/api/handlers/install_handler.go
package handlers

import (
	"errors"
	"net/http"

	"sonerezh/internal/logging"
	"sonerezh/internal/models"
	"sonerezh/internal/services"
	"sonerezh/internal/shared"
)

// ShowInstaller probes the requirements, regenerates the security keys and
// renders the installer form. Once installed it redirects to the landing page.
func (h *Handlers) ShowInstaller(w http.ResponseWriter, r *http.Request) {
	if h.Installer.IsInstalled() {
		http.Redirect(w, r, h.Installer.LandingURL(), http.StatusFound)
		return
	}

	page := h.Installer.PreparePage(r.Context())
	if wantsJSON(r) {
		respondWithJSON(w, http.StatusOK, page)
		return
	}
	h.renderPage(w, http.StatusOK, page)
}

// SubmitInstaller runs an installation. Success redirects to the landing page;
// any failure re-renders the form with the message and the field errors.
func (h *Handlers) SubmitInstaller(w http.ResponseWriter, r *http.Request) {
	if h.Installer.IsInstalled() {
		if wantsJSON(r) {
			respondWithJSON(w, http.StatusConflict, models.InstallResult{
				Message:  services.MsgAlreadyInstalled,
				Kind:     string(shared.ErrInvalidInput),
				Redirect: h.Installer.LandingURL(),
			})
			return
		}
		http.Redirect(w, r, h.Installer.LandingURL(), http.StatusFound)
		return
	}

	req, err := parseInstallRequest(w, r)
	if err != nil {
		logging.Log.Warnf("SubmitInstaller: %v", err)
		var fieldErr *formFieldError
		if wantsJSON(r) || !errors.As(err, &fieldErr) {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		result := models.InstallResult{Message: services.MsgSaveFailed, Kind: string(shared.ErrInvalidInput)}
		result.AddFieldError(fieldErr.Field, fieldErr.Message)
		h.renderPage(w, http.StatusBadRequest, models.InstallPage{
			Report:  h.Installer.Requirements(r.Context()),
			Result:  &result,
			Request: req.Redacted(),
		})
		return
	}

	result := h.Installer.Install(r.Context(), req)
	if result.Success {
		if wantsJSON(r) {
			respondWithJSON(w, http.StatusOK, result)
			return
		}
		http.Redirect(w, r, result.Redirect, http.StatusFound)
		return
	}

	code := statusForKind(result.Kind)
	if wantsJSON(r) {
		respondWithJSON(w, code, result)
		return
	}
	h.renderPage(w, code, models.InstallPage{
		Report:  h.Installer.Requirements(r.Context()),
		Result:  &result,
		Request: req.Redacted(),
	})
}

func (h *Handlers) renderPage(w http.ResponseWriter, code int, page models.InstallPage) {
	if err := h.Pages.Render(w, code, page); err != nil {
		logging.Log.Errorf("renderPage: failed to render installer page: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// statusForKind maps an installer error kind onto an HTTP status.
func statusForKind(kind string) int {
	switch shared.Error(kind) {
	case shared.ErrInvalidInput:
		return http.StatusUnprocessableEntity
	case shared.ErrResourceUnavailable:
		return http.StatusServiceUnavailable
	case shared.ErrConnectionFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
