// filepath: internal/api/handlers/utils.go
package handlers

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"sonerezh/internal/models"
)

// maxFormSize bounds the body of an installer submission.
const maxFormSize = 1 << 20

// isJSONRequest reports whether the body is JSON.
func isJSONRequest(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

// wantsJSON reports whether the client expects a JSON answer instead of the page.
func wantsJSON(r *http.Request) bool {
	if isJSONRequest(r) {
		return true
	}
	for _, accept := range strings.Split(r.Header.Get("Accept"), ",") {
		if mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(accept)); err == nil && mediaType == "application/json" {
			return true
		}
	}
	return false
}

// formFieldError reports a form value that could not be decoded.
type formFieldError struct {
	Field   string
	Message string
}

func (e *formFieldError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// parseInstallRequest reads a submission either as JSON or as the installer form,
// whose fields are named after the request struct (DB[datasource], User[password], ...).
func parseInstallRequest(w http.ResponseWriter, r *http.Request) (models.InstallRequest, error) {
	var req models.InstallRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)

	if isJSONRequest(r) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, fmt.Errorf("invalid JSON body: %w", err)
		}
		return req, nil
	}

	if err := r.ParseForm(); err != nil {
		return req, fmt.Errorf("invalid form: %w", err)
	}
	f := r.PostForm
	req.DB = models.InstallDatabase{
		Datasource: models.Datasource(f.Get("DB[datasource]")),
		Host:       f.Get("DB[host]"),
		Login:      f.Get("DB[login]"),
		Password:   f.Get("DB[password]"),
		Database:   f.Get("DB[database]"),
	}
	req.User = models.InstallUser{
		Username:        f.Get("User[username]"),
		Email:           f.Get("User[email]"),
		Password:        f.Get("User[password]"),
		ConfirmPassword: f.Get("User[confirm_password]"),
	}
	req.Setting = models.InstallSetting{
		ConvertFrom: f.Get("Setting[convert_from]"),
		ConvertTo:   f.Get("Setting[convert_to]"),
	}
	if q := strings.TrimSpace(f.Get("Setting[quality]")); q != "" {
		quality, err := strconv.Atoi(q)
		if err != nil {
			return req, &formFieldError{Field: "quality", Message: "Quality must be a number."}
		}
		req.Setting.Quality = quality
	}
	return req, nil
}
