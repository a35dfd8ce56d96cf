// internal/web/web.go
// Package web renders the installer page and serves its embedded assets.
package web

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"sonerezh/internal/logging"
	"sonerezh/internal/models"

	"github.com/gorilla/mux"
)

//go:embed templates/*.html static/*
var content embed.FS

// Renderer executes the installer page template.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("install.html").Funcs(template.FuncMap{
		"fieldErrors": fieldErrors,
	}).ParseFS(content, "templates/install.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render writes the installer page. The page is rendered into a buffer first so
// a template error never produces half a page.
func (r *Renderer) Render(w http.ResponseWriter, code int, page models.InstallPage) error {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, page); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_, err := buf.WriteTo(w)
	return err
}

func fieldErrors(result *models.InstallResult, field string) []string {
	if result == nil {
		return nil
	}
	return result.FieldErrors[field]
}

// staticHandler serves files from the embedded static directory.
type staticHandler struct {
	contentFS fs.FS // The embedded filesystem (stripped of prefix)
}

// ServeHTTP handles serving a static asset.
func (h staticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Use 'path.Clean' for FS paths, not 'filepath.Clean'
	filePath := path.Clean(strings.TrimPrefix(mux.Vars(r)["file"], "/"))
	if filePath == "" || filePath == "." {
		http.NotFound(w, r)
		return
	}

	file, err := h.contentFS.Open(filePath)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer file.Close()

	// Get FileInfo for http.ServeContent
	fileInfo, err := file.Stat()
	if err != nil || fileInfo.IsDir() {
		http.NotFound(w, r)
		return
	}

	// Files from embed.FS implement io.ReadSeeker.
	seeker, ok := file.(io.ReadSeeker)
	if !ok {
		logging.Log.Errorf("staticHandler: %s does not implement io.ReadSeeker", filePath)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	http.ServeContent(w, r, filePath, time.Time{}, seeker)
}

// AddRoutes mounts the static asset handler under /static/.
func AddRoutes(router *mux.Router) {
	subFS, err := fs.Sub(content, "static")
	if err != nil {
		// The directory is embedded at build time.
		panic(err)
	}
	router.Handle("/static/{file:.+}", staticHandler{contentFS: subFS}).Methods("GET", "HEAD")
}
