package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"sonerezh/internal/models"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_Form(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	var report models.RequirementReport
	report.Add("image", models.StatusSuccess, "Image processing is available.")
	report.Add("converter", models.StatusWarning, "Audio converter is missing.")
	report.AvailableDatasources = []models.Datasource{models.DatasourceMySQL, models.DatasourceSQLite}

	result := &models.InstallResult{Message: "Unable to save your data."}
	result.AddFieldError("password", "Passwords do not match.")

	rr := httptest.NewRecorder()
	err = r.Render(rr, http.StatusUnprocessableEntity, models.InstallPage{
		Report: report,
		Result: result,
		Request: models.InstallRequest{
			DB:   models.InstallDatabase{Datasource: models.DatasourceSQLite, Database: "/var/lib/sonerezh.db"},
			User: models.InstallUser{Username: "<admin>"},
		},
	})
	require.NoError(t, err)

	body := rr.Body.String()
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, body, `class="badge badge-warning" data-key="converter"`)
	assert.Contains(t, body, "Unable to save your data.")
	assert.Contains(t, body, `<p class="field-error">Passwords do not match.</p>`)
	assert.Contains(t, body, `<option value="sqlite" selected>SQLite</option>`)
	assert.Contains(t, body, `<option value="mysql">MySQL</option>`)
	assert.NotContains(t, body, "PostgreSQL")
	assert.Contains(t, body, "&lt;admin&gt;", "values are escaped")
	assert.Contains(t, body, `name="User[confirm_password]"`)
}

func TestRender_MissingRequirementsHidesForm(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	var report models.RequirementReport
	report.Add("conf", models.StatusDanger, "/etc/sonerezh is not writable")

	rr := httptest.NewRecorder()
	require.NoError(t, r.Render(rr, http.StatusOK, models.InstallPage{Report: report, KeysReset: true}))

	body := rr.Body.String()
	assert.NotContains(t, body, "<form")
	assert.Contains(t, body, "/etc/sonerezh is not writable")
	assert.Contains(t, body, "New security keys have been generated.")
}

func TestStaticRoutes(t *testing.T) {
	router := mux.NewRouter()
	AddRoutes(router)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/static/installer.css", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), ".badge-danger")

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/static/missing.js", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
