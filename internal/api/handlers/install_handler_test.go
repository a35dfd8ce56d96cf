// filepath: internal/api/handlers/install_handler_test.go
package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"sonerezh/internal/models"
	"sonerezh/internal/services"
	"sonerezh/internal/services/mocks"
	"sonerezh/internal/shared"
	"sonerezh/internal/web"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// capturingRenderer records the last rendered page.
type capturingRenderer struct {
	code  int
	page  models.InstallPage
	calls int
}

func (c *capturingRenderer) Render(w http.ResponseWriter, code int, page models.InstallPage) error {
	c.calls++
	c.code = code
	c.page = page
	w.WriteHeader(code)
	return nil
}

func installerForm() url.Values {
	return url.Values{
		"DB[datasource]":         {"sqlite"},
		"DB[host]":               {""},
		"DB[login]":              {""},
		"DB[password]":           {"dbpass"},
		"DB[database]":           {"/var/lib/sonerezh/sonerezh.db"},
		"User[username]":         {"admin"},
		"User[email]":            {"admin@example.org"},
		"User[password]":         {"secret"},
		"User[confirm_password]": {"secret"},
		"Setting[convert_to]":    {"ogg"},
		"Setting[quality]":       {"192"},
	}
}

func expectedFormRequest() models.InstallRequest {
	return models.InstallRequest{
		DB: models.InstallDatabase{
			Datasource: models.DatasourceSQLite,
			Password:   "dbpass",
			Database:   "/var/lib/sonerezh/sonerezh.db",
		},
		User: models.InstallUser{
			Username:        "admin",
			Email:           "admin@example.org",
			Password:        "secret",
			ConfirmPassword: "secret",
		},
		Setting: models.InstallSetting{ConvertTo: "ogg", Quality: 192},
	}
}

func postForm(form url.Values) *http.Request {
	req := httptest.NewRequest("POST", "/install", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestShowInstaller(t *testing.T) {
	installer := new(mocks.MockInstallerService)
	renderer := &capturingRenderer{}
	h := NewHandlers(nil, installer, renderer)

	page := models.InstallPage{KeysReset: true}
	page.Report.Add("image", models.StatusSuccess, "ok")
	installer.On("IsInstalled").Return(false)
	installer.On("PreparePage", mock.Anything).Return(page)

	rr := httptest.NewRecorder()
	h.ShowInstaller(rr, httptest.NewRequest("GET", "/install", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, renderer.calls)
	assert.True(t, renderer.page.KeysReset)
	installer.AssertExpectations(t)
}

func TestShowInstaller_JSON(t *testing.T) {
	installer := new(mocks.MockInstallerService)
	h := NewHandlers(nil, installer, &capturingRenderer{})

	page := models.InstallPage{}
	page.Report.Add("conf", models.StatusDanger, "/etc is not writable")
	installer.On("IsInstalled").Return(false)
	installer.On("PreparePage", mock.Anything).Return(page)

	req := httptest.NewRequest("GET", "/install", nil)
	req.Header.Set("Accept", "application/json")
	rr := httptest.NewRecorder()
	h.ShowInstaller(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	requirements := body["requirements"].(map[string]interface{})
	assert.Equal(t, true, requirements["missing_requirements"])
}

func TestShowInstaller_AlreadyInstalled(t *testing.T) {
	installer := new(mocks.MockInstallerService)
	renderer := &capturingRenderer{}
	h := NewHandlers(nil, installer, renderer)

	installer.On("IsInstalled").Return(true)
	installer.On("LandingURL").Return("/songs/import")

	rr := httptest.NewRecorder()
	h.ShowInstaller(rr, httptest.NewRequest("GET", "/install", nil))

	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/songs/import", rr.Header().Get("Location"))
	assert.Zero(t, renderer.calls)
	installer.AssertNotCalled(t, "PreparePage", mock.Anything)
}

func TestSubmitInstaller_Success(t *testing.T) {
	installer := new(mocks.MockInstallerService)
	h := NewHandlers(nil, installer, &capturingRenderer{})

	installer.On("IsInstalled").Return(false)
	installer.On("Install", mock.Anything, expectedFormRequest()).Return(models.InstallResult{
		Success:  true,
		Message:  services.MsgInstallSuccessful,
		Redirect: "/songs/import",
	})

	rr := httptest.NewRecorder()
	h.SubmitInstaller(rr, postForm(installerForm()))

	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/songs/import", rr.Header().Get("Location"))
	installer.AssertExpectations(t)
}

func TestSubmitInstaller_FailureRerendersForm(t *testing.T) {
	installer := new(mocks.MockInstallerService)
	renderer := &capturingRenderer{}
	h := NewHandlers(nil, installer, renderer)

	result := models.InstallResult{Message: services.MsgSaveFailed, Kind: string(shared.ErrInvalidInput)}
	result.AddFieldError("password", services.MsgPasswordMismatch)

	report := models.RequirementReport{AvailableDatasources: models.Datasources}
	installer.On("IsInstalled").Return(false)
	installer.On("Install", mock.Anything, mock.AnythingOfType("models.InstallRequest")).Return(result)
	installer.On("Requirements", mock.Anything).Return(report)

	rr := httptest.NewRecorder()
	h.SubmitInstaller(rr, postForm(installerForm()))

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Equal(t, 1, renderer.calls)
	require.NotNil(t, renderer.page.Result)
	assert.Equal(t, services.MsgSaveFailed, renderer.page.Result.Message)
	assert.Equal(t, []string{services.MsgPasswordMismatch}, renderer.page.Result.FieldErrors["password"])
	assert.Equal(t, "admin", renderer.page.Request.User.Username, "form values are kept")
	assert.Empty(t, renderer.page.Request.User.Password, "passwords are not echoed back")
	assert.Empty(t, renderer.page.Request.DB.Password)
	installer.AssertNotCalled(t, "PreparePage", mock.Anything)
}

func TestSubmitInstaller_JSON(t *testing.T) {
	installer := new(mocks.MockInstallerService)
	h := NewHandlers(nil, installer, &capturingRenderer{})

	installer.On("IsInstalled").Return(false)
	installer.On("Install", mock.Anything, mock.MatchedBy(func(req models.InstallRequest) bool {
		return req.DB.Datasource == models.DatasourceMySQL && req.DB.Host == "db" && req.User.ConfirmPassword == "pw"
	})).Return(models.InstallResult{Message: services.MsgConnectionFailed, Kind: string(shared.ErrConnectionFailure)})

	body := `{"DB":{"datasource":"mysql","host":"db","login":"root","password":"x","database":"sonerezh"},
		"User":{"username":"admin","password":"pw","confirm_password":"pw"}}`
	req := httptest.NewRequest("POST", "/install", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rr := httptest.NewRecorder()
	h.SubmitInstaller(rr, req)

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	var result models.InstallResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.False(t, result.Success)
	assert.Equal(t, services.MsgConnectionFailed, result.Message)
	assert.Equal(t, "connection failure", result.Kind)
	installer.AssertExpectations(t)
}

func TestSubmitInstaller_BadRequests(t *testing.T) {
	installer := new(mocks.MockInstallerService)
	h := NewHandlers(nil, installer, &capturingRenderer{})
	installer.On("IsInstalled").Return(false)

	req := httptest.NewRequest("POST", "/install", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.SubmitInstaller(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Invalid request body")

	form := installerForm()
	form.Set("Setting[quality]", "loud")
	req = postForm(form)
	req.Header.Set("Accept", "application/json")
	rr = httptest.NewRecorder()
	h.SubmitInstaller(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	installer.AssertNotCalled(t, "Install", mock.Anything, mock.Anything)
}

func TestSubmitInstaller_InvalidFieldRerendersForm(t *testing.T) {
	installer := new(mocks.MockInstallerService)
	renderer, err := web.NewRenderer()
	require.NoError(t, err)
	h := NewHandlers(nil, installer, renderer)

	installer.On("IsInstalled").Return(false)
	installer.On("Requirements", mock.Anything).Return(models.RequirementReport{AvailableDatasources: models.Datasources})

	form := installerForm()
	form.Set("Setting[quality]", "loud")
	rr := httptest.NewRecorder()
	h.SubmitInstaller(rr, postForm(form))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	body := rr.Body.String()
	assert.Contains(t, body, `<p class="field-error">Quality must be a number.</p>`)
	assert.Contains(t, body, `value="admin"`, "other fields are kept")
	assert.NotContains(t, body, "secret")
	installer.AssertNotCalled(t, "Install", mock.Anything, mock.Anything)
}

func TestSubmitInstaller_AlreadyInstalled(t *testing.T) {
	installer := new(mocks.MockInstallerService)
	h := NewHandlers(nil, installer, &capturingRenderer{})
	installer.On("IsInstalled").Return(true)
	installer.On("LandingURL").Return("/songs/import")

	rr := httptest.NewRecorder()
	h.SubmitInstaller(rr, postForm(installerForm()))
	assert.Equal(t, http.StatusFound, rr.Code)

	req := postForm(installerForm())
	req.Header.Set("Accept", "application/json")
	rr = httptest.NewRecorder()
	h.SubmitInstaller(rr, req)
	assert.Equal(t, http.StatusConflict, rr.Code)

	installer.AssertNotCalled(t, "Install", mock.Anything, mock.Anything)
}

func TestSubmitInstaller_RendersRealPage(t *testing.T) {
	installer := new(mocks.MockInstallerService)
	renderer, err := web.NewRenderer()
	require.NoError(t, err)
	h := NewHandlers(nil, installer, renderer)

	installer.On("IsInstalled").Return(false)
	installer.On("Install", mock.Anything, mock.Anything).Return(models.InstallResult{
		Message: services.MsgWrongDatasource,
		Kind:    string(shared.ErrInvalidInput),
	})
	installer.On("Requirements", mock.Anything).Return(models.RequirementReport{AvailableDatasources: models.Datasources})

	form := installerForm()
	form.Set("DB[datasource]", "oracle")
	rr := httptest.NewRecorder()
	h.SubmitInstaller(rr, postForm(form))

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), services.MsgWrongDatasource)
	assert.NotContains(t, rr.Body.String(), "secret")
}

func TestStatusForKind(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, statusForKind(string(shared.ErrInvalidInput)))
	assert.Equal(t, http.StatusServiceUnavailable, statusForKind(string(shared.ErrResourceUnavailable)))
	assert.Equal(t, http.StatusBadGateway, statusForKind(string(shared.ErrConnectionFailure)))
	assert.Equal(t, http.StatusInternalServerError, statusForKind(string(shared.ErrSchemaFailure)))
	assert.Equal(t, http.StatusInternalServerError, statusForKind(string(shared.ErrPersistenceFailure)))
}
