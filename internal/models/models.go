// filepath: internal/models/models.go
package models

import "time"

// Info holds general information about the running installer.
type Info struct {
	Version     string    `json:"version"`
	UptimeSince time.Time `json:"uptime_since"`
	Installed   bool      `json:"installed"`
}

// --- Datasources ---

// Datasource identifies the database backend chosen in the installer form.
type Datasource string

const (
	DatasourceMySQL    Datasource = "mysql"
	DatasourcePostgres Datasource = "pgsql"
	DatasourceSQLite   Datasource = "sqlite"
)

// Datasources lists the supported datasources in display order.
var Datasources = []Datasource{DatasourceMySQL, DatasourcePostgres, DatasourceSQLite}

// Valid reports whether d is one of the supported datasources.
func (d Datasource) Valid() bool {
	for _, ds := range Datasources {
		if d == ds {
			return true
		}
	}
	return false
}

// Driver returns the database/sql driver name registered for the datasource.
func (d Datasource) Driver() string {
	switch d {
	case DatasourceMySQL:
		return "mysql"
	case DatasourcePostgres:
		return "postgres"
	case DatasourceSQLite:
		return "sqlite"
	}
	return ""
}

// Label is the human readable name shown in the installer form.
func (d Datasource) Label() string {
	switch d {
	case DatasourceMySQL:
		return "MySQL"
	case DatasourcePostgres:
		return "PostgreSQL"
	case DatasourceSQLite:
		return "SQLite"
	}
	return string(d)
}

// --- Requirements ---

// RequirementStatus is the badge level of a single requirement check.
type RequirementStatus string

const (
	StatusSuccess RequirementStatus = "success"
	StatusWarning RequirementStatus = "warning"
	StatusDanger  RequirementStatus = "danger"
)

// RequirementCheck is the outcome of one probe. It is never persisted.
type RequirementCheck struct {
	Key     string            `json:"key"`
	Status  RequirementStatus `json:"status"`
	Message string            `json:"message"`
}

// RequirementReport aggregates every check of a probe run.
type RequirementReport struct {
	Checks               []RequirementCheck `json:"checks"`
	MissingRequirements  bool               `json:"missing_requirements"`
	AvailableDatasources []Datasource       `json:"available_datasources"`
	AutoConversion       bool               `json:"auto_conversion"`
	ConverterPath        string             `json:"converter_path,omitempty"`
}

// Add appends a check and raises MissingRequirements on danger.
func (r *RequirementReport) Add(key string, status RequirementStatus, message string) {
	r.Checks = append(r.Checks, RequirementCheck{Key: key, Status: status, Message: message})
	if status == StatusDanger {
		r.MissingRequirements = true
	}
}

// Check returns the check with the given key.
func (r RequirementReport) Check(key string) (RequirementCheck, bool) {
	for _, c := range r.Checks {
		if c.Key == key {
			return c, true
		}
	}
	return RequirementCheck{}, false
}

// --- Install request / result ---

// InstallDatabase holds the database part of the installer form.
type InstallDatabase struct {
	Datasource Datasource `json:"datasource"`
	Host       string     `json:"host"`
	Login      string     `json:"login"`
	Password   string     `json:"password"`
	Database   string     `json:"database"`
}

// InstallUser holds the first administrator's credentials.
type InstallUser struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// InstallSetting holds the user-editable initial settings.
type InstallSetting struct {
	ConvertFrom string `json:"convert_from"`
	ConvertTo   string `json:"convert_to"`
	Quality     int    `json:"quality"`
}

// InstallRequest is the typed installer submission.
type InstallRequest struct {
	DB      InstallDatabase `json:"DB"`
	User    InstallUser     `json:"User"`
	Setting InstallSetting  `json:"Setting"`
}

// Redacted returns a copy without the passwords, for re-rendering the form.
func (r InstallRequest) Redacted() InstallRequest {
	r.DB.Password = ""
	r.User.Password = ""
	r.User.ConfirmPassword = ""
	return r
}

// InstallResult replaces the session flash message of a submission.
type InstallResult struct {
	Success     bool                `json:"success"`
	Message     string              `json:"message"`
	Kind        string              `json:"kind,omitempty"`
	FieldErrors map[string][]string `json:"field_errors,omitempty"`
	Redirect    string              `json:"redirect,omitempty"`
}

// AddFieldError records a validation message for a form field.
func (r *InstallResult) AddFieldError(field, message string) {
	if r.FieldErrors == nil {
		r.FieldErrors = make(map[string][]string)
	}
	r.FieldErrors[field] = append(r.FieldErrors[field], message)
}

// InstallPage is everything the installer page needs to render.
type InstallPage struct {
	Report    RequirementReport `json:"requirements"`
	Result    *InstallResult    `json:"result,omitempty"`
	Request   InstallRequest    `json:"-"`
	KeysReset bool              `json:"keys_reset"`
}

// --- Persisted rows ---

const RoleAdmin = "admin"

// User is a row of the users table.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash,omitempty"`
	Role         string `json:"role"`
}

// Setting is the single row of the settings table.
type Setting struct {
	ID                     int64  `json:"id"`
	EnableAutoConv         bool   `json:"enable_auto_conv"`
	ConvertFrom            string `json:"convert_from"`
	ConvertTo              string `json:"convert_to"`
	Quality                int    `json:"quality"`
	EnableMailNotification bool   `json:"enable_mail_notification"`
	SyncToken              int64  `json:"sync_token"`
}

// Default conversion settings of a fresh installation.
const (
	DefaultConvertFrom = "aac,flac,alac,wma"
	DefaultConvertTo   = "mp3"
	DefaultQuality     = 256
)
