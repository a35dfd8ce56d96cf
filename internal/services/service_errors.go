// filepath: internal/services/service_errors.go
package services

import "errors"

// Standard errors returned by the service layer.
var (
	ErrAlreadyInstalled    = errors.New("application is already installed")
	ErrDriverUnavailable   = errors.New("database driver not registered")
	ErrMissingRequirements = errors.New("missing requirements")
	ErrPasswordMismatch    = errors.New("passwords do not match")
)

// User-facing messages of the installer. They replace the flash messages of the page.
const (
	MsgWrongDatasource     = "Wrong datasource."
	MsgAlreadyInstalled    = "Sonerezh is already installed."
	MsgInstallInProgress   = "An installation is already in progress, please try again later."
	MsgMissingRequirements = "Some requirements are missing, please fix them before installing."
	MsgDriverUnavailable   = "The selected database driver is not available."
	MsgWriteConfigFailed   = "Unable to write configuration file."
	MsgConnectionFailed    = "Could not connect to database"
	MsgSchemaFailed        = "Could not create the database schema"
	MsgSaveFailed          = "Unable to save your data."
	MsgPasswordMismatch    = "Passwords do not match."
	MsgUsernameRequired    = "A username is required."
	MsgPasswordRequired    = "A password is required."
	MsgInstallSuccessful   = "Installation successful!"
)
