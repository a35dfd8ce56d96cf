package shared

import "errors"

type Error string

// Implement the error interface
func (e Error) Error() string { return string(e) }

//------------
// Definitions
//------------

// cli errors
const (
	ErrorCreateFile = Error("could not create the file")
	ErrorEncodeFile = Error("could not encode to file")
)

// installer error kinds
const (
	ErrInvalidInput        = Error("invalid input")
	ErrResourceUnavailable = Error("resource unavailable")
	ErrConnectionFailure   = Error("connection failure")
	ErrSchemaFailure       = Error("schema failure")
	ErrPersistenceFailure  = Error("persistence failure")
)

// repository errors
const ErrUserNotFound = Error("user not found")

// other errors
const (
	ErrNotInstalled    = Error("application is not installed")
	ErrInvalidAlphabet = Error("alphabet must not be empty")
	ErrInstallLocked   = Error("installation already in progress")
)

var errorKinds = []Error{
	ErrInvalidInput,
	ErrResourceUnavailable,
	ErrConnectionFailure,
	ErrSchemaFailure,
	ErrPersistenceFailure,
}

// ErrorKind returns the installer error kind wrapped by err, or "" if none matches.
func ErrorKind(err error) string {
	for _, kind := range errorKinds {
		if errors.Is(err, kind) {
			return string(kind)
		}
	}
	return ""
}
