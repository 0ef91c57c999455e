// Package apperr defines the error taxonomy shared by the registry, grant
// graph, record store and audit ledger. Every failure is one of a small set
// of kinds so transports can map them without knowing the component.
package apperr

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Kind classifies an error for callers and transports.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthorization
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a classified, comparable error value. Sentinels below are
// compared by identity through errors.Is after wrapping with %w.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Sentinel errors.
var (
	ErrUnauthorized            = &Error{Kind: KindAuthorization, Code: "Unauthorized", Message: "caller is not authorized for this operation"}
	ErrAlreadyRegistered       = &Error{Kind: KindConflict, Code: "AlreadyRegistered", Message: "identity is already registered"}
	ErrNotRegistered           = &Error{Kind: KindNotFound, Code: "NotRegistered", Message: "identity is not registered"}
	ErrDoctorNotRegistered     = &Error{Kind: KindNotFound, Code: "DoctorNotRegistered", Message: "doctor is not registered"}
	ErrPatientNotRegistered    = &Error{Kind: KindNotFound, Code: "PatientNotRegistered", Message: "patient is not registered"}
	ErrAlreadyGranted          = &Error{Kind: KindConflict, Code: "AlreadyGranted", Message: "access is already granted"}
	ErrNotGranted              = &Error{Kind: KindConflict, Code: "NotGranted", Message: "access is not granted"}
	ErrPreviousVersionNotFound = &Error{Kind: KindNotFound, Code: "PreviousVersionNotFound", Message: "previous version not found for patient"}
	ErrPreviousVersionInactive = &Error{Kind: KindConflict, Code: "PreviousVersionInactive", Message: "previous version has already been superseded"}
	ErrNotFound                = &Error{Kind: KindNotFound, Code: "NotFound", Message: "not found"}
	ErrInvalidInput            = &Error{Kind: KindValidation, Code: "InvalidInput", Message: "invalid input"}
)

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf returns the code of the first *Error in err's chain.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// HTTPStatus maps err to the response status a handler should use.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Body is the JSON error payload returned to HTTP clients.
type Body struct {
	Code    string `json:"code"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// HTTP converts err into an echo error carrying the mapped status and a Body
// with the taxonomy code. Internal failures are not echoed back to clients.
func HTTP(err error) *echo.HTTPError {
	status := HTTPStatus(err)
	body := Body{Code: CodeOf(err), Kind: KindOf(err).String(), Message: err.Error()}
	if status == http.StatusInternalServerError {
		body = Body{Code: "Internal", Kind: KindInternal.String(), Message: "internal error"}
	}
	he := echo.NewHTTPError(status, body)
	he.Internal = err
	return he
}
