package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeHTTP         ErrorCode = "HTTP_ERROR"
	ErrCodeNetwork      ErrorCode = "NETWORK_ERROR"
	ErrCodeParse        ErrorCode = "PARSE_ERROR"
)

// Validation kinds. Every kind is reported under ErrCodeValidation.
type Kind string

const (
	KindInvalidNumber       Kind = "INVALID_NUMBER"
	KindLatitudeOutOfRange  Kind = "LATITUDE_OUT_OF_RANGE"
	KindLongitudeOutOfRange Kind = "LONGITUDE_OUT_OF_RANGE"
	KindEmptyField          Kind = "EMPTY_FIELD"
)

type AppError struct {
	Code       ErrorCode
	Kind       Kind
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches on code (and kind, when the target names one) so sentinels work with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	if t.Code != e.Code {
		return false
	}
	return t.Kind == "" || t.Kind == e.Kind
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Validation builds a client-side validation failure of the given kind.
func Validation(kind Kind, message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Kind:    kind,
		Message: message,
	}
}

// HTTP builds a failure for a non-2xx response. 401 is always reported as ErrCodeUnauthorized.
func HTTP(status int, message string) *AppError {
	code := ErrCodeHTTP
	if status == http.StatusUnauthorized {
		code = ErrCodeUnauthorized
	}
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: status,
	}
}

// Message returns the user-facing text of err, without the code prefix.
func Message(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

func IsValidation(err error) bool {
	return hasCode(err, ErrCodeValidation)
}

func IsUnauthorized(err error) bool {
	return hasCode(err, ErrCodeUnauthorized)
}

func IsHTTP(err error) bool {
	return hasCode(err, ErrCodeHTTP)
}

func IsNetwork(err error) bool {
	return hasCode(err, ErrCodeNetwork)
}

func IsParse(err error) bool {
	return hasCode(err, ErrCodeParse)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus
	}
	return 0
}

func hasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

var (
	ErrUnauthorized        = New(ErrCodeUnauthorized, "login required")
	ErrInvalidNumber       = Validation(KindInvalidNumber, "Please enter valid numbers for Latitude and Longitude.")
	ErrLatitudeOutOfRange  = Validation(KindLatitudeOutOfRange, "Latitude must be between -90 and 90.")
	ErrLongitudeOutOfRange = Validation(KindLongitudeOutOfRange, "Longitude must be between -180 and 180.")
)
