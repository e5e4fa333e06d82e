package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel kinds. Handlers and tests match on these with errors.Is; the
// client only ever sees Error.Message.
var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrAccountRestricted    = errors.New("account restricted")
	ErrOtpInvalid           = errors.New("invalid otp")
	ErrOtpExpired           = errors.New("otp expired")
	ErrRequestLimitExceeded = errors.New("request limit exceeded")
	ErrTokenExpired         = errors.New("token expired")
	ErrTokenInvalid         = errors.New("invalid token")
	ErrNotAuthorized        = errors.New("not authorized")
	ErrNotFound             = errors.New("resource not found")
	ErrDuplicateEntry       = errors.New("duplicate entry")
	ErrBadRequest           = errors.New("bad request")
	ErrInternal             = errors.New("internal server error")
)

// Error is an application error carrying the HTTP status and the message
// that is safe to show the client. Business logic raises these and never
// recovers from them locally; the response layer formats them.
type Error struct {
	Status  int
	Message string
	kind    error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.kind }

func New(status int, kind error, message string) *Error {
	return &Error{Status: status, Message: message, kind: kind}
}

// InvalidCredentials covers bad passwords, deleted accounts and unknown
// accounts alike so the caller cannot distinguish them.
func InvalidCredentials() *Error {
	return New(http.StatusUnauthorized, ErrInvalidCredentials, "Please try again with correct credentials.")
}

func AccountRestricted(remainingMinutes int) *Error {
	return New(http.StatusTooManyRequests, ErrAccountRestricted,
		fmt.Sprintf("Account temporarily locked. Try again in %d minutes", remainingMinutes))
}

func OtpInvalid() *Error {
	return New(http.StatusBadRequest, ErrOtpInvalid, "Invalid OTP, please try again.")
}

func OtpExpired() *Error {
	return New(http.StatusBadRequest, ErrOtpExpired, "OTP has expired, please try again.")
}

func RequestLimitExceeded() *Error {
	return New(http.StatusBadRequest, ErrRequestLimitExceeded,
		"You have exceeded the maximum number of requests. Please try again later.")
}

func TokenExpired() *Error {
	return New(http.StatusUnauthorized, ErrTokenExpired, "Refresh token has expired")
}

func TokenInvalid() *Error {
	return New(http.StatusForbidden, ErrTokenInvalid, "Invalid refresh token")
}

func NotAuthorized(message string) *Error {
	return New(http.StatusForbidden, ErrNotAuthorized, message)
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, ErrNotFound, message)
}

func Duplicate(message string) *Error {
	return New(http.StatusBadRequest, ErrDuplicateEntry, message)
}

func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, ErrBadRequest, message)
}

// Internal hides store and transaction failures behind a generic retry
// suggestion; the full detail is logged server-side, never sent out.
func Internal() *Error {
	return New(http.StatusBadRequest, ErrInternal, "Something went wrong, please try again.")
}

// StatusOf extracts the HTTP status from an application error, defaulting
// to 500 for anything unexpected.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return http.StatusInternalServerError
}

// MessageOf returns the client-safe message for an error.
func MessageOf(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return "internal server error"
}
