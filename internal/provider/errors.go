package provider

import (
	"errors"
	"strings"
)

// Error codes shared by every backend. They follow the hosted service's names.
const (
	CodeEmailExists        = "EMAIL_EXISTS"
	CodeInvalidCredentials = "INVALID_LOGIN_CREDENTIALS"
	CodeEmailNotFound      = "EMAIL_NOT_FOUND"
	CodeInvalidPassword    = "INVALID_PASSWORD"
	CodeInvalidEmail       = "INVALID_EMAIL"
	CodeWeakPassword       = "WEAK_PASSWORD"
	CodeUserDisabled       = "USER_DISABLED"
	CodeTooManyAttempts    = "TOO_MANY_ATTEMPTS_TRY_LATER"
	CodeInvalidIDToken     = "INVALID_ID_TOKEN"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeUnavailable        = "UNAVAILABLE"
)

var messages = map[string]string{
	CodeEmailExists:        "The email address is already in use by another account.",
	CodeInvalidCredentials: "Invalid email or password.",
	CodeEmailNotFound:      "Invalid email or password.",
	CodeInvalidPassword:    "Invalid email or password.",
	CodeInvalidEmail:       "The email address is badly formatted.",
	CodeWeakPassword:       "Password should be at least 6 characters.",
	CodeUserDisabled:       "This account has been disabled.",
	CodeTooManyAttempts:    "Too many attempts. Try again later.",
	CodeInvalidIDToken:     "Your session is no longer valid. Please sign in again.",
	CodeTokenExpired:       "Your session has expired. Please sign in again.",
	CodeUserNotFound:       "Your account could not be found.",
	CodeUnavailable:        "The authentication service is unavailable.",
}

// Error is a failure reported by the provider.
type Error struct {
	Code    string
	Message string
}

// NewError builds an Error with the stock message for code.
func NewError(code string) *Error {
	msg, ok := messages[code]
	if !ok {
		msg = strings.ToLower(strings.ReplaceAll(code, "_", " "))
	}
	return &Error{Code: code, Message: msg}
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// IsCode reports whether err is a provider Error with the given code.
func IsCode(err error, code string) bool {
	var perr *Error
	return errors.As(err, &perr) && perr.Code == code
}

// IsRejected reports whether err means the provider refused the credentials
// themselves, as opposed to failing to answer.
func IsRejected(err error) bool {
	var perr *Error
	if !errors.As(err, &perr) {
		return false
	}
	switch perr.Code {
	case CodeInvalidIDToken, CodeTokenExpired, CodeUserNotFound, CodeUserDisabled:
		return true
	}
	return false
}

// Message returns the user-facing text of a provider error, or "" for other errors.
func Message(err error) string {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Message
	}
	return ""
}
