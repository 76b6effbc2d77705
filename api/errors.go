package api

import (
	"errors"
	"fmt"
)

// ErrTransport wraps connection, DNS, and timeout failures. Callers cannot
// distinguish these from each other, only from server-rejected requests.
var ErrTransport = errors.New("backend unreachable")

// ErrMalformedResponse is returned when the backend answers with a body the
// client cannot decode.
var ErrMalformedResponse = errors.New("malformed backend response")

// Error is a server-rejected request: the backend answered and said no.
// Message carries the server-provided text verbatim so the caller can surface
// it to the user.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend rejected request (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend rejected request (%d)", e.Status)
}

// CredentialRejected reports whether the backend definitively refused the
// presented credential, as opposed to any other business rejection.
func (e *Error) CredentialRejected() bool {
	return e.Status == 401 || e.Status == 403
}

// VerificationRequiredError is the login endpoint's signal that the account
// exists but has not completed OTP verification. Email comes from the error
// payload, not from whatever the user typed into the form.
type VerificationRequiredError struct {
	Email   string
	Message string
}

func (e *VerificationRequiredError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "account requires verification"
}
