package authflow

import "errors"

var (
	// ErrEngineNotReady is returned when a session operation runs before the
	// engine has been built or after it was closed.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrNotAuthenticated is returned by operations that require a live
	// session when the engine is anonymous or still loading.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrEmailInvalid is returned when a submitted email fails local shape
	// validation before any network call.
	ErrEmailInvalid = errors.New("invalid email address")
	// ErrPasswordRequired is returned when a credential submission carries an
	// empty password.
	ErrPasswordRequired = errors.New("password required")
	// ErrPasswordTooShort is returned when a registration password is below
	// the minimum length.
	ErrPasswordTooShort = errors.New("password too short")
	// ErrNameRequired is returned when a registration carries an empty name.
	ErrNameRequired = errors.New("name required")
	// ErrPhoneInvalid is returned when the configured phone policy rejects a
	// submitted phone number.
	ErrPhoneInvalid = errors.New("invalid phone number")
	// ErrOTPCodeIncomplete is returned when a verification code is submitted
	// with fewer digits than the challenge requires.
	ErrOTPCodeIncomplete = errors.New("verification code incomplete")
	// ErrOTPChallengeClosed is returned when a verify or resend runs on a
	// challenge that already succeeded or was abandoned.
	ErrOTPChallengeClosed = errors.New("verification challenge closed")
	// ErrResendCooldown is returned when a resend is requested before the
	// cooldown window has elapsed.
	ErrResendCooldown = errors.New("resend cooldown active")
	// ErrOperationInFlight is returned when a second submission of the same
	// operation starts while the first is still running.
	ErrOperationInFlight = errors.New("operation already in flight")
	// ErrFederatedUnavailable is returned by federated login when no provider
	// is configured; callers hide the federated option rather than fail.
	ErrFederatedUnavailable = errors.New("federated login unavailable")
	// ErrFederatedCredentialMissing is returned when the federated provider
	// completed without producing an identity credential.
	ErrFederatedCredentialMissing = errors.New("federated credential missing")
	// ErrGateClosed is returned when a gate is resolved or cancelled twice.
	ErrGateClosed = errors.New("auth gate closed")
)
