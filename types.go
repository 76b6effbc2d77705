package authflow

import (
	"context"

	"github.com/taxnova/authflow/api"
)

// SessionStatus is the engine's authentication state. The engine starts in
// StatusLoading and reaches exactly one terminal status per restore; after
// that every transition goes through login, logout, or a rejected credential.
type SessionStatus uint8

const (
	// StatusLoading means the persisted session has not been restored yet.
	// Gates opened in this state wait for the restore outcome.
	StatusLoading SessionStatus = iota
	// StatusAuthenticated means a profile and token are held in memory.
	StatusAuthenticated
	// StatusAnonymous means no session exists; operations requiring one fail
	// with ErrNotAuthenticated.
	StatusAnonymous
)

// String returns the status name for logs and audit metadata.
func (s SessionStatus) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusAuthenticated:
		return "authenticated"
	case StatusAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Role values the backend issues. Anything else is treated as a regular user.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// UserProfile is the authenticated account as the engine exposes it. It is a
// value type: readers get copies and never observe later session changes.
type UserProfile struct {
	ID    string
	Name  string
	Email string
	Phone string
	Role  string
}

// IsAdmin reports whether the profile carries the admin role.
func (u UserProfile) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func profileFromAPI(u api.User) UserProfile {
	return UserProfile{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Phone: u.Phone,
		Role:  u.Role,
	}
}

func (u UserProfile) toAPI() api.User {
	return api.User{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Phone: u.Phone,
		Role:  u.Role,
	}
}

// Backend is the auth REST surface the engine drives. api.Client is the
// production implementation; tests substitute fakes.
type Backend interface {
	Login(ctx context.Context, email, password string) (api.AuthPayload, error)
	Register(ctx context.Context, p api.RegisterPayload) (api.RegisterOutcome, error)
	VerifyOTP(ctx context.Context, email, otp string) (api.AuthPayload, error)
	ResendOTP(ctx context.Context, email string) error
	Me(ctx context.Context, token string) (api.User, error)
	UpdateProfile(ctx context.Context, token string, u api.User) (api.User, error)
	ChangePassword(ctx context.Context, token, current, next string) error
	GoogleExchange(ctx context.Context, credential string) (api.AuthPayload, error)
}

// LoginResult is the outcome of a credential submission that did not error.
// Either the session was created (Challenge nil) or the account still needs
// OTP verification and Challenge carries the follow-up flow.
type LoginResult struct {
	User      UserProfile
	Challenge *OTPChallenge
}

// VerificationPending reports whether the login was parked on an OTP
// challenge instead of creating a session.
func (r LoginResult) VerificationPending() bool {
	return r.Challenge != nil
}

// RegisterRequest is the input for account creation. Phone is optional unless
// the configured validation policy requires it.
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

// RegisterResult is the outcome of an account creation that did not error.
// Exactly one of SessionCreated and Challenge-pending holds, matching the
// configured post-register behavior.
type RegisterResult struct {
	User           UserProfile
	SessionCreated bool
	Challenge      *OTPChallenge
	Message        string
}
