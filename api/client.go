package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxResponseBody = 1 << 20

// Config configures a Client. BaseURL is required; Timeout defaults to
// 30 seconds when zero.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Client talks to the booking service's user-auth REST API. It is safe for
// concurrent use; all state is immutable after construction.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

// NewClient validates cfg and returns a ready Client.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("api: base URL required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:   base,
		userAgent: cfg.UserAgent,
		http:      &http.Client{Timeout: timeout},
	}, nil
}

// envelope is the backend's uniform response shape. Error payloads reuse the
// same shape with Success=false; the login endpoint's requires-verification
// branch additionally sets RequiresVerification and Email.
type envelope struct {
	Success              bool   `json:"success"`
	Token                string `json:"token,omitempty"`
	User                 *User  `json:"user,omitempty"`
	Message              string `json:"message,omitempty"`
	Email                string `json:"email,omitempty"`
	RequiresVerification bool   `json:"requiresVerification,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type resendOTPRequest struct {
	Email string `json:"email"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type googleExchangeRequest struct {
	Credential string `json:"credential"`
}

// Login exchanges an email/password pair for session material. The
// requires-verification branch surfaces as [*VerificationRequiredError].
func (c *Client) Login(ctx context.Context, email, password string) (AuthPayload, error) {
	env, err := c.do(ctx, http.MethodPost, "/user/auth/login", "", loginRequest{Email: email, Password: password})
	if err != nil {
		return AuthPayload{}, err
	}
	return payloadFromEnvelope(env)
}

// Register submits a new account. Depending on backend deployment the
// outcome either carries session material or only a message, with OTP
// verification expected to follow.
func (c *Client) Register(ctx context.Context, p RegisterPayload) (RegisterOutcome, error) {
	env, err := c.do(ctx, http.MethodPost, "/user/auth/register", "", p)
	if err != nil {
		return RegisterOutcome{}, err
	}

	return RegisterOutcome{
		Token:   env.Token,
		User:    env.User,
		Message: env.Message,
	}, nil
}

// VerifyOTP confirms an emailed one-time code and returns the session the
// backend issues on success.
func (c *Client) VerifyOTP(ctx context.Context, email, otp string) (AuthPayload, error) {
	env, err := c.do(ctx, http.MethodPost, "/user/auth/verify-otp", "", verifyOTPRequest{Email: email, OTP: otp})
	if err != nil {
		return AuthPayload{}, err
	}
	return payloadFromEnvelope(env)
}

// ResendOTP asks the backend to email a fresh code.
func (c *Client) ResendOTP(ctx context.Context, email string) error {
	_, err := c.do(ctx, http.MethodPost, "/user/auth/resend-otp", "", resendOTPRequest{Email: email})
	return err
}

// Me fetches the profile belonging to token.
func (c *Client) Me(ctx context.Context, token string) (User, error) {
	env, err := c.do(ctx, http.MethodGet, "/user/auth/me", token, nil)
	if err != nil {
		return User{}, err
	}
	if env.User == nil {
		return User{}, fmt.Errorf("%w: profile payload missing user", ErrMalformedResponse)
	}
	return *env.User, nil
}

// UpdateProfile replaces the authenticated user's profile and returns the
// backend's canonical copy.
func (c *Client) UpdateProfile(ctx context.Context, token string, u User) (User, error) {
	env, err := c.do(ctx, http.MethodPut, "/user/auth/profile", token, u)
	if err != nil {
		return User{}, err
	}
	if env.User == nil {
		return User{}, fmt.Errorf("%w: profile payload missing user", ErrMalformedResponse)
	}
	return *env.User, nil
}

// ChangePassword rotates the authenticated user's password.
func (c *Client) ChangePassword(ctx context.Context, token, current, next string) error {
	_, err := c.do(ctx, http.MethodPut, "/user/auth/change-password", token, changePasswordRequest{
		CurrentPassword: current,
		NewPassword:     next,
	})
	return err
}

// GoogleExchange trades a Google identity credential for a local session.
func (c *Client) GoogleExchange(ctx context.Context, credential string) (AuthPayload, error) {
	env, err := c.do(ctx, http.MethodPost, "/api/user/auth/google", "", googleExchangeRequest{Credential: credential})
	if err != nil {
		return AuthPayload{}, err
	}
	return payloadFromEnvelope(env)
}

func payloadFromEnvelope(env *envelope) (AuthPayload, error) {
	if env.User == nil || env.Token == "" {
		return AuthPayload{}, fmt.Errorf("%w: session payload missing user or token", ErrMalformedResponse)
	}
	return AuthPayload{User: *env.User, Token: env.Token}, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body any) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	requestID := RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	var env envelope
	if decodeErr := json.Unmarshal(raw, &env); decodeErr != nil {
		if resp.StatusCode >= 400 {
			return nil, &Error{Status: resp.StatusCode}
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, decodeErr)
	}

	if resp.StatusCode >= 400 || !env.Success {
		if env.RequiresVerification {
			return nil, &VerificationRequiredError{Email: env.Email, Message: env.Message}
		}
		return nil, &Error{Status: resp.StatusCode, Message: env.Message}
	}

	return &env, nil
}
