package authflow

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// OTPChallenge is one pending email verification. A challenge is created by
// the engine when a login or registration parks on verification; it is bound
// to a single email and closes permanently after a successful verify or an
// abandon.
//
// The challenge holds the in-progress code so a UI can bind input fields to
// it directly. Code mutation and reads are cheap and lock-based; the verify
// and resend calls go to the backend and carry single-flight guards.
type OTPChallenge struct {
	engine *Engine
	email  string
	digits int

	mu          sync.Mutex
	code        string
	resendReady time.Time

	verifying atomic.Bool
	resending atomic.Bool
	done      atomic.Bool
}

func (e *Engine) newOTPChallenge(email string) *OTPChallenge {
	c := &OTPChallenge{
		engine: e,
		email:  email,
		digits: e.config.OTP.Digits,
	}
	// The backend sent a code when it flagged the account unverified, so
	// the cooldown starts immediately.
	c.resendReady = e.now().Add(e.config.OTP.ResendCooldown)
	return c
}

// Email returns the address the challenge is bound to.
func (c *OTPChallenge) Email() string {
	return c.email
}

// Digits returns the expected code length.
func (c *OTPChallenge) Digits() int {
	return c.digits
}

// SetCode replaces the in-progress code. Non-digits are stripped so pasted
// codes with spaces or dashes work; anything beyond the expected length is
// truncated.
func (c *OTPChallenge) SetCode(raw string) {
	code := digitsOf(raw)
	if len(code) > c.digits {
		code = code[:c.digits]
	}

	c.mu.Lock()
	c.code = code
	c.mu.Unlock()
}

// Code returns the current in-progress code.
func (c *OTPChallenge) Code() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.code
}

// Complete reports whether the in-progress code has the full digit count.
func (c *OTPChallenge) Complete() bool {
	return len(c.Code()) == c.digits
}

// Closed reports whether the challenge finished (verified or abandoned).
func (c *OTPChallenge) Closed() bool {
	return c.done.Load()
}

// ResendCooldown returns how long until the next resend is allowed; zero
// means a resend may run now.
func (c *OTPChallenge) ResendCooldown() time.Duration {
	c.mu.Lock()
	ready := c.resendReady
	c.mu.Unlock()

	remaining := ready.Sub(c.engine.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Verify submits the in-progress code. An incomplete code is rejected
// locally without any network traffic. On success the engine commits the
// session, waiting gates resolve, and the challenge closes; after that every
// further call fails with ErrOTPChallengeClosed.
func (c *OTPChallenge) Verify(ctx context.Context) (UserProfile, error) {
	e := c.engine
	if err := e.ready(); err != nil {
		return UserProfile{}, err
	}
	if c.done.Load() {
		return UserProfile{}, ErrOTPChallengeClosed
	}

	code := c.Code()
	if len(code) != c.digits {
		e.metricInc(MetricOTPRejectedLocal)
		return UserProfile{}, ErrOTPCodeIncomplete
	}

	if !c.verifying.CompareAndSwap(false, true) {
		return UserProfile{}, ErrOperationInFlight
	}
	defer c.verifying.Store(false)

	// Re-check after winning the guard; a concurrent Verify may have
	// closed the challenge while this call was parked.
	if c.done.Load() {
		return UserProfile{}, ErrOTPChallengeClosed
	}

	payload, err := e.backend.VerifyOTP(ctx, c.email, code)
	if err != nil {
		e.metricInc(MetricOTPVerifyFailure)
		e.emitAudit(ctx, auditEventOTPVerifyFailure, false, "", c.email, "", err, nil)
		return UserProfile{}, err
	}

	c.done.CompareAndSwap(false, true)
	profile := e.completeSession(ctx, payload)

	e.metricInc(MetricOTPVerifySuccess)
	e.emitAudit(ctx, auditEventOTPVerifySuccess, true, profile.ID, profile.Email, "", nil, nil)

	return profile, nil
}

// Resend asks the backend to email a fresh code. The cooldown is enforced
// locally; a blocked resend never reaches the network. A successful resend
// restarts the cooldown and clears the in-progress code, since the old code
// is now dead.
func (c *OTPChallenge) Resend(ctx context.Context) error {
	e := c.engine
	if err := e.ready(); err != nil {
		return err
	}
	if c.done.Load() {
		return ErrOTPChallengeClosed
	}

	if c.ResendCooldown() > 0 {
		e.metricInc(MetricOTPResendBlocked)
		e.emitAudit(ctx, auditEventOTPResendBlocked, false, "", c.email, "", ErrResendCooldown, nil)
		return ErrResendCooldown
	}

	if !c.resending.CompareAndSwap(false, true) {
		return ErrOperationInFlight
	}
	defer c.resending.Store(false)

	if err := e.backend.ResendOTP(ctx, c.email); err != nil {
		e.emitAudit(ctx, auditEventOTPResend, false, "", c.email, "", err, nil)
		return err
	}

	c.mu.Lock()
	c.resendReady = e.now().Add(e.config.OTP.ResendCooldown)
	c.code = ""
	c.mu.Unlock()

	e.metricInc(MetricOTPResend)
	e.emitAudit(ctx, auditEventOTPResend, true, "", c.email, "", nil, nil)
	return nil
}

// Abandon closes the challenge without verifying. The account stays
// unverified server-side; a later login reopens a fresh challenge.
// Abandoning twice, or after a successful verify, is a no-op.
func (c *OTPChallenge) Abandon(ctx context.Context) {
	if !c.done.CompareAndSwap(false, true) {
		return
	}
	c.engine.emitAudit(ctx, auditEventOTPAbandoned, false, "", c.email, "", nil, nil)
}
