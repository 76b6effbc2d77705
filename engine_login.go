package authflow

import (
	"context"
	"errors"

	"github.com/taxnova/authflow/api"
)

// PasswordLogin submits an email/password pair. On success the session is
// committed before the call returns and waiting gates resolve. When the
// account still needs OTP verification the result carries a challenge
// instead of a session; the email inside the challenge is the one the
// backend confirmed, not the raw form input.
//
// Only one password login runs at a time; concurrent submissions fail fast
// with ErrOperationInFlight rather than racing the backend.
func (e *Engine) PasswordLogin(ctx context.Context, email, password string) (LoginResult, error) {
	if err := e.ready(); err != nil {
		return LoginResult{}, err
	}

	email = normalizeEmail(email)
	if !validEmail(email) {
		return LoginResult{}, e.failLogin(ctx, email, ErrEmailInvalid)
	}
	if password == "" {
		return LoginResult{}, e.failLogin(ctx, email, ErrPasswordRequired)
	}

	if !e.loginInFlight.CompareAndSwap(false, true) {
		return LoginResult{}, ErrOperationInFlight
	}
	defer e.loginInFlight.Store(false)

	payload, err := e.backend.Login(ctx, email, password)
	if err != nil {
		if challenge, ok := e.challengeFromError(err, email); ok {
			e.metricInc(MetricLoginVerificationRequired)
			e.emitAudit(ctx, auditEventLoginVerificationRequired, false, "", challenge.Email(), "", err, nil)
			return LoginResult{Challenge: challenge}, nil
		}
		return LoginResult{}, e.failLogin(ctx, email, err)
	}

	profile := e.completeSession(ctx, payload)

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, profile.ID, profile.Email, "", nil, func() map[string]string {
		return map[string]string{"method": "password"}
	})

	return LoginResult{User: profile}, nil
}

func (e *Engine) failLogin(ctx context.Context, email string, err error) error {
	e.metricInc(MetricLoginFailure)
	e.emitAudit(ctx, auditEventLoginFailure, false, "", email, "", err, nil)
	return err
}

// challengeFromError opens an OTP challenge when err is the backend's
// requires-verification signal. The backend-reported email wins over the
// form input when both are present.
func (e *Engine) challengeFromError(err error, formEmail string) (*OTPChallenge, bool) {
	var verr *api.VerificationRequiredError
	if !errors.As(err, &verr) {
		return nil, false
	}
	email := normalizeEmail(verr.Email)
	if email == "" {
		email = formEmail
	}
	return e.newOTPChallenge(email), true
}
