package authflow

import (
	"context"
	"errors"
	"strings"

	"github.com/taxnova/authflow/api"
)

// Register creates an account. Local validation runs first; the backend's
// response is then interpreted according to the configured post-register
// behavior: either an OTP challenge opens for the new email, or the returned
// session material signs the account in immediately.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (RegisterResult, error) {
	if err := e.ready(); err != nil {
		return RegisterResult{}, err
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)

	if err := e.validateRegistration(req); err != nil {
		return RegisterResult{}, e.failRegister(ctx, req.Email, err)
	}

	if !e.registerInFlight.CompareAndSwap(false, true) {
		return RegisterResult{}, ErrOperationInFlight
	}
	defer e.registerInFlight.Store(false)

	outcome, err := e.backend.Register(ctx, api.RegisterPayload{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    digitsOf(req.Phone),
	})
	if err != nil {
		return RegisterResult{}, e.failRegister(ctx, req.Email, err)
	}

	result, err := e.interpretRegisterOutcome(ctx, req.Email, outcome)
	if err != nil {
		return RegisterResult{}, e.failRegister(ctx, req.Email, err)
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, result.User.ID, req.Email, "", nil, func() map[string]string {
		if result.SessionCreated {
			return map[string]string{"post_register": "session"}
		}
		return map[string]string{"post_register": "otp"}
	})

	return result, nil
}

func (e *Engine) validateRegistration(req RegisterRequest) error {
	if req.Name == "" {
		return ErrNameRequired
	}
	if !validEmail(req.Email) {
		return ErrEmailInvalid
	}
	if req.Password == "" {
		return ErrPasswordRequired
	}
	if len(req.Password) < e.config.Registration.MinPasswordLength {
		return ErrPasswordTooShort
	}
	return e.validatePhone(req.Phone)
}

func (e *Engine) interpretRegisterOutcome(ctx context.Context, email string, outcome api.RegisterOutcome) (RegisterResult, error) {
	switch e.config.Registration.PostRegister {
	case PostRegisterCreateSession:
		if outcome.User == nil || outcome.Token == "" {
			return RegisterResult{}, errors.New("authflow: register response missing session material")
		}
		profile := e.completeSession(ctx, api.AuthPayload{User: *outcome.User, Token: outcome.Token})
		return RegisterResult{
			User:           profile,
			SessionCreated: true,
			Message:        outcome.Message,
		}, nil

	default: // PostRegisterRequireOTP; Build rejects Unspecified.
		return RegisterResult{
			Challenge: e.newOTPChallenge(email),
			Message:   outcome.Message,
		}, nil
	}
}

func (e *Engine) failRegister(ctx context.Context, email string, err error) error {
	e.metricInc(MetricRegisterFailure)
	e.emitAudit(ctx, auditEventRegisterFailure, false, "", email, "", err, nil)
	return err
}
