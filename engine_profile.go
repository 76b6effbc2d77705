package authflow

import (
	"context"
	"errors"

	"github.com/taxnova/authflow/api"
)

// FetchProfile re-reads the authenticated profile from the backend and
// replaces the in-memory and stored copies. When the backend rejects the
// token outright the session ends the same way a failed restore does.
func (e *Engine) FetchProfile(ctx context.Context) (UserProfile, error) {
	if err := e.ready(); err != nil {
		return UserProfile{}, err
	}

	bearer, err := e.currentToken()
	if err != nil {
		return UserProfile{}, err
	}

	user, err := e.backend.Me(ctx, bearer)
	if err != nil {
		e.expireOnRejection(ctx, err)
		return UserProfile{}, err
	}

	profile := profileFromAPI(user)
	if err := e.UpdateUser(ctx, profile); err != nil {
		return UserProfile{}, err
	}
	return profile, nil
}

// UpdateProfile sends a replacement profile to the backend and commits the
// canonical copy the backend returns. The ID and role always come back from
// the server; callers cannot promote themselves by editing the input.
func (e *Engine) UpdateProfile(ctx context.Context, profile UserProfile) (UserProfile, error) {
	if err := e.ready(); err != nil {
		return UserProfile{}, err
	}

	bearer, err := e.currentToken()
	if err != nil {
		return UserProfile{}, err
	}

	user, err := e.backend.UpdateProfile(ctx, bearer, profile.toAPI())
	if err != nil {
		e.metricInc(MetricProfileUpdateFailure)
		e.emitAudit(ctx, auditEventProfileUpdate, false, profile.ID, profile.Email, "", err, nil)
		e.expireOnRejection(ctx, err)
		return UserProfile{}, err
	}

	canonical := profileFromAPI(user)
	if err := e.UpdateUser(ctx, canonical); err != nil {
		return UserProfile{}, err
	}

	e.metricInc(MetricProfileUpdateSuccess)
	e.emitAudit(ctx, auditEventProfileUpdate, true, canonical.ID, canonical.Email, "", nil, nil)
	return canonical, nil
}

// ChangePassword rotates the password for the current session. The backend
// keeps the session valid afterwards, so the engine's state is unchanged on
// success.
func (e *Engine) ChangePassword(ctx context.Context, current, next string) error {
	if err := e.ready(); err != nil {
		return err
	}

	if current == "" || next == "" {
		return ErrPasswordRequired
	}
	if len(next) < e.config.Registration.MinPasswordLength {
		return ErrPasswordTooShort
	}

	bearer, err := e.currentToken()
	if err != nil {
		return err
	}

	var userID, email string
	if u, ok := e.CurrentUser(); ok {
		userID, email = u.ID, u.Email
	}

	if err := e.backend.ChangePassword(ctx, bearer, current, next); err != nil {
		e.metricInc(MetricPasswordChangeFailure)
		e.emitAudit(ctx, auditEventPasswordChange, false, userID, email, "", err, nil)
		return err
	}

	e.metricInc(MetricPasswordChangeSuccess)
	e.emitAudit(ctx, auditEventPasswordChange, true, userID, email, "", nil, nil)
	return nil
}

func (e *Engine) currentToken() (string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.status != StatusAuthenticated || e.token == "" {
		return "", ErrNotAuthenticated
	}
	return e.token, nil
}

// expireOnRejection ends the session when the backend definitively rejected
// the bearer token mid-session. Transport failures change nothing.
func (e *Engine) expireOnRejection(ctx context.Context, err error) {
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || !apiErr.CredentialRejected() {
		return
	}
	e.discardStored(ctx)
	e.clearSession()
}
