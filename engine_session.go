package authflow

import (
	"context"
	"errors"
	"log"

	"github.com/taxnova/authflow/api"
)

// RestoreSession revives the persisted session, once, at startup. It loads
// the stored token, optionally discards it on a locally-visible expiry, and
// otherwise validates it against the backend. The engine leaves
// StatusLoading exactly once: to StatusAuthenticated on success, to
// StatusAnonymous otherwise.
//
// The second return reports whether a session was revived. An empty or
// locally-expired slot is the ordinary cold start and returns (false, nil);
// errors cover backend rejections, transport failures, and an unreadable
// store. Durable credentials are wiped only when the backend definitively
// rejected them or the token is locally expired. A transport failure leaves
// the slot intact so the next launch can retry, but this run still goes
// anonymous.
func (e *Engine) RestoreSession(ctx context.Context) (UserProfile, bool, error) {
	if err := e.ready(); err != nil {
		return UserProfile{}, false, err
	}
	if !e.restoreInFlight.CompareAndSwap(false, true) {
		return UserProfile{}, false, ErrOperationInFlight
	}
	defer e.restoreInFlight.Store(false)

	started := e.now()
	profile, err := e.restore(ctx)
	e.metricObserve(MetricRestoreLatency, e.now().Sub(started))

	if errors.Is(err, errNoStoredSession) {
		return UserProfile{}, false, nil
	}
	if err != nil {
		e.metricInc(MetricRestoreFailure)
		e.emitAudit(ctx, auditEventRestoreFailure, false, "", "", "", err, nil)
		return UserProfile{}, false, err
	}

	e.metricInc(MetricRestoreSuccess)
	e.emitAudit(ctx, auditEventRestoreSuccess, true, profile.ID, profile.Email, "", nil, nil)
	return profile, true, nil
}

// errNoStoredSession marks the empty-slot case inside restore; RestoreSession
// translates it to (false, nil) before anything reaches the caller.
var errNoStoredSession = errors.New("no stored session")

func (e *Engine) restore(ctx context.Context) (UserProfile, error) {
	creds, found, err := e.creds.Load(ctx)
	if err != nil {
		e.clearSession()
		return UserProfile{}, err
	}
	if !found {
		e.clearSession()
		return UserProfile{}, errNoStoredSession
	}

	if e.config.Restore.InspectTokenExpiry && e.inspector.Expired(creds.Token, e.now()) {
		// The token is dead beyond doubt; no point presenting it.
		e.discardStored(ctx)
		e.clearSession()
		return UserProfile{}, errNoStoredSession
	}

	user, err := e.backend.Me(ctx, creds.Token)
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) && apiErr.CredentialRejected() {
			e.discardStored(ctx)
		}
		e.clearSession()
		return UserProfile{}, err
	}

	profile := profileFromAPI(user)

	// Refresh the stored profile copy; the backend's answer is newer than
	// whatever was saved with the token.
	if err := e.persistCredentials(ctx, creds.Token, profile); err != nil {
		log.Printf("authflow: refreshing stored profile failed: %v", err)
	}

	e.mu.Lock()
	e.status = StatusAuthenticated
	e.user = &profile
	e.token = creds.Token
	e.mu.Unlock()

	e.metricInc(MetricSessionCreated)
	e.resolveGates(ctx, profile)

	return profile, nil
}

func (e *Engine) discardStored(ctx context.Context) {
	if err := e.creds.Clear(ctx); err != nil {
		log.Printf("authflow: clearing stored credentials failed: %v", err)
	}
}

// Logout ends the session: durable credentials are wiped, memory goes
// anonymous. The backend holds no server-side session to end, so no request
// is made. Logging out while anonymous is a no-op.
func (e *Engine) Logout(ctx context.Context) error {
	if err := e.ready(); err != nil {
		return err
	}

	e.mu.Lock()
	wasAuthenticated := e.status == StatusAuthenticated
	var userID, email string
	if e.user != nil {
		userID, email = e.user.ID, e.user.Email
	}
	e.status = StatusAnonymous
	e.user = nil
	e.token = ""
	e.mu.Unlock()

	e.discardStored(ctx)

	if wasAuthenticated {
		e.metricInc(MetricLogout)
		e.emitAudit(ctx, auditEventLogout, true, userID, email, "", nil, nil)
	}
	return nil
}

// UpdateUser replaces the in-memory profile and refreshes the stored copy so
// a restart sees the same data. The bearer token is untouched. Callers use
// this after out-of-band profile changes; UpdateProfile is the full
// round-trip variant.
func (e *Engine) UpdateUser(ctx context.Context, profile UserProfile) error {
	if err := e.ready(); err != nil {
		return err
	}

	e.mu.Lock()
	if e.status != StatusAuthenticated {
		e.mu.Unlock()
		return ErrNotAuthenticated
	}
	p := profile
	e.user = &p
	bearer := e.token
	e.mu.Unlock()

	if err := e.persistCredentials(ctx, bearer, profile); err != nil {
		log.Printf("authflow: persisting updated profile failed: %v", err)
	}
	return nil
}
