package authflow

import "context"

// FederatedEnabled reports whether the Google adapter is configured.
// Embedders hide the federated login entry point when this is false; nothing
// about the credential flows changes either way.
func (e *Engine) FederatedEnabled() bool {
	return e != nil && e.config.Google.ClientID != ""
}

// GoogleClientID returns the configured client ID for embedders that must
// hand it to the provider's own widget.
func (e *Engine) GoogleClientID() string {
	if e == nil {
		return ""
	}
	return e.config.Google.ClientID
}

// GoogleLogin exchanges a Google identity credential for a local session.
// The credential is whatever the provider's sign-in surface produced; the
// engine forwards it untouched and never inspects its contents.
//
// With no client ID configured the call fails with ErrFederatedUnavailable
// before any network traffic. Provider failures are fail-soft the same way:
// the session state is untouched and the credential flows keep working.
func (e *Engine) GoogleLogin(ctx context.Context, credential string) (UserProfile, error) {
	if err := e.ready(); err != nil {
		return UserProfile{}, err
	}

	if !e.FederatedEnabled() {
		e.metricInc(MetricFederatedUnavailable)
		return UserProfile{}, ErrFederatedUnavailable
	}
	if credential == "" {
		return UserProfile{}, e.failFederated(ctx, ErrFederatedCredentialMissing)
	}

	if !e.federatedInFlight.CompareAndSwap(false, true) {
		return UserProfile{}, ErrOperationInFlight
	}
	defer e.federatedInFlight.Store(false)

	payload, err := e.backend.GoogleExchange(ctx, credential)
	if err != nil {
		return UserProfile{}, e.failFederated(ctx, err)
	}

	profile := e.completeSession(ctx, payload)

	e.metricInc(MetricFederatedSuccess)
	e.emitAudit(ctx, auditEventFederatedSuccess, true, profile.ID, profile.Email, "", nil, func() map[string]string {
		return map[string]string{"method": "google"}
	})

	return profile, nil
}

func (e *Engine) failFederated(ctx context.Context, err error) error {
	e.metricInc(MetricFederatedFailure)
	e.emitAudit(ctx, auditEventFederatedFailure, false, "", "", "", err, nil)
	return err
}
