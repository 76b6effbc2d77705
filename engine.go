package authflow

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/taxnova/authflow/api"
	"github.com/taxnova/authflow/credstore"
	"github.com/taxnova/authflow/token"
)

// Engine is the authoritative session holder. One engine per process; every
// auth flow reads and writes session state through it.
type Engine struct {
	config    Config
	backend   Backend
	creds     credstore.Store
	inspector *token.Inspector
	audit     *auditDispatcher
	metrics   *Metrics

	mu     sync.RWMutex
	status SessionStatus
	user   *UserProfile
	token  string

	gateMu sync.Mutex
	gates  []*AuthGateRequest

	loginInFlight     atomic.Bool
	registerInFlight  atomic.Bool
	federatedInFlight atomic.Bool
	restoreInFlight   atomic.Bool

	closed atomic.Bool

	// now is replaced in tests to drive cooldown deadlines.
	now func() time.Time
}

// Close stops the audit dispatcher after draining buffered events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.closed.Store(true)
	if e.audit != nil {
		e.audit.Close()
	}
}

// Status returns the current session status.
func (e *Engine) Status() SessionStatus {
	if e == nil {
		return StatusLoading
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.status
}

// IsAuthenticated reports whether a session is currently held.
func (e *Engine) IsAuthenticated() bool {
	return e.Status() == StatusAuthenticated
}

// CurrentUser returns a copy of the authenticated profile. The second return
// is false while loading or anonymous.
func (e *Engine) CurrentUser() (UserProfile, bool) {
	if e == nil {
		return UserProfile{}, false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.status != StatusAuthenticated || e.user == nil {
		return UserProfile{}, false
	}
	return *e.user, true
}

// Token returns the bearer token of the current session, or "" when none is
// held. Exposed for embedders that attach the token to non-auth requests.
func (e *Engine) Token() string {
	if e == nil {
		return ""
	}
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.status != StatusAuthenticated {
		return ""
	}
	return e.token
}

// AuditDropped reports how many audit events were discarded under
// DropIfFull backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot copies the engine's counters for export.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) metricObserve(id MetricID, d time.Duration) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Observe(id, d)
}

func (e *Engine) ready() error {
	if e == nil || e.backend == nil || e.creds == nil {
		return ErrEngineNotReady
	}
	if e.closed.Load() {
		return ErrEngineNotReady
	}
	return nil
}

// completeSession commits session material from any successful flow:
// persist first, then memory, then resolve waiting gates. A persistence
// failure is logged and swallowed; the in-memory session still works for
// this run, it just will not survive a restart.
func (e *Engine) completeSession(ctx context.Context, payload api.AuthPayload) UserProfile {
	profile := profileFromAPI(payload.User)

	if err := e.persistCredentials(ctx, payload.Token, profile); err != nil {
		log.Printf("authflow: persisting credentials failed: %v", err)
	}

	e.mu.Lock()
	e.status = StatusAuthenticated
	e.user = &profile
	e.token = payload.Token
	e.mu.Unlock()

	e.metricInc(MetricSessionCreated)
	e.resolveGates(ctx, profile)

	return profile
}

func (e *Engine) persistCredentials(ctx context.Context, bearer string, profile UserProfile) error {
	encoded, err := json.Marshal(profile.toAPI())
	if err != nil {
		return err
	}
	return e.creds.Save(ctx, credstore.Credentials{Token: bearer, User: encoded})
}

// clearSession drops the in-memory session. Durable storage is handled by
// the callers, which differ on whether it should be wiped.
func (e *Engine) clearSession() {
	e.mu.Lock()
	e.status = StatusAnonymous
	e.user = nil
	e.token = ""
	e.mu.Unlock()
}
