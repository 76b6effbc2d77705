package authflow

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// GateState is an AuthGateRequest's lifecycle position.
type GateState uint8

const (
	// GateOpen means the gate is waiting for a session.
	GateOpen GateState = iota
	// GateResolved means a session arrived and the callback ran.
	GateResolved
	// GateCancelled means the gate was dismissed without authenticating.
	GateCancelled
	// GateBypassed means a session already existed when the gate was
	// requested; the callback ran inline and the gate never opened.
	GateBypassed
)

func (s GateState) String() string {
	switch s {
	case GateOpen:
		return "open"
	case GateResolved:
		return "resolved"
	case GateCancelled:
		return "cancelled"
	case GateBypassed:
		return "bypassed"
	default:
		return "unknown"
	}
}

// AuthGateRequest is one protected feature's wait for authentication. A gate
// resolves at most once: either inline (session already held), or when any
// subsequent flow commits a session, or never if cancelled first. The
// callback runs on the goroutine that completed the session.
type AuthGateRequest struct {
	id        string
	reason    string
	engine    *Engine
	onSuccess func(UserProfile)

	mu    sync.Mutex
	state GateState
}

// RequireAuth asks for an authenticated session on behalf of a protected
// feature. With a live session the callback runs before RequireAuth returns
// and the gate comes back already bypassed. Otherwise the gate stays open:
// it resolves when any login flow succeeds, including a session restore that
// is still in flight. Reason is free text for audit trails ("booking",
// "favorites"); it never reaches the backend.
func (e *Engine) RequireAuth(reason string, onSuccess func(UserProfile)) (*AuthGateRequest, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	gate := &AuthGateRequest{
		id:        uuid.NewString(),
		reason:    reason,
		engine:    e,
		onSuccess: onSuccess,
	}

	// Holding gateMu across the status read pins the decision: a session
	// committed concurrently either sees this gate registered or happened
	// before it, so the gate cannot fall through the crack between check
	// and append.
	e.gateMu.Lock()
	if user, ok := e.CurrentUser(); ok {
		gate.state = GateBypassed
		e.gateMu.Unlock()

		e.metricInc(MetricGateBypassed)
		if onSuccess != nil {
			onSuccess(user)
		}
		return gate, nil
	}
	e.gates = append(e.gates, gate)
	e.gateMu.Unlock()

	e.metricInc(MetricGateOpened)
	e.emitAudit(context.Background(), auditEventGateOpened, false, "", "", gate.id, nil, func() map[string]string {
		if reason == "" {
			return nil
		}
		return map[string]string{"reason": reason}
	})

	return gate, nil
}

// ID returns the gate's identifier as it appears in audit events.
func (g *AuthGateRequest) ID() string {
	return g.id
}

// Reason returns the free-text reason the gate was opened with.
func (g *AuthGateRequest) Reason() string {
	return g.reason
}

// State returns the gate's current lifecycle position.
func (g *AuthGateRequest) State() GateState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Cancel dismisses an open gate; the callback will never run. Cancelling a
// gate that already resolved, bypassed, or cancelled is a silent no-op.
func (g *AuthGateRequest) Cancel(ctx context.Context) {
	g.mu.Lock()
	if g.state != GateOpen {
		g.mu.Unlock()
		return
	}
	g.state = GateCancelled
	g.mu.Unlock()

	e := g.engine
	e.gateMu.Lock()
	e.gates = removeGate(e.gates, g)
	e.gateMu.Unlock()

	e.metricInc(MetricGateCancelled)
	e.emitAudit(ctx, auditEventGateCancelled, false, "", "", g.id, nil, nil)
}

// resolve fires the callback exactly once. Called by resolveGates with the
// gate already detached from the engine.
func (g *AuthGateRequest) resolve(ctx context.Context, user UserProfile) {
	g.mu.Lock()
	if g.state != GateOpen {
		g.mu.Unlock()
		return
	}
	g.state = GateResolved
	g.mu.Unlock()

	e := g.engine
	e.metricInc(MetricGateResolved)
	e.emitAudit(ctx, auditEventGateResolved, true, user.ID, user.Email, g.id, nil, nil)

	if g.onSuccess != nil {
		g.onSuccess(user)
	}
}

// resolveGates detaches every open gate and resolves them against the new
// session. Runs on every session commit.
func (e *Engine) resolveGates(ctx context.Context, user UserProfile) {
	e.gateMu.Lock()
	pending := e.gates
	e.gates = nil
	e.gateMu.Unlock()

	for _, gate := range pending {
		gate.resolve(ctx, user)
	}
}

func removeGate(gates []*AuthGateRequest, target *AuthGateRequest) []*AuthGateRequest {
	for i, g := range gates {
		if g == target {
			return append(gates[:i], gates[i+1:]...)
		}
	}
	return gates
}
