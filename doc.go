// Package authflow is the client-side session engine for the booking
// service's user accounts. It owns the single authoritative session (status,
// profile, bearer token), drives the credential and OTP flows against the
// backend REST API, persists credentials across restarts, and lets
// protected features request authentication through gates.
//
// Construct an Engine with the Builder, restore the persisted session once at
// startup, then route every auth interaction through the engine:
//
//	engine, err := authflow.New().
//		WithConfig(cfg).
//		WithAuditSink(sink).
//		Build()
//	if err != nil {
//		...
//	}
//	defer engine.Close()
//
//	engine.RestoreSession(ctx)
//
// All exported methods are safe for concurrent use. The engine never retries
// requests and never refreshes tokens; when the backend rejects a stored
// credential the session simply becomes anonymous again.
package authflow
