// Package api is the wire client for the booking service's user-auth REST
// endpoints. It owns request/response shapes, bearer-token headers, and the
// decoding of server error payloads into typed errors.
//
// # Architecture boundaries
//
// api knows nothing about sessions, persistence, or flow state; it maps one
// method to one HTTP round trip and returns decoded payloads or a typed
// error. Flow orchestration lives in the root authflow package.
//
// # What this package must NOT do
//
//   - Retry or back off. A submitted request runs to completion; callers own
//     the single-submission discipline.
//   - Cache responses or hold credentials beyond a single call.
//   - Import the root authflow package (no import cycles).
package api
