// Package credstore persists the single token/user slot that survives a
// client restart. One slot per store: a save overwrites the previous
// credentials, a clear removes token and user together.
//
// # Architecture boundaries
//
// credstore owns durability only. It never inspects the token, never decodes
// the serialized user, and never talks to the auth backend. Stores sharing a
// backing medium (the file, the redis key) observe each other's writes on the
// next Load — there is no change notification.
//
// # What this package must NOT do
//
//   - Import the root authflow package or api (no import cycles).
//   - Encrypt or transform credentials; the medium's access control is the
//     only protection.
package credstore
