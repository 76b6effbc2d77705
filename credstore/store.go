package credstore

import (
	"context"
	"errors"
)

// ErrUnavailable wraps failures of the backing medium. Callers treat it as a
// transport-class failure, not as an absent slot.
var ErrUnavailable = errors.New("credential store unavailable")

// Credentials is the persisted slot: the opaque bearer token and the
// serialized profile that was current when the token was issued or last
// updated. Both are written and removed together.
type Credentials struct {
	Token string `json:"token"`
	User  []byte `json:"user,omitempty"`
}

// Store is the durable slot contract. Load's second return reports whether a
// slot exists; an empty store is not an error.
type Store interface {
	Save(ctx context.Context, creds Credentials) error
	Load(ctx context.Context) (Credentials, bool, error)
	Clear(ctx context.Context) error
}
