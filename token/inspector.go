// Package token peeks at stored bearer tokens before a session restore. The
// client never verifies signatures (it holds no key material); it only reads
// the expiry claim so an obviously dead JWT can be discarded without a round
// trip to the backend.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Inspector reports whether a stored token is expired beyond doubt. Leeway
// shrinks the remaining lifetime so a token about to expire mid-request is
// treated as already dead.
type Inspector struct {
	leeway time.Duration
}

// NewInspector returns an inspector applying the given leeway. A negative
// leeway is treated as zero.
func NewInspector(leeway time.Duration) *Inspector {
	if leeway < 0 {
		leeway = 0
	}
	return &Inspector{leeway: leeway}
}

// Expired reports true only when raw parses as a JWT carrying an exp claim
// that has passed. Opaque tokens, parse failures, and claim-less JWTs report
// false: the backend is the authority, the inspector only short-circuits the
// certain cases.
func (i *Inspector) Expired(raw string, now time.Time) bool {
	if raw == "" {
		return false
	}

	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}

	return now.Add(i.leeway).After(exp.Time)
}
