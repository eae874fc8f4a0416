// Package shared holds the credential-reading primitives used across the
// request gate and the fine-grained view guards.
package shared

import (
	"context"
	"errors"
	"net/http"
)

// Claim is the decoded credential claim for the acting principal. Decoding is
// performed by the external session service; the core only reads the result.
type Claim struct {
	UserID string
	Role   string
}

var (
	// ErrNoSession indicates the request carries no resolvable session.
	ErrNoSession = errors.New("shared: no session")
	// ErrNoRoleClaim indicates the session exists but carries no role claim.
	ErrNoRoleClaim = errors.New("shared: session has no role claim")
)

// ClaimDecoder resolves the request credential into a decoded claim. A failed
// decode is an explicit error variant, never a zero-value claim.
type ClaimDecoder interface {
	Decode(ctx context.Context, r *http.Request) (Claim, error)
}
