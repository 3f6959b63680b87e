// Package account provides the identity reconciliation bounded context.
// This file defines the public API of the account domain. Only types and
// interfaces defined here should be imported by other domains.
package account

import (
	"context"

	"accountd/internal/account/domain"
)

// Profile is the durable per-user record owned by this service.
type Profile = domain.Profile

// Engine is the public interface of the reconciliation engine, consumed by
// the HTTP layer's auth middleware.
type Engine interface {
	// VerifyToken verifies an ID token and returns the owning profile,
	// manufacturing it first if the uid only exists at the identity provider.
	VerifyToken(ctx context.Context, token string) (Profile, error)
}
