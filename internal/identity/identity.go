// Package identity defines the identity provider port. The provider owns
// credentials and the canonical record per email; this service only ever joins
// on the opaque uid it assigns. Only types and interfaces defined here should
// be imported by other domains.
package identity

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no identity record matches a lookup. It is the
// only provider error callers are allowed to branch on; every other failure
// is opaque.
var ErrNotFound = errors.New("identity record not found")

// Record is the provider-owned identity record, read-only to this service.
type Record struct {
	UID           string
	Email         string
	DisplayName   string
	EmailVerified bool
}

// Claims are the decoded contents of a verified ID token.
type Claims struct {
	UID           string
	Email         string
	EmailVerified bool
}

// Provider is the required identity-provider capability set.
type Provider interface {
	// CreateUser creates a new identity record and returns it with its
	// provider-assigned uid. The provider enforces email uniqueness.
	CreateUser(ctx context.Context, email, password, displayName string) (Record, error)
	// GetUserByEmail returns the record for the email or ErrNotFound.
	GetUserByEmail(ctx context.Context, email string) (Record, error)
	// GetUserByUID returns the record for the uid or ErrNotFound.
	GetUserByUID(ctx context.Context, uid string) (Record, error)
	// VerifyIDToken verifies and decodes an ID token.
	VerifyIDToken(ctx context.Context, token string) (Claims, error)
	// CreateExchangeToken issues a short-lived token the client can exchange
	// for an ID token.
	CreateExchangeToken(ctx context.Context, uid string) (string, error)
	// GenerateEmailVerificationLink builds a signed verification link for the
	// email, redirecting to redirectURL after confirmation.
	GenerateEmailVerificationLink(ctx context.Context, email, redirectURL string) (string, error)
	// DeleteUser permanently removes the identity record. Irreversible.
	DeleteUser(ctx context.Context, uid string) error
}
