// Package domain holds the account types shared across the bounded context's
// subpackages.
package domain

// Profile is the durable per-user record owned by this service. The uid is
// assigned by the identity provider and immutable; the username is
// lowercase-normalized, mutable, and globally unique.
type Profile struct {
	UID         string  `json:"uid"`
	Username    string  `json:"username"`
	Email       *string `json:"email"`
	DisplayName string  `json:"displayName"`
}
