// Package devidp is an in-process identity provider backed by Postgres, for
// self-hosted and development deployments. It owns the credentials table and
// issues HS256 tokens; the rest of the application talks to it exclusively
// through the identity.Provider port, exactly as it would to a hosted
// provider.
package devidp

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"accountd/internal/identity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// ErrEmailExists is returned by CreateUser when the email already has a
// canonical record.
var ErrEmailExists = errors.New("email already registered")

const (
	userColumns = `uid, email, password_hash, display_name, email_verified`

	insertUserQuery     = `INSERT INTO idp_users (uid, email, password_hash, display_name) VALUES ($1, $2, $3, $4)`
	getUserByEmailQuery = `SELECT ` + userColumns + ` FROM idp_users WHERE email = $1`
	getUserByUIDQuery   = `SELECT ` + userColumns + ` FROM idp_users WHERE uid = $1`
	deleteUserQuery     = `DELETE FROM idp_users WHERE uid = $1`
	markVerifiedQuery   = `UPDATE idp_users SET email_verified = true, updated_at = now() WHERE uid = $1`
)

const uniqueViolationCode = "23505"

// Options configures token lifetimes and the verification link base.
type Options struct {
	Secret           string
	IDTokenTTL       time.Duration
	ExchangeTokenTTL time.Duration
	VerifyLinkTTL    time.Duration
	AppBaseURL       string
}

// Provider implements identity.Provider on a local users table.
type Provider struct {
	pool *pgxpool.Pool
	opts Options
}

// New creates a Provider from the shared connection pool.
func New(pool *pgxpool.Pool, opts Options) *Provider {
	if opts.IDTokenTTL <= 0 {
		opts.IDTokenTTL = time.Hour
	}
	if opts.ExchangeTokenTTL <= 0 {
		opts.ExchangeTokenTTL = 5 * time.Minute
	}
	if opts.VerifyLinkTTL <= 0 {
		opts.VerifyLinkTTL = 24 * time.Hour
	}
	return &Provider{pool: pool, opts: opts}
}

func (p *Provider) CreateUser(ctx context.Context, email, password, displayName string) (identity.Record, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return identity.Record{}, fmt.Errorf("hash password: %w", err)
	}

	uid := uuid.NewString()
	if _, err := p.pool.Exec(ctx, insertUserQuery, uid, email, string(hash), displayName); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return identity.Record{}, ErrEmailExists
		}
		return identity.Record{}, fmt.Errorf("create user: %w", err)
	}

	return identity.Record{UID: uid, Email: email, DisplayName: displayName}, nil
}

func (p *Provider) GetUserByEmail(ctx context.Context, email string) (identity.Record, error) {
	return p.scanUser(p.pool.QueryRow(ctx, getUserByEmailQuery, email))
}

func (p *Provider) GetUserByUID(ctx context.Context, uid string) (identity.Record, error) {
	return p.scanUser(p.pool.QueryRow(ctx, getUserByUIDQuery, uid))
}

func (p *Provider) DeleteUser(ctx context.Context, uid string) error {
	if _, err := p.pool.Exec(ctx, deleteUserQuery, uid); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// SignInWithPassword is the provider's own front door: clients trade
// email+password for an ID token here, then present that token to the
// application. It is not part of the identity.Provider port.
func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) (string, error) {
	var hash string
	rec := identity.Record{}
	err := p.pool.QueryRow(ctx, getUserByEmailQuery, email).Scan(
		&rec.UID, &rec.Email, &hash, &rec.DisplayName, &rec.EmailVerified,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", identity.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return "", identity.ErrNotFound
	}

	return p.signToken(rec.UID, rec.Email, rec.EmailVerified, typeIDToken, p.opts.IDTokenTTL)
}

// ConfirmEmail marks the uid's email as verified. Called by the endpoint the
// verification link points at.
func (p *Provider) ConfirmEmail(ctx context.Context, uid string) error {
	if _, err := p.pool.Exec(ctx, markVerifiedQuery, uid); err != nil {
		return fmt.Errorf("confirm email: %w", err)
	}
	return nil
}

func (p *Provider) GenerateEmailVerificationLink(ctx context.Context, email, redirectURL string) (string, error) {
	rec, err := p.GetUserByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	token, err := p.signToken(rec.UID, rec.Email, rec.EmailVerified, typeVerifyToken, p.opts.VerifyLinkTTL)
	if err != nil {
		return "", err
	}

	link := p.opts.AppBaseURL + "/verify-email?token=" + url.QueryEscape(token)
	if redirectURL != "" {
		link += "&redirect=" + url.QueryEscape(redirectURL)
	}
	return link, nil
}

func (p *Provider) scanUser(row pgx.Row) (identity.Record, error) {
	var rec identity.Record
	var hash string
	err := row.Scan(&rec.UID, &rec.Email, &hash, &rec.DisplayName, &rec.EmailVerified)
	if errors.Is(err, pgx.ErrNoRows) {
		return identity.Record{}, identity.ErrNotFound
	}
	if err != nil {
		return identity.Record{}, fmt.Errorf("get user: %w", err)
	}
	return rec, nil
}

// Compile-time check that Provider implements identity.Provider
var _ identity.Provider = (*Provider)(nil)
