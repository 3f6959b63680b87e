package devidp

import (
	"context"
	"fmt"
	"time"

	"accountd/internal/identity"

	"github.com/golang-jwt/jwt/v5"
)

const (
	typeIDToken       = "id"
	typeExchangeToken = "exchange"
	typeVerifyToken   = "verify_email"
)

func (p *Provider) VerifyIDToken(_ context.Context, token string) (identity.Claims, error) {
	claims, err := p.parseToken(token, typeIDToken)
	if err != nil {
		return identity.Claims{}, err
	}

	uid, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	verified, _ := claims["email_verified"].(bool)
	if uid == "" {
		return identity.Claims{}, fmt.Errorf("token has no subject")
	}

	return identity.Claims{UID: uid, Email: email, EmailVerified: verified}, nil
}

func (p *Provider) CreateExchangeToken(ctx context.Context, uid string) (string, error) {
	rec, err := p.GetUserByUID(ctx, uid)
	if err != nil {
		return "", err
	}
	return p.signToken(rec.UID, rec.Email, rec.EmailVerified, typeExchangeToken, p.opts.ExchangeTokenTTL)
}

// ExchangeForIDToken trades a valid exchange token for a fresh ID token.
// Provider-side API, not part of the identity.Provider port.
func (p *Provider) ExchangeForIDToken(ctx context.Context, exchangeToken string) (string, error) {
	claims, err := p.parseToken(exchangeToken, typeExchangeToken)
	if err != nil {
		return "", err
	}

	uid, _ := claims["sub"].(string)
	rec, err := p.GetUserByUID(ctx, uid)
	if err != nil {
		return "", err
	}

	return p.signToken(rec.UID, rec.Email, rec.EmailVerified, typeIDToken, p.opts.IDTokenTTL)
}

// ConfirmEmailWithToken validates a verification-link token and marks the
// owning account's email as verified.
func (p *Provider) ConfirmEmailWithToken(ctx context.Context, token string) error {
	claims, err := p.parseToken(token, typeVerifyToken)
	if err != nil {
		return err
	}

	uid, _ := claims["sub"].(string)
	if uid == "" {
		return fmt.Errorf("token has no subject")
	}
	return p.ConfirmEmail(ctx, uid)
}

func (p *Provider) signToken(uid, email string, emailVerified bool, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":            uid,
		"email":          email,
		"email_verified": emailVerified,
		"typ":            tokenType,
		"iat":            now.Unix(),
		"exp":            now.Add(ttl).Unix(),
	}

	tokenObj := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tokenObj.SignedString([]byte(p.opts.Secret))
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

func (p *Provider) parseToken(token, wantType string) (jwt.MapClaims, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(p.opts.Secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if typ, _ := claims["typ"].(string); typ != wantType {
		return nil, fmt.Errorf("unexpected token type %q", typ)
	}
	return claims, nil
}
