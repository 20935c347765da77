// Package tokenstore persists the admin bearer token between runs.
package tokenstore

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/softseven/studio-admin/internal/errs"
)

// DefaultKey is the fixed storage key of the admin token.
const DefaultKey = "auth_token"

// Token is a stored bearer token.
type Token struct {
	Value     string     `json:"access_token"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"` // nil for opaque (non-JWT) tokens
}

// Expired reports whether the token carries an expiry that has passed.
func (t Token) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && !now.Before(*t.ExpiresAt)
}

// Store is durable token storage. Load returns errs.ErrNoToken when nothing usable is stored.
type Store interface {
	Load(ctx context.Context) (Token, error)
	Save(ctx context.Context, tok Token) error
	Clear(ctx context.Context) error
}

// New builds a Token from a raw value, reading exp when the value is a JWT.
// Opaque tokens (e.g. Sanctum "12|abc...") get no expiry.
func New(raw string) Token {
	tok := Token{Value: raw}
	var claims jwt.RegisteredClaims
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(raw, &claims); err == nil && claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.Time
		tok.ExpiresAt = &exp
	}
	return tok
}

// Source adapts a Store to the HTTP client's TokenSource.
type Source struct{ Store Store }

// Token returns the stored token value or errs.ErrNoToken.
func (s Source) Token(ctx context.Context) (string, error) {
	tok, err := s.Store.Load(ctx)
	if err != nil {
		return "", err
	}
	if tok.Value == "" {
		return "", errs.ErrNoToken
	}
	return tok.Value, nil
}
