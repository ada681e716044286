// Package authx issues and verifies the bearer credentials used by the
// order API and the real-time channel. Tokens are HS256-signed with a
// shared secret and carry subject and expiry.
package authx

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"food-delivery-system/internal/apperrors"
)

// Claims is the verified content of a bearer credential.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

// Expired reports whether the credential expiry has passed at now.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// Sign mints an HS256 token for subject, valid for ttl.
func Sign(secret, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	return tok.SignedString([]byte(secret))
}

// Verifier checks bearer credentials against the shared secret.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{"HS256"})),
	}
}

// Verify parses and validates raw, returning its claims. Any failure,
// including expiry, comes back as apperrors.ErrAuth.
func (v *Verifier) Verify(raw string) (Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Claims{}, apperrors.Authf("empty token")
	}

	claims := jwt.RegisteredClaims{}
	_, err := v.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return Claims{}, apperrors.Authf("invalid token: %v", err)
	}
	if claims.Subject == "" {
		return Claims{}, apperrors.Authf("missing subject")
	}

	out := Claims{Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

// PeekExpiry extracts the exp claim without verifying the signature.
// Clients use it to schedule their own expiry polling; it must never be
// used for authorization decisions.
func PeekExpiry(raw string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(raw, &claims)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

type contextKey struct{}

// WithClaims attaches verified claims to ctx.
func WithClaims(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// FromContext returns the claims attached by the middleware, if any.
func FromContext(ctx context.Context) (Claims, bool) {
	if v := ctx.Value(contextKey{}); v != nil {
		if c, ok := v.(Claims); ok {
			return c, true
		}
	}
	return Claims{}, false
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):]
	}
	return ""
}
