// Package claims maps signed JWTs to sentinel principals.
package claims

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/officegrid/sentinel/principal"
	"github.com/officegrid/sentinel/scope"
)

// ErrInvalidToken indicates the token failed signature or claim validation.
var ErrInvalidToken = errors.New("claims: invalid token")

// Claims is the JWT payload carried by platform access tokens. The subject
// is the principal ID.
type Claims struct {
	OfficeID string            `json:"office_id,omitempty"`
	Role     string            `json:"role"`
	Granted  []string          `json:"granted,omitempty"`
	Banned   []string          `json:"banned,omitempty"`
	Scope    *scope.AdminScope `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// Verifier signs and verifies access tokens with an HS256 secret.
type Verifier struct {
	secret []byte
	issuer string
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

// WithIssuer sets the expected token issuer. Defaults to "officegrid".
func WithIssuer(issuer string) VerifierOption {
	return func(v *Verifier) { v.issuer = issuer }
}

// NewVerifier creates a verifier for the given signing secret.
func NewVerifier(secret []byte, opts ...VerifierOption) (*Verifier, error) {
	if len(secret) == 0 {
		return nil, errors.New("claims: signing secret is required")
	}
	v := &Verifier{secret: secret, issuer: "officegrid"}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Issue signs a token for the given principal.
func (v *Verifier) Issue(p *principal.Principal, ttl time.Duration) (string, error) {
	if p == nil || p.ID == "" {
		return "", errors.New("claims: principal with ID is required")
	}
	if ttl <= 0 {
		return "", errors.New("claims: ttl must be greater than zero")
	}

	now := time.Now().UTC()
	c := Claims{
		OfficeID: p.OfficeID,
		Role:     string(p.Role),
		Granted:  p.Granted,
		Banned:   p.Banned,
		Scope:    p.Scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    v.issuer,
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("claims: sign token: %w", err)
	}
	return signed, nil
}

// Verify validates a raw token and returns the principal it describes.
//
// The role claim is normalized case-insensitively. An unrecognized role is
// kept verbatim rather than rejected; downstream it matches no required
// role and resolves to an empty permission set.
func (v *Verifier) Verify(raw string) (*principal.Principal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	}, jwt.WithIssuer(v.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, ErrInvalidToken
	}

	c, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(c.Subject) == "" {
		return nil, ErrInvalidToken
	}

	role := principal.Role(c.Role)
	if normalized, ok := principal.ParseRole(c.Role); ok {
		role = normalized
	}

	return &principal.Principal{
		ID:       c.Subject,
		OfficeID: c.OfficeID,
		Role:     role,
		Granted:  c.Granted,
		Banned:   c.Banned,
		Scope:    c.Scope,
	}, nil
}
