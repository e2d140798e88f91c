// Package token issues and verifies the signed, expiring bearer tokens that
// carry a user id between requests. Tokens are HS512 JWTs; nothing is stored
// server side and invalidation is purely time based.
package token

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformed is returned when a token cannot be parsed or its claims are unusable.
	ErrMalformed = errors.New("token malformed")

	// ErrSignature is returned when a token's signature does not match its contents.
	ErrSignature = errors.New("token signature invalid")

	// ErrExpired is returned when a token is past its expiration time.
	ErrExpired = errors.New("token expired")
)

var signingMethod = jwt.SigningMethodHS512

// Issued is a freshly signed token along with the instants it embeds.
type Issued struct {
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Codec signs and verifies tokens with a shared secret. It is safe for
// concurrent use; the secret and TTL never change after construction.
type Codec struct {
	secret []byte
	ttl    time.Duration
}

// NewCodec returns a Codec for the given secret and token lifetime.
func NewCodec(secret []byte, ttl time.Duration) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("token secret must not be empty")
	}
	if ttl < time.Second {
		return nil, fmt.Errorf("token ttl must be at least 1s, got %s", ttl)
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &Codec{secret: key, ttl: ttl}, nil
}

// TTL returns the configured token lifetime.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a token for identityID valid from now until now+TTL.
func (c *Codec) Issue(identityID int64, now time.Time) (Issued, error) {
	// JWT numeric dates carry whole seconds.
	issuedAt := now.Truncate(time.Second)
	expiresAt := issuedAt.Add(c.ttl)

	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(identityID, 10),
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(c.secret)
	if err != nil {
		return Issued{}, fmt.Errorf("signing token: %w", err)
	}

	return Issued{Token: signed, IssuedAt: issuedAt, ExpiresAt: expiresAt}, nil
}

// Verify checks tokenString and returns the identity id it was issued for.
// The error, when non-nil, wraps exactly one of ErrMalformed, ErrSignature
// or ErrExpired.
func (c *Codec) Verify(tokenString string, now time.Time) (int64, error) {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return 0, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformed, len(parts))
	}

	// The HMAC covers the raw header and payload bytes, so any edit to them is
	// caught here before a single claim is decoded.
	sig, err := base64.RawURLEncoding.Strict().DecodeString(parts[2])
	if err != nil {
		return 0, fmt.Errorf("%w: decoding signature: %v", ErrSignature, err)
	}
	if err := signingMethod.Verify(parts[0]+"."+parts[1], sig, c.secret); err != nil {
		return 0, ErrSignature
	}

	claims := &jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return 0, ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return 0, ErrSignature
	default:
		return 0, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid subject %q", ErrMalformed, claims.Subject)
	}
	return id, nil
}
