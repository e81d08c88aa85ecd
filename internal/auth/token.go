package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformedToken indicates the token is not a parseable compact JWT.
	ErrMalformedToken = errors.New("malformed token")
	// ErrInvalidSignature indicates the token signature does not verify.
	ErrInvalidSignature = errors.New("invalid token signature")
)

// Claims is the signed payload of an issued token. The subject is the
// username of the authenticated user; nothing from the credential record
// beyond the identity is ever embedded.
type Claims struct {
	jwt.RegisteredClaims
}

// ExpiresAfter reports whether the token expiry is strictly later than now.
// Decode does not enforce expiry, so every caller runs this check itself.
func (c *Claims) ExpiresAfter(now time.Time) bool {
	return c.ExpiresAt != nil && c.ExpiresAt.After(now)
}

// Codec signs and verifies HS256 bearer tokens with a process-wide secret.
type Codec struct {
	secret []byte
	ttl    time.Duration
	parser *jwt.Parser
}

// NewCodec builds a codec for the given secret and token lifetime.
func NewCodec(secret string, ttl time.Duration) *Codec {
	return &Codec{
		secret: []byte(secret),
		ttl:    ttl,
		// Expiry is deliberately not validated here: the login handler
		// needs to tell an expired-but-well-formed token apart from an
		// invalid one, so staleness is checked by callers.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}
}

// Encode issues a signed token with subject set to the given username.
func (c *Codec) Encode(username string) (string, error) {
	if len(c.secret) == 0 {
		return "", errors.New("token secret is empty")
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	})

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Decode parses the token and verifies its signature. It succeeds for
// expired tokens; compare Claims.ExpiresAt against the clock explicitly.
func (c *Codec) Decode(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := c.parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, ErrMalformedToken
		}
		return nil, ErrInvalidSignature
	}
	return claims, nil
}
