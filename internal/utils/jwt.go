package utils // package utils provides helpers shared by the command line tools and tests

import (
	"errors" // errors reports invalid arguments
	"time"   // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// AccessToken represents a signed JWT along with its expiry.  In
// production tokens are issued by the external identity provider; this
// helper mints equivalent HS256 tokens for local development and tests.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT whose subject is the
// identity provider uid.  The API trusts only sub and exp: roles are read
// from the stored profile, so no role claim is added.
func NewAccessToken(secret, uid string, ttl time.Duration) (AccessToken, error) {
	if secret == "" || uid == "" {
		return AccessToken{}, errors.New("utils: secret and uid are required")
	}
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.RegisteredClaims{
		Subject:   uid,
		ExpiresAt: jwt.NewNumericDate(exp),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}
