package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Context keys shared by the middleware chain and the handlers.
const (
	CtxUserID    = "user_id"
	CtxRole      = "role"
	CtxPrincipal = "principal"
)

var errNoBearer = errors.New("missing bearer token")

// parseSubject validates the bearer token of the request and returns its
// subject. Tokens are issued by the identity provider and signed with the
// shared HMAC secret; only the subject is trusted, any role claim is
// ignored because roles live on the stored profile.
func parseSubject(c echo.Context, secret string) (string, error) {
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", errNoBearer
	}
	raw := strings.TrimPrefix(auth, "Bearer ")

	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return "", errors.New("invalid token")
	}
	sub, err := tok.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", errors.New("invalid claims")
	}
	return sub, nil
}

// JWTAuth rejects requests without a valid bearer token and stores the
// token subject under "user_id". Handlers read it with UserID.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sub, err := parseSubject(c, secret)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
			}
			c.Set(CtxUserID, sub)
			return next(c)
		}
	}
}

// OptionalJWT stores the subject when a valid token is present and lets
// the request through anonymously otherwise. It is used on the public
// read routes, where the caller only matters for the visibility policy.
func OptionalJWT(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if sub, err := parseSubject(c, secret); err == nil {
				c.Set(CtxUserID, sub)
			}
			return next(c)
		}
	}
}
