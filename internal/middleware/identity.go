package middleware

// identity.go resolves the authenticated subject to its stored profile so
// that role checks never depend on what the client put into its token.

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/agrirelief/internal/identity"
	"github.com/iliyamo/agrirelief/internal/model"
)

// PrincipalResolver is implemented by identity.Resolver.
type PrincipalResolver interface {
	Resolve(ctx context.Context, uid string) (identity.Principal, error)
}

// UserID returns the token subject stored by JWTAuth or OptionalJWT, or
// "" for anonymous requests.
func UserID(c echo.Context) string {
	if s, ok := c.Get(CtxUserID).(string); ok {
		return s
	}
	return ""
}

// Role returns the role resolved by ResolvePrincipal.
func Role(c echo.Context) model.Role {
	r, _ := c.Get(CtxRole).(model.Role)
	return r
}

// ResolvePrincipal looks up the profile of the token subject and stores
// the principal and its role in the context. A subject without a profile
// is answered with 401; a failing profile store with 503.
func ResolvePrincipal(res PrincipalResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, err := res.Resolve(c.Request().Context(), UserID(c))
			if errors.Is(err, identity.ErrUnauthenticated) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "profile required"})
			}
			if err != nil {
				c.Response().Header().Set("Retry-After", "1")
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "identity lookup unavailable"})
			}
			c.Set(CtxPrincipal, p)
			c.Set(CtxRole, p.Role)
			return next(c)
		}
	}
}
