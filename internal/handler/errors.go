package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/agrirelief/internal/identity"
	"github.com/iliyamo/agrirelief/internal/model"
	"github.com/iliyamo/agrirelief/internal/repository"
)

// retryAfterSeconds is advertised on 503 responses caused by store
// timeouts or outages.
const retryAfterSeconds = "2"

// respondError translates service and repository errors into the API's
// JSON error shape. Unknown errors are logged and reported as 500 without
// details.
func respondError(c echo.Context, err error) error {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": ve.Fields})
	case errors.Is(err, identity.ErrUnauthenticated):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "profile required"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, repository.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": "report is no longer pending"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case repository.IsRetryable(err):
		log.Printf("handler: %s %s: %v", c.Request().Method, c.Path(), err)
		c.Response().Header().Set("Retry-After", retryAfterSeconds)
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "storage temporarily unavailable"})
	default:
		log.Printf("handler: %s %s: %v", c.Request().Method, c.Path(), err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
