package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/agrirelief/internal/model"
)

// ContactStore is implemented by repository.ContactRepo and
// repository.MemoryContactRepo.
type ContactStore interface {
	GetByDivision(ctx context.Context, divisionID string) (*model.DepartmentContact, error)
	List(ctx context.Context) ([]model.DepartmentContact, error)
}

// ContactHandler serves the department contact directory.
type ContactHandler struct {
	Contacts ContactStore
}

// NewContactHandler constructs a ContactHandler and panics if the store is nil.
func NewContactHandler(store ContactStore) *ContactHandler {
	if store == nil {
		panic("nil store passed to NewContactHandler")
	}
	return &ContactHandler{Contacts: store}
}

// Get handles GET /v1/contacts/:division_id. Division ids are matched
// case-insensitively.
func (h *ContactHandler) Get(c echo.Context) error {
	id := strings.ToLower(strings.TrimSpace(c.Param("division_id")))
	contact, err := h.Contacts.GetByDivision(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, contact)
}

// List handles GET /v1/contacts.
func (h *ContactHandler) List(c echo.Context) error {
	contacts, err := h.Contacts.List(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": contacts, "count": len(contacts)})
}
