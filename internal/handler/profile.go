package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/agrirelief/internal/identity"
	"github.com/iliyamo/agrirelief/internal/middleware"
	"github.com/iliyamo/agrirelief/internal/model"
)

// ProfileHandler serves signup and the current user's profile.
type ProfileHandler struct {
	Identity *identity.Resolver
}

// NewProfileHandler constructs a ProfileHandler and panics if the resolver is nil.
func NewProfileHandler(res *identity.Resolver) *ProfileHandler {
	if res == nil {
		panic("nil resolver passed to NewProfileHandler")
	}
	return &ProfileHandler{Identity: res}
}

type signupRequest struct {
	Role         model.Role `json:"role"`
	Name         string     `json:"name"`
	Phone        string     `json:"phone"`
	HomeDistrict string     `json:"home_district"`
	NIC          string     `json:"nic"`
	Email        string     `json:"email"`
}

// Signup handles POST /v1/profile. The caller has authenticated with the
// identity provider but has no profile yet; the profile is keyed by the
// token subject and cannot be changed afterwards.
func (h *ProfileHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid json"})
	}
	p := &model.UserProfile{
		Role:         req.Role,
		Name:         req.Name,
		Phone:        req.Phone,
		HomeDistrict: req.HomeDistrict,
		NIC:          req.NIC,
		Email:        req.Email,
	}
	if err := h.Identity.Register(c.Request().Context(), middleware.UserID(c), p); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

// Me handles GET /v1/me.
func (h *ProfileHandler) Me(c echo.Context) error {
	p, err := h.Identity.Profile(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}
