package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/agrirelief/internal/middleware"
	"github.com/iliyamo/agrirelief/internal/model"
	"github.com/iliyamo/agrirelief/internal/service"
)

// OfficialHandler serves the review endpoints for agriculture officials.
type OfficialHandler struct {
	Reports *service.ReportService
}

// NewOfficialHandler constructs an OfficialHandler and panics if the service is nil.
func NewOfficialHandler(svc *service.ReportService) *OfficialHandler {
	if svc == nil {
		panic("nil service passed to NewOfficialHandler")
	}
	return &OfficialHandler{Reports: svc}
}

// Dashboard handles GET /v1/dashboard/reports. It lists every report,
// newest first, regardless of the public visibility policy, with counts
// per status for the dashboard header.
func (h *OfficialHandler) Dashboard(c echo.Context) error {
	reports, err := h.Reports.Dashboard(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	pending := 0
	for i := range reports {
		if reports[i].Status == model.StatusPending {
			pending++
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":    reports,
		"count":    len(reports),
		"pending":  pending,
		"verified": len(reports) - pending,
	})
}

// Verify handles POST /v1/reports/:id/verify. Verifying an already
// verified report returns 200 with the unchanged report.
func (h *OfficialHandler) Verify(c echo.Context) error {
	rep, noop, err := h.Reports.Verify(c.Request().Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"report": rep, "already_verified": noop})
}
