package handler

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/agrirelief/internal/aidmap"
	"github.com/iliyamo/agrirelief/internal/middleware"
	"github.com/iliyamo/agrirelief/internal/model"
	"github.com/iliyamo/agrirelief/internal/service"
)

// ReportHandler serves the farmer and public report endpoints.
type ReportHandler struct {
	Reports *service.ReportService
}

// NewReportHandler constructs a ReportHandler and panics if the service is nil.
func NewReportHandler(svc *service.ReportService) *ReportHandler {
	if svc == nil {
		panic("nil service passed to NewReportHandler")
	}
	return &ReportHandler{Reports: svc}
}

// Submit handles POST /v1/reports.
//
// The body is either a JSON report, or a multipart form with the report
// as JSON in the "report" field and up to MAX_IMAGES files in "images".
// Lifecycle fields in the body (report_id, status, is_verified,
// created_at, farmer_id) are ignored. An Idempotency-Key header makes
// retries safe: a replay returns 200 with the first report instead of
// 201.
func (h *ReportHandler) Submit(c echo.Context) error {
	var sub service.Submission
	sub.IdempotencyKey = c.Request().Header.Get("Idempotency-Key")

	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid multipart form"})
		}
		raw := form.Value["report"]
		if len(raw) == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing report field"})
		}
		if err := json.Unmarshal([]byte(raw[0]), &sub.Report); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid report json"})
		}
		for _, fh := range form.File["images"] {
			sub.Images = append(sub.Images, imageFromFile(fh))
		}
	} else if err := json.NewDecoder(c.Request().Body).Decode(&sub.Report); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid json"})
	}

	rep, replayed, err := h.Reports.Submit(c.Request().Context(), middleware.UserID(c), sub)
	if err != nil {
		return respondError(c, err)
	}
	if replayed {
		c.Response().Header().Set("Idempotent-Replayed", "true")
		return c.JSON(http.StatusOK, rep)
	}
	c.Response().Header().Set(echo.HeaderLocation, "/v1/reports/"+rep.ReportID)
	return c.JSON(http.StatusCreated, rep)
}

func imageFromFile(fh *multipart.FileHeader) service.ImageUpload {
	ct := fh.Header.Get(echo.HeaderContentType)
	if ct == "" || ct == echo.MIMEOctetStream {
		ct = sniffContentType(fh)
	}
	return service.ImageUpload{
		Name:        fh.Filename,
		ContentType: ct,
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			f, err := fh.Open()
			if err != nil {
				return nil, err
			}
			return f, nil
		},
	}
}

// sniffContentType detects the type of a part sent without a usable
// Content-Type from its first 512 bytes.
func sniffContentType(fh *multipart.FileHeader) string {
	f, err := fh.Open()
	if err != nil {
		return ""
	}
	defer f.Close()
	head := make([]byte, 512)
	n, _ := io.ReadFull(f, head)
	if n == 0 {
		return ""
	}
	return http.DetectContentType(head[:n])
}

// ListMine handles GET /v1/my-reports.
func (h *ReportHandler) ListMine(c echo.Context) error {
	reports, err := h.Reports.ListMine(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": reports, "count": len(reports)})
}

// Delete handles DELETE /v1/reports/:id.
func (h *ReportHandler) Delete(c echo.Context) error {
	if err := h.Reports.Delete(c.Request().Context(), middleware.UserID(c), c.Param("id")); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Get handles GET /v1/reports/:id.
func (h *ReportHandler) Get(c echo.Context) error {
	rep, err := h.Reports.Get(c.Request().Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, rep)
}

// ListPublic handles GET /v1/reports, newest first. The optional need
// query parameter applies the same filter as the map.
func (h *ReportHandler) ListPublic(c echo.Context) error {
	need, err := aidmap.ParseNeed(c.QueryParam("need"))
	if err != nil {
		return respondError(c, err)
	}
	reports, err := h.Reports.ListPublic(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	reports = aidmap.FilterByNeed(reports, need)
	return c.JSON(http.StatusOK, echo.Map{"items": reports, "count": len(reports)})
}

// mapResponse adds the default viewport to the map view.
type mapResponse struct {
	aidmap.View
	Center interface{} `json:"center"`
}

// Map handles GET /v1/map?need=<token|All>. With format=geojson only the
// FeatureCollection is returned, for GIS clients.
func (h *ReportHandler) Map(c echo.Context) error {
	view, err := h.Reports.Map(c.Request().Context(), middleware.UserID(c), c.QueryParam("need"))
	if err != nil {
		return respondError(c, err)
	}
	if c.QueryParam("format") == "geojson" {
		b, err := json.Marshal(view.Features)
		if err != nil {
			return respondError(c, err)
		}
		return c.Blob(http.StatusOK, "application/geo+json", b)
	}
	return c.JSON(http.StatusOK, mapResponse{View: view, Center: aidmap.Center})
}

// Vocabulary handles GET /v1/meta/vocabulary: the option lists a report
// form is built from.
func Vocabulary(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"provinces":           model.Provinces,
		"districts":           model.DistrictsByProvince,
		"cultivation_natures": model.CultivationTypes,
		"damage_types":        model.DamageTypes,
		"severity_levels":     model.SeverityLevels,
		"needs":               model.NeedsVocabulary,
		"land_units":          model.LandUnits,
		"default_land_unit":   model.DefaultLandUnit,
	})
}
