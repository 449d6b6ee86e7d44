package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/agrirelief/internal/handler"
	"github.com/iliyamo/agrirelief/internal/middleware"
	"github.com/iliyamo/agrirelief/internal/model"
)

// Handlers bundles the HTTP handlers the API exposes.
type Handlers struct {
	Reports  *handler.ReportHandler
	Official *handler.OfficialHandler
	Profiles *handler.ProfileHandler
	Contacts *handler.ContactHandler
	Ready    echo.HandlerFunc
}

// Limiter is implemented by middleware.RateLimiter.
type Limiter interface {
	Limit(scope string, capacity int) echo.MiddlewareFunc
}

// Options carries the middleware shared by the route groups. The limiter
// always runs after token parsing so per-user buckets see the subject.
type Options struct {
	JWTSecret      string
	Identity       middleware.PrincipalResolver
	Cache          *middleware.ResponseCache
	Limiter        Limiter
	Capacity       int
	SubmitCapacity int
	// UploadDir is served at /uploads when images are stored on local disk.
	UploadDir string
}

// RegisterRoutes registers routes that do not require authentication or
// rate limiting: liveness, readiness and locally stored images.
func RegisterRoutes(e *echo.Echo, h Handlers, o Options) {
	e.GET("/healthz", handler.Health)
	if h.Ready != nil {
		e.GET("/readyz", h.Ready)
	}
	if o.UploadDir != "" {
		e.Static("/uploads", o.UploadDir)
	}
}

// RegisterPublic registers the browse endpoints. A bearer token is
// optional: when present it identifies the viewer, which matters only
// under HIDE_UNVERIFIED (owners and officials still see Pending reports).
// Anonymous responses are cached in Redis.
func RegisterPublic(e *echo.Echo, h Handlers, o Options) {
	g := e.Group("/v1")
	g.Use(middleware.OptionalJWT(o.JWTSecret))
	g.Use(o.Limiter.Limit("read", o.Capacity))
	g.Use(o.Cache.Middleware())

	g.GET("/meta/vocabulary", handler.Vocabulary)
	g.GET("/reports", h.Reports.ListPublic)
	g.GET("/reports/:id", h.Reports.Get)
	g.GET("/map", h.Reports.Map)
	g.GET("/contacts", h.Contacts.List)
	g.GET("/contacts/:division_id", h.Contacts.Get)
}

// RegisterAccount registers signup and profile routes. Signup needs a
// valid token but, by definition, no profile yet.
func RegisterAccount(e *echo.Echo, h Handlers, o Options) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(o.JWTSecret))
	g.Use(o.Limiter.Limit("account", o.Capacity))

	g.POST("/profile", h.Profiles.Signup)
	g.GET("/me", h.Profiles.Me)
}

// RegisterFarmer registers the report submission and ownership routes.
// The principal middleware gives a fast 401/403; the service repeats the
// check against the profile store.
func RegisterFarmer(e *echo.Echo, h Handlers, o Options) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(o.JWTSecret))
	g.Use(middleware.ResolvePrincipal(o.Identity))
	g.Use(middleware.RequireRole(model.RoleFarmer))

	g.POST("/reports", h.Reports.Submit, o.Limiter.Limit("submit", o.SubmitCapacity))
	g.GET("/my-reports", h.Reports.ListMine, o.Limiter.Limit("farmer", o.Capacity))
	g.DELETE("/reports/:id", h.Reports.Delete, o.Limiter.Limit("farmer", o.Capacity))
}

// RegisterOfficial registers the review routes for agriculture officials.
func RegisterOfficial(e *echo.Echo, h Handlers, o Options) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(o.JWTSecret))
	g.Use(o.Limiter.Limit("official", o.Capacity))
	g.Use(middleware.ResolvePrincipal(o.Identity))
	g.Use(middleware.RequireRole(model.RoleOfficial))

	g.GET("/dashboard/reports", h.Official.Dashboard)
	g.POST("/reports/:id/verify", h.Official.Verify)
}

// Register wires every route group onto e.
func Register(e *echo.Echo, h Handlers, o Options) {
	RegisterRoutes(e, h, o)
	RegisterPublic(e, h, o)
	RegisterAccount(e, h, o)
	RegisterFarmer(e, h, o)
	RegisterOfficial(e, h, o)
}
