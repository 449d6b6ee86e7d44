package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/agrirelief/internal/config"
	"github.com/iliyamo/agrirelief/internal/identity"
	"github.com/iliyamo/agrirelief/internal/model"
	"github.com/iliyamo/agrirelief/internal/utils"
)

const testSecret = "test-secret"

func mustToken(t *testing.T, secret, uid string, ttl time.Duration) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, uid, ttl)
	if err != nil {
		t.Fatal(err)
	}
	return tok.Token
}

// run executes mw in front of a handler that echoes the subject and role.
func run(t *testing.T, mw []echo.MiddlewareFunc, authz string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	h := func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"uid": UserID(c), "role": Role(c)})
	}
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	if err := h(c); err != nil {
		t.Fatal(err)
	}
	return rec
}

func TestJWTAuth(t *testing.T) {
	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1"}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name   string
		authz  string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + mustToken(t, "other", "u1", time.Hour), http.StatusUnauthorized},
		{"expired", "Bearer " + mustToken(t, testSecret, "u1", -time.Minute), http.StatusUnauthorized},
		{"no exp", "Bearer " + noExp, http.StatusUnauthorized},
		{"valid", "Bearer " + mustToken(t, testSecret, "u1", time.Hour), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := run(t, []echo.MiddlewareFunc{JWTAuth(testSecret)}, tt.authz)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}

func TestOptionalJWT(t *testing.T) {
	rec := run(t, []echo.MiddlewareFunc{OptionalJWT(testSecret)}, "Bearer junk")
	if rec.Code != http.StatusOK || rec.Body.String() != "{\"role\":\"\",\"uid\":\"\"}\n" {
		t.Fatalf("anonymous: %d %s", rec.Code, rec.Body.String())
	}
	rec = run(t, []echo.MiddlewareFunc{OptionalJWT(testSecret)}, "Bearer "+mustToken(t, testSecret, "u1", time.Hour))
	if rec.Body.String() != "{\"role\":\"\",\"uid\":\"u1\"}\n" {
		t.Fatalf("authenticated: %s", rec.Body.String())
	}
}

type fakeResolver struct {
	roles map[string]model.Role
	err   error
}

func (f fakeResolver) Resolve(_ context.Context, uid string) (identity.Principal, error) {
	if f.err != nil {
		return identity.Principal{}, f.err
	}
	r, ok := f.roles[uid]
	if !ok {
		return identity.Principal{}, identity.ErrUnauthenticated
	}
	return identity.Principal{UID: uid, Role: r}, nil
}

func TestResolvePrincipalAndRequireRole(t *testing.T) {
	res := fakeResolver{roles: map[string]model.Role{"farmer-1": model.RoleFarmer, "official-1": model.RoleOfficial}}
	chain := []echo.MiddlewareFunc{JWTAuth(testSecret), ResolvePrincipal(res), RequireRole(model.RoleOfficial)}
	tests := []struct {
		name   string
		uid    string
		status int
	}{
		{"official", "official-1", http.StatusOK},
		{"farmer", "farmer-1", http.StatusForbidden},
		{"no profile", "ghost", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := run(t, chain, "Bearer "+mustToken(t, testSecret, tt.uid, time.Hour))
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestRoleClaimIsIgnored(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "farmer-1",
		"role": "official",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatal(err)
	}
	res := fakeResolver{roles: map[string]model.Role{"farmer-1": model.RoleFarmer}}
	rec := run(t, []echo.MiddlewareFunc{JWTAuth(testSecret), ResolvePrincipal(res), RequireRole(model.RoleOfficial)}, "Bearer "+tok)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestResolvePrincipal_StoreDown(t *testing.T) {
	res := fakeResolver{err: errors.New("connection refused")}
	rec := run(t, []echo.MiddlewareFunc{JWTAuth(testSecret), ResolvePrincipal(res)}, "Bearer "+mustToken(t, testSecret, "u1", time.Hour))
	if rec.Code != http.StatusServiceUnavailable || rec.Header().Get("Retry-After") == "" {
		t.Fatalf("status = %d, Retry-After = %q", rec.Code, rec.Header().Get("Retry-After"))
	}
}

func TestRequireRole_WithoutPrincipal(t *testing.T) {
	rec := run(t, []echo.MiddlewareFunc{RequireRole(model.RoleFarmer)}, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/reports", nil)
	req.RemoteAddr = "10.0.0.7:5555"
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/reports")
	c.Set(CtxUserID, "u1")

	tests := []struct {
		strategy string
		want     string
	}{
		{"ip", "rl:submit:ip:10.0.0.7"},
		{"user", "rl:submit:user:u1"},
		{"ip_user", "rl:submit:ip:10.0.0.7:user:u1"},
		{"", "rl:submit:ip:10.0.0.7:user:u1:route:POST /v1/reports"},
	}
	for _, tt := range tests {
		cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: tt.strategy}
		if got := buildRateKey(cfg, "submit", c); got != tt.want {
			t.Errorf("strategy %q: key = %q, want %q", tt.strategy, got, tt.want)
		}
	}
}

func TestWithoutRedisMiddlewarePassesThrough(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil)
	cache := NewResponseCache(config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}}, nil)
	for i := 0; i < 3; i++ {
		rec := run(t, []echo.MiddlewareFunc{limiter.Limit("read", 1), cache.Middleware()}, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i, rec.Code)
		}
		if rec.Header().Get("X-Cache") != "" {
			t.Fatalf("cache should be bypassed without redis")
		}
	}
	if err := cache.Purge(context.Background()); err != nil {
		t.Fatalf("purge without redis: %v", err)
	}
}

func TestCachePayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"items":[]}`))
	if err != nil {
		t.Fatal(err)
	}
	status, gotHdr, body, ok := decodePayload(bs)
	if !ok || status != http.StatusOK || gotHdr.Get("Content-Type") != "application/json" || string(body) != `{"items":[]}` {
		t.Fatalf("decoded %d %v %q %v", status, gotHdr, body, ok)
	}
	if _, _, _, ok := decodePayload([]byte{1, 2}); ok {
		t.Fatal("short payload decoded")
	}
}

func TestCacheableHeaderDropsPerRequestHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	h := rec.Header()
	h.Set("Content-Type", "application/json")
	h.Set("X-RateLimit-Limit", "60")
	h.Set("X-RateLimit-Remaining", "59")
	h.Set("Retry-After", "1")
	h.Set("X-Cache", "MISS")
	h.Set("Content-Length", "12")

	got := cacheableHeader(h)
	if got.Get("Content-Type") != "application/json" {
		t.Errorf("content type dropped: %v", got)
	}
	for _, k := range []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After", "X-Cache", "Content-Length"} {
		if _, ok := got[http.CanonicalHeaderKey(k)]; ok {
			t.Errorf("%s should not be cached", k)
		}
	}
	got.Set("Content-Type", "text/plain")
	if h.Get("Content-Type") != "application/json" {
		t.Error("cacheableHeader must copy, not alias")
	}
}
