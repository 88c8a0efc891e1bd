package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movieweb/internal/config"
	"github.com/iliyamo/movieweb/internal/utils"
)

const secret = "test-secret"

func bearer(t *testing.T, userID uint64, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, userID, role, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func newProtectedEcho() *echo.Echo {
	e := echo.New()
	g := e.Group("/api", JWTAuth(secret))
	g.GET("/whoami", func(c echo.Context) error {
		id, ok := UserID(c)
		return c.JSON(http.StatusOK, echo.Map{"id": id, "ok": ok, "role": Role(c)})
	})
	g.POST("/users", func(c echo.Context) error { return c.NoContent(http.StatusCreated) }, RequireRole(RoleAdmin))
	g.GET("/users/:id/movies", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, RequireSelf("id"))
	return e
}

func do(e *echo.Echo, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// ---------------------------------------------------------------------------
// JWTAuth
// ---------------------------------------------------------------------------

func TestJWTAuth(t *testing.T) {
	e := newProtectedEcho()

	rec := do(e, http.MethodGet, "/api/whoami", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(e, http.MethodGet, "/api/whoami", "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(e, http.MethodGet, "/api/whoami", bearer(t, 3, RoleUser))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id": 3, "ok": true, "role": "user"}`, rec.Body.String())
}

func TestJWTAuth_RejectsWrongSecretAndExpired(t *testing.T) {
	e := newProtectedEcho()

	other, err := utils.NewAccessToken("other-secret", 1, RoleAdmin, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/api/whoami", "Bearer "+other.Token).Code)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": 1, "role": RoleAdmin, "exp": time.Now().Add(-time.Minute).Unix(),
	})
	raw, err := expired.SignedString([]byte(secret))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/api/whoami", "Bearer "+raw).Code)

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": 1, "role": RoleAdmin})
	raw, err = noExp.SignedString([]byte(secret))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/api/whoami", "Bearer "+raw).Code)
}

func TestJWTAuth_RejectsOtherAlgorithms(t *testing.T) {
	e := newProtectedEcho()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"sub": 1, "role": RoleAdmin, "exp": time.Now().Add(time.Hour).Unix(),
	})
	raw, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/api/whoami", "Bearer "+raw).Code)
}

// ---------------------------------------------------------------------------
// RequireRole / RequireSelf
// ---------------------------------------------------------------------------

func TestRequireRole(t *testing.T) {
	e := newProtectedEcho()
	assert.Equal(t, http.StatusForbidden, do(e, http.MethodPost, "/api/users", bearer(t, 1, RoleUser)).Code)
	assert.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/api/users", bearer(t, 1, RoleAdmin)).Code)
}

func TestRequireSelf(t *testing.T) {
	e := newProtectedEcho()
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/api/users/4/movies", bearer(t, 4, RoleUser)).Code)
	assert.Equal(t, http.StatusForbidden, do(e, http.MethodGet, "/api/users/5/movies", bearer(t, 4, RoleUser)).Code)
	assert.Equal(t, http.StatusForbidden, do(e, http.MethodGet, "/api/users/abc/movies", bearer(t, 4, RoleUser)).Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/api/users/5/movies", bearer(t, 1, RoleAdmin)).Code)
}

func TestUserID_ClaimShapes(t *testing.T) {
	e := echo.New()
	tests := []struct {
		in   interface{}
		want uint64
		ok   bool
	}{
		{float64(12), 12, true},
		{float64(1.5), 1, false},
		{"42", 42, true},
		{"x", 0, false},
		{uint64(9), 9, true},
		{nil, 0, false},
	}
	for _, tc := range tests {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		c.Set(ctxUserID, tc.in)
		got, ok := UserID(c)
		assert.Equal(t, tc.ok, ok, "%v", tc.in)
		if tc.ok {
			assert.Equal(t, tc.want, got)
		}
	}
}

// ---------------------------------------------------------------------------
// Rate limiting
// ---------------------------------------------------------------------------

func newLimitedEcho(t *testing.T, cfg config.RateLimitConfig, rdb *redis.Client) *echo.Echo {
	t.Helper()
	logger, _ := test.NewNullLogger()
	e := echo.New()
	e.Use(NewTokenBucket(cfg, rdb, logger))
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })
	return e
}

func rateCfg() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Hour,
		TTL:            5 * time.Hour,
		KeyStrategy:    "ip",
		Prefix:         "rl",
	}
}

func TestTokenBucket_BlocksAfterCapacity(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	e := newLimitedEcho(t, rateCfg(), rdb)

	for i := 0; i < 2; i++ {
		rec := do(e, http.MethodGet, "/ping", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}
	rec := do(e, http.MethodGet, "/ping", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.True(t, mr.Exists("rl:ip:192.0.2.1"))
}

func TestTokenBucket_PassThrough(t *testing.T) {
	e := newLimitedEcho(t, rateCfg(), nil)
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/ping", "").Code)
	}

	cfg := rateCfg()
	cfg.Enabled = false
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	e = newLimitedEcho(t, cfg, rdb)
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/ping", "").Code)
	}
}

func TestTokenBucket_RedisDownFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { rdb.Close() })
	mr.Close()

	e := newLimitedEcho(t, rateCfg(), rdb)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/ping", "").Code)
}

func TestRateKey_Strategies(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/users/7/movies", nil), httptest.NewRecorder())
	c.SetPath("/api/users/:id/movies")

	cases := map[string]string{
		"ip":            "rl:ip:192.0.2.1",
		"user":          "rl:user:anon",
		"route":         "rl:route:GET /api/users/:id/movies",
		"ip_user_route": "rl:ip:192.0.2.1:user:anon:route:GET /api/users/:id/movies",
		"bogus":         "rl:ip:192.0.2.1:user:anon",
	}
	for strategy, want := range cases {
		cfg := rateCfg()
		cfg.KeyStrategy = strategy
		assert.Equal(t, want, rateKey(cfg, c), strategy)
	}
}
