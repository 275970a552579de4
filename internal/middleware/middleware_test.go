package middleware

import (
    "context"
    "errors"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"
    "go.uber.org/zap/zaptest"
    "go.uber.org/zap/zaptest/observer"

    "github.com/iliyamo/cinemax/internal/config"
    "github.com/iliyamo/cinemax/internal/model"
    "github.com/iliyamo/cinemax/internal/service"
)

type fakeAuth map[string]*model.Identity

func (f fakeAuth) Authenticate(_ context.Context, token string) (*model.Identity, error) {
    if token == "boom" {
        return nil, &service.Error{Kind: service.KindInternal, Code: "internal", Message: "check session", Err: errors.New("db down")}
    }
    if id, ok := f[token]; ok {
        return id, nil
    }
    return nil, service.ErrUnauthenticated
}

var testAuth = fakeAuth{
    "user-token":  {UserID: 7, Email: "test@cinema.com", SessionID: "s1"},
    "admin-token": {UserID: 1, Email: "admin@cinema.com", IsAdmin: true, SessionID: "s2"},
}

func whoAmI(c echo.Context) error {
    if id := IdentityFrom(c); id != nil {
        return c.String(http.StatusOK, id.Email)
    }
    return c.String(http.StatusOK, "guest")
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func TestSessionToken(t *testing.T) {
    e := echo.New()

    req := httptest.NewRequest(http.MethodGet, "/", nil)
    req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "from-cookie"})
    req.Header.Set(echo.HeaderAuthorization, "Bearer from-header")
    assert.Equal(t, "from-cookie", SessionToken(e.NewContext(req, httptest.NewRecorder())))

    req = httptest.NewRequest(http.MethodGet, "/", nil)
    req.Header.Set(echo.HeaderAuthorization, "Bearer from-header")
    assert.Equal(t, "from-header", SessionToken(e.NewContext(req, httptest.NewRecorder())))

    req = httptest.NewRequest(http.MethodGet, "/", nil)
    req.Header.Set(echo.HeaderAuthorization, "Basic abc")
    assert.Empty(t, SessionToken(e.NewContext(req, httptest.NewRecorder())))
}

func TestRequireSession(t *testing.T) {
    e := echo.New()
    e.GET("/api/user", whoAmI, RequireSession(testAuth, zaptest.NewLogger(t)))

    rec := serve(e, httptest.NewRequest(http.MethodGet, "/api/user", nil))
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
    assert.JSONEq(t, `{"success":false,"error":"not authenticated"}`, rec.Body.String())

    req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
    req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "user-token"})
    rec = serve(e, req)
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "test@cinema.com", rec.Body.String())

    req = httptest.NewRequest(http.MethodGet, "/api/user", nil)
    req.Header.Set(echo.HeaderAuthorization, "Bearer boom")
    rec = serve(e, req)
    assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestOptionalSession(t *testing.T) {
    e := echo.New()
    e.Use(OptionalSession(testAuth, zaptest.NewLogger(t)))
    e.GET("/who", whoAmI)
    e.GET("/mine", whoAmI, RequireSession(fakeAuth{}, zaptest.NewLogger(t)))

    req := httptest.NewRequest(http.MethodGet, "/who", nil)
    req.Header.Set(echo.HeaderAuthorization, "Bearer stale")
    rec := serve(e, req)
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "guest", rec.Body.String())

    // identity resolved upstream is reused
    req = httptest.NewRequest(http.MethodGet, "/mine", nil)
    req.Header.Set(echo.HeaderAuthorization, "Bearer user-token")
    rec = serve(e, req)
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "test@cinema.com", rec.Body.String())
}

func TestRequireAdmin(t *testing.T) {
    e := echo.New()
    log := zaptest.NewLogger(t)
    e.POST("/api/admin/movie", whoAmI, RequireSession(testAuth, log), RequireAdmin())

    cases := []struct {
        token string
        code  int
    }{
        {"", http.StatusUnauthorized},
        {"user-token", http.StatusForbidden},
        {"admin-token", http.StatusOK},
    }
    for _, tc := range cases {
        req := httptest.NewRequest(http.MethodPost, "/api/admin/movie", nil)
        if tc.token != "" {
            req.Header.Set(echo.HeaderAuthorization, "Bearer "+tc.token)
        }
        assert.Equal(t, tc.code, serve(e, req).Code, tc.token)
    }
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
    t.Helper()
    mr := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    t.Cleanup(func() { _ = rdb.Close() })
    return mr, rdb
}

func rateCfg(capacity, auth int) config.RateLimitConfig {
    return config.RateLimitConfig{
        Enabled:        true,
        Capacity:       capacity,
        AuthCapacity:   auth,
        RefillTokens:   1,
        RefillInterval: time.Minute,
        TTL:            10 * time.Minute,
        KeyStrategy:    "ip_user_route",
        Prefix:         "test:rl",
    }
}

func TestTokenBucket(t *testing.T) {
    _, rdb := newRedis(t)
    e := echo.New()
    e.GET("/api/movies", whoAmI, NewTokenBucket(rateCfg(2, 1), rdb, zaptest.NewLogger(t)))

    for i := 0; i < 2; i++ {
        rec := serve(e, httptest.NewRequest(http.MethodGet, "/api/movies", nil))
        require.Equal(t, http.StatusOK, rec.Code)
        assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
    }
    rec := serve(e, httptest.NewRequest(http.MethodGet, "/api/movies", nil))
    assert.Equal(t, http.StatusTooManyRequests, rec.Code)
    assert.NotEmpty(t, rec.Header().Get("Retry-After"))
    assert.Contains(t, rec.Body.String(), "rate limit exceeded")

    // another client has its own bucket
    req := httptest.NewRequest(http.MethodGet, "/api/movies", nil)
    req.Header.Set(echo.HeaderXRealIP, "10.0.0.9")
    assert.Equal(t, http.StatusOK, serve(e, req).Code)
}

func TestAuthTokenBucket(t *testing.T) {
    _, rdb := newRedis(t)
    e := echo.New()
    log := zaptest.NewLogger(t)
    e.POST("/api/login", whoAmI, NewAuthTokenBucket(rateCfg(5, 1), rdb, log))
    e.GET("/api/movies", whoAmI, NewTokenBucket(rateCfg(5, 1), rdb, log))

    assert.Equal(t, http.StatusOK, serve(e, httptest.NewRequest(http.MethodPost, "/api/login", nil)).Code)
    assert.Equal(t, http.StatusTooManyRequests, serve(e, httptest.NewRequest(http.MethodPost, "/api/login", nil)).Code)
    assert.Equal(t, http.StatusOK, serve(e, httptest.NewRequest(http.MethodGet, "/api/movies", nil)).Code)
}

func TestTokenBucketFailsOpen(t *testing.T) {
    mr, rdb := newRedis(t)
    e := echo.New()
    e.GET("/api/movies", whoAmI, NewTokenBucket(rateCfg(1, 1), rdb, zaptest.NewLogger(t)))
    mr.Close()

    for i := 0; i < 3; i++ {
        assert.Equal(t, http.StatusOK, serve(e, httptest.NewRequest(http.MethodGet, "/api/movies", nil)).Code)
    }

    disabled := echo.New()
    disabled.GET("/x", whoAmI, NewTokenBucket(rateCfg(1, 1), nil, zaptest.NewLogger(t)))
    for i := 0; i < 3; i++ {
        assert.Equal(t, http.StatusOK, serve(disabled, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
    }
}

func cacheCfg() config.CacheConfig {
    return config.CacheConfig{
        Enabled:      true,
        Paths:        map[string]bool{"/api/movies": true},
        TTL:          time.Minute,
        Prefix:       "test:cache",
        MaxBodyBytes: 1 << 16,
    }
}

func TestRedisCache(t *testing.T) {
    mr, rdb := newRedis(t)
    log := zaptest.NewLogger(t)
    calls := 0
    e := echo.New()
    e.Use(NewRedisCache(cacheCfg(), rdb, log))
    e.GET("/api/movies", func(c echo.Context) error {
        calls++
        return c.JSON(http.StatusOK, echo.Map{"success": true, "movies": []string{"a", "b"}})
    })
    e.GET("/api/seats/:id", func(c echo.Context) error {
        calls++
        return c.JSON(http.StatusOK, echo.Map{"success": true})
    })

    first := serve(e, httptest.NewRequest(http.MethodGet, "/api/movies", nil))
    require.Equal(t, http.StatusOK, first.Code)
    assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

    second := serve(e, httptest.NewRequest(http.MethodGet, "/api/movies", nil))
    require.Equal(t, http.StatusOK, second.Code)
    assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
    assert.Equal(t, first.Body.String(), second.Body.String())
    assert.Contains(t, second.Header().Get(echo.HeaderContentType), "application/json")
    assert.Equal(t, 1, calls)

    // different query, different entry
    serve(e, httptest.NewRequest(http.MethodGet, "/api/movies?title=lac", nil))
    assert.Equal(t, 2, calls)

    // seat maps are never cached
    serve(e, httptest.NewRequest(http.MethodGet, "/api/seats/1", nil))
    serve(e, httptest.NewRequest(http.MethodGet, "/api/seats/1", nil))
    assert.Equal(t, 4, calls)

    require.Len(t, mr.Keys(), 2)
    NewCacheInvalidator(cacheCfg(), rdb, log).Invalidate(context.Background())
    assert.Empty(t, mr.Keys())

    third := serve(e, httptest.NewRequest(http.MethodGet, "/api/movies", nil))
    assert.Equal(t, "MISS", third.Header().Get("X-Cache"))
    assert.Equal(t, 5, calls)
}

func TestRedisCacheSkipsErrors(t *testing.T) {
    mr, rdb := newRedis(t)
    e := echo.New()
    e.Use(NewRedisCache(cacheCfg(), rdb, zaptest.NewLogger(t)))
    e.GET("/api/movies", func(c echo.Context) error {
        return c.JSON(http.StatusInternalServerError, echo.Map{"success": false})
    })

    serve(e, httptest.NewRequest(http.MethodGet, "/api/movies", nil))
    assert.Empty(t, mr.Keys())

    var nilInvalidator *CacheInvalidator
    nilInvalidator.Invalidate(context.Background())
    NewCacheInvalidator(cacheCfg(), nil, zap.NewNop()).Invalidate(context.Background())
}

func TestRequestLog(t *testing.T) {
    core, logs := observer.New(zapcore.InfoLevel)
    e := echo.New()
    e.Use(RequestLog(zap.New(core)))
    e.GET("/ok", whoAmI)
    e.GET("/fail", func(c echo.Context) error { return errors.New("kaput") })

    serve(e, httptest.NewRequest(http.MethodGet, "/ok", nil))
    serve(e, httptest.NewRequest(http.MethodGet, "/fail", nil))
    serve(e, httptest.NewRequest(http.MethodGet, "/missing", nil))

    entries := logs.FilterMessage("request").All()
    require.Len(t, entries, 3)
    assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
    assert.EqualValues(t, 200, entries[0].ContextMap()["status"])
    assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
    assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
}
