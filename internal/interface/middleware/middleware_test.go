package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-recipe-api/pkg/helpers"
)

func newRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, mr
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(CtxUserIDKey))
	})
	return r
}

func get(r *gin.Engine, mutate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if mutate != nil {
		mutate(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimit_BlocksAfterMax(t *testing.T) {
	rdb, _ := newRedis(t)
	r := newEngine(RateLimit(rdb, 2, time.Minute, KeyByIP(), nil))

	for i := 0; i < 2; i++ {
		w := get(r, nil)
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := get(r, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestRateLimit_WindowExpires(t *testing.T) {
	rdb, mr := newRedis(t)
	r := newEngine(RateLimit(rdb, 1, time.Minute, KeyByIP(), nil))

	require.Equal(t, http.StatusOK, get(r, nil).Code)
	require.Equal(t, http.StatusTooManyRequests, get(r, nil).Code)
	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, http.StatusOK, get(r, nil).Code)
}

func TestRateLimit_AllowBypassesAndNilRedisIsNoop(t *testing.T) {
	rdb, _ := newRedis(t)
	r := newEngine(RateLimit(rdb, 1, time.Minute, KeyByIP(), AllowPrivateIP()))
	local := func(req *http.Request) { req.RemoteAddr = "127.0.0.1:5555" }
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, get(r, local).Code)
	}

	open := newEngine(RateLimit(nil, 1, time.Minute, KeyByIP(), nil))
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, get(open, nil).Code)
	}
}

func TestRateLimit_FailsOpenWhenRedisDown(t *testing.T) {
	rdb, mr := newRedis(t)
	r := newEngine(RateLimit(rdb, 1, time.Minute, KeyByIP(), nil))
	mr.Close()
	assert.Equal(t, http.StatusOK, get(r, nil).Code)
	assert.Equal(t, http.StatusOK, get(r, nil).Code)
}

func TestKeyByUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Set("real_ip", "10.1.2.3")
	assert.Equal(t, "rl:user:anon:ip:10.1.2.3", KeyByUserID()(c))
	c.Set(CtxUserIDKey, "u1")
	assert.Equal(t, "rl:user:u1", KeyByUserID()(c))
}

func issue(t *testing.T, rdb *redis.Client, jwt *helpers.JWTManager, userID, sid string) string {
	t.Helper()
	token, _, err := jwt.GenerateAccessToken(userID, sid)
	require.NoError(t, err)
	if rdb != nil {
		require.NoError(t, rdb.HSet(context.Background(), helpers.SessionKey(userID), "user_id", userID, "sid", sid).Err())
	}
	return token
}

func TestAuth(t *testing.T) {
	rdb, _ := newRedis(t)
	jwt := helpers.NewJWTManager("a", "r", time.Minute, time.Hour)
	r := newEngine(Auth(rdb, jwt))
	token := issue(t, rdb, jwt, "u1", "s1")

	w := get(r, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = get(r, func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+token) })
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", w.Body.String())

	w = get(r, func(req *http.Request) { req.AddCookie(&http.Cookie{Name: "access_token", Value: token}) })
	assert.Equal(t, http.StatusOK, w.Code)

	// a newer login replaced the session id
	require.NoError(t, rdb.HSet(context.Background(), helpers.SessionKey("u1"), "sid", "s2").Err())
	w = get(r, func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+token) })
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	require.NoError(t, rdb.Del(context.Background(), helpers.SessionKey("u1")).Err())
	w = get(r, func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+token) })
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_RejectsRefreshTokenAndTrustsJWTWithoutRedis(t *testing.T) {
	jwt := helpers.NewJWTManager("a", "r", time.Minute, time.Hour)
	r := newEngine(Auth(nil, jwt))

	refresh, _, err := jwt.GenerateRefreshToken("u1", "s1")
	require.NoError(t, err)
	w := get(r, func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+refresh) })
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := issue(t, nil, jwt, "u1", "s1")
	w = get(r, func(req *http.Request) { req.Header.Set("Authorization", "bearer "+token) })
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRealIPAndRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware(), RealIP(true))
	r.GET("/ip", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(CtxRealIPKey)) })

	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.Header.Set("X-Forwarded-For", "garbage, 203.0.113.7, 10.0.0.1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "203.0.113.7", w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.Header.Set("CF-Connecting-IP", "198.51.100.2")
	req.Header.Set("X-Request-ID", "6f1c2b1e-8d1a-4d7e-9a55-1f0f1e2d3c4b")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "198.51.100.2", w.Body.String())
	assert.Equal(t, "6f1c2b1e-8d1a-4d7e-9a55-1f0f1e2d3c4b", w.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.Header.Set("X-Real-IP", "198.51.100.9")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "198.51.100.9", w.Body.String())
}

func TestRealIPIgnoresHeadersWhenUntrusted(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RealIP(false))
	r.GET("/ip", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(CtxRealIPKey)) })

	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.RemoteAddr = "192.0.2.10:4000"
	req.Header.Set("CF-Connecting-IP", "198.51.100.2")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "192.0.2.10", w.Body.String())
}
