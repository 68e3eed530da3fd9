package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newLimitedRouter(mw gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw)
	r.GET("/a", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/b", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func doRequest(r http.Handler, path, ip string) int {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = ip + ":1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestIPRateLimiter(t *testing.T) {
	r := newLimitedRouter(IPRateLimiter(0.001, 2))

	assert.Equal(t, http.StatusOK, doRequest(r, "/a", "10.0.0.1"))
	assert.Equal(t, http.StatusOK, doRequest(r, "/b", "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, doRequest(r, "/a", "10.0.0.1"))

	// 其他IP不受影响
	assert.Equal(t, http.StatusOK, doRequest(r, "/a", "10.0.0.2"))
}

func TestPathRateLimiter(t *testing.T) {
	r := newLimitedRouter(PathRateLimiter(0.001, 1))

	assert.Equal(t, http.StatusOK, doRequest(r, "/a", "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, doRequest(r, "/a", "10.0.0.2"))
	assert.Equal(t, http.StatusOK, doRequest(r, "/b", "10.0.0.1"))
}

func TestLimiterStoreExpiry(t *testing.T) {
	store := newLimiterStore(RateLimiterConfig{Rate: 1, Burst: 1, ExpiryTime: time.Millisecond})
	store.get("a")
	store.get("b")
	require.Equal(t, 2, store.size())

	time.Sleep(5 * time.Millisecond)
	store.get("c")
	assert.Equal(t, 1, store.size())
}

func TestCombinedRateLimiter(t *testing.T) {
	r := newLimitedRouter(CombinedRateLimiter(0.001, 1))

	assert.Equal(t, http.StatusOK, doRequest(r, "/a", "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, doRequest(r, "/a", "10.0.0.1"))
	// 同一IP的其他路径和其他IP的同一路径各自计数
	assert.Equal(t, http.StatusOK, doRequest(r, "/b", "10.0.0.1"))
	assert.Equal(t, http.StatusOK, doRequest(r, "/a", "10.0.0.2"))
}

func TestEntryRateLimiter(t *testing.T) {
	r := gin.New()
	handler := func(c *gin.Context) { c.Status(http.StatusOK) }
	perEntry := EntryRateLimiter(0.001, 1)
	r.POST("/entries/:id/push", perEntry, handler)
	r.POST("/entries/:id/lookup", perEntry, handler)

	post := func(path, ip string) int {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, post("/entries/1/push", "10.0.0.1"))
	// 换IP也不能绕过同一条记录的限制
	assert.Equal(t, http.StatusTooManyRequests, post("/entries/1/push", "10.0.0.2"))
	assert.Equal(t, http.StatusOK, post("/entries/2/push", "10.0.0.1"))
	assert.Equal(t, http.StatusOK, post("/entries/1/lookup", "10.0.0.1"))
}
