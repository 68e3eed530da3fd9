package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newCachedRouter(expiration time.Duration, calls *int) *gin.Engine {
	r := gin.New()
	r.Use(CacheFor(expiration))
	handler := func(c *gin.Context) {
		*calls++
		c.String(http.StatusOK, fmt.Sprintf("call-%d", *calls))
	}
	r.GET("/status", handler)
	r.POST("/status", handler)
	return r
}

func serve(r http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestCacheServesRepeatedGets(t *testing.T) {
	calls := 0
	r := newCachedRouter(time.Minute, &calls)

	first := serve(r, http.MethodGet, "/status?b=2&a=1")
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.Equal(t, "call-1", first.Body.String())

	second := serve(r, http.MethodGet, "/status?a=1&b=2")
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, "call-1", second.Body.String())

	// 不同参数和非 GET 请求不走缓存
	assert.Equal(t, "call-2", serve(r, http.MethodGet, "/status?a=3").Body.String())
	assert.Equal(t, "call-3", serve(r, http.MethodPost, "/status").Body.String())
	assert.Equal(t, 3, calls)
}

func TestCacheExpires(t *testing.T) {
	calls := 0
	r := newCachedRouter(20*time.Millisecond, &calls)

	serve(r, http.MethodGet, "/status")
	time.Sleep(40 * time.Millisecond)
	w := serve(r, http.MethodGet, "/status")

	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.Equal(t, 2, calls)
}
