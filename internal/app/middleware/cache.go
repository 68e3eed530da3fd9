package middleware

import (
	"bytes"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// 缓存条目
type cacheEntry struct {
	Content    []byte
	Expiration time.Time
}

// responseCache 内存缓存，每个中间件实例独立
type responseCache struct {
	sync.RWMutex
	items map[string]cacheEntry
}

func (c *responseCache) get(key string, now time.Time) ([]byte, bool) {
	c.RLock()
	defer c.RUnlock()
	entry, found := c.items[key]
	if !found || !entry.Expiration.After(now) {
		return nil, false
	}
	return entry.Content, true
}

// set 写入时顺带清理过期条目
func (c *responseCache) set(key string, content []byte, expiration time.Time) {
	c.Lock()
	defer c.Unlock()
	now := time.Now()
	for k, entry := range c.items {
		if entry.Expiration.Before(now) {
			delete(c.items, k)
		}
	}
	c.items[key] = cacheEntry{Content: content, Expiration: expiration}
}

// CacheConfig 缓存配置
type CacheConfig struct {
	Expiration time.Duration             // 缓存过期时间
	KeyFunc    func(*gin.Context) string // 自定义缓存键生成函数
}

// DefaultCacheConfig 默认缓存配置
var DefaultCacheConfig = CacheConfig{
	Expiration: 5 * time.Second,
	KeyFunc:    defaultKeyFunc,
}

// defaultKeyFunc 路径加排序后的查询参数
func defaultKeyFunc(c *gin.Context) string {
	query := c.Request.URL.Query()
	keys := make([]string, 0, len(query))
	for key := range query {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(c.Request.URL.Path)
	b.WriteByte('?')
	for _, key := range keys {
		values := append([]string(nil), query[key]...)
		sort.Strings(values)
		for _, value := range values {
			b.WriteString(key + "=" + value + "&")
		}
	}
	return b.String()
}

// Cache 缓存 GET 请求的成功响应，其他方法直接放行
func Cache(config ...CacheConfig) gin.HandlerFunc {
	cfg := DefaultCacheConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Expiration <= 0 {
		cfg.Expiration = DefaultCacheConfig.Expiration
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = DefaultCacheConfig.KeyFunc
	}

	cache := &responseCache{items: make(map[string]cacheEntry)}

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := cfg.KeyFunc(c)
		if content, found := cache.get(key, time.Now()); found {
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, "application/json; charset=utf-8", content)
			c.Abort()
			return
		}

		// 缓存未命中，捕获响应
		writer := &responseWriter{
			ResponseWriter: c.Writer,
			body:           &bytes.Buffer{},
		}
		c.Writer = writer
		c.Header("X-Cache", "MISS")

		c.Next()

		if c.Writer.Status() == http.StatusOK {
			cache.set(key, writer.body.Bytes(), time.Now().Add(cfg.Expiration))
		}
	}
}

// CacheFor 按路径和查询参数缓存指定时间
func CacheFor(expiration time.Duration) gin.HandlerFunc {
	return Cache(CacheConfig{Expiration: expiration})
}

// 自定义响应写入器，用于捕获响应内容
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

// Write 同时写入原始响应和缓冲区
func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// WriteString 同时写入原始响应和缓冲区
func (w *responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
