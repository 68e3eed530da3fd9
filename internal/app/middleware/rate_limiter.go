package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"prima-sync-service/internal/error/response"
)

// 限流类型
const (
	LimitByIP       = "ip"
	LimitByPath     = "path"
	LimitByCombined = "combined"
	LimitByCustom   = "custom"
)

// RateLimiterConfig 限流器配置
type RateLimiterConfig struct {
	Rate       float64                   // 每秒允许的请求数
	Burst      int                       // 允许的突发请求数
	ExpiryTime time.Duration             // 限流器空闲多久后回收
	LimitType  string                    // 限流类型: "ip", "path", "combined", "custom"
	KeyFunc    func(*gin.Context) string // 自定义键生成函数
}

// DefaultRateLimiterConfig 默认限流器配置
var DefaultRateLimiterConfig = RateLimiterConfig{
	Rate:       1,             // 每秒1个请求
	Burst:      5,             // 允许5个突发请求
	ExpiryTime: 1 * time.Hour, // 空闲1小时后回收
	LimitType:  LimitByIP,     // 默认按IP限流
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterStore 按键保存令牌桶，每个中间件实例一份
type limiterStore struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	cfg      RateLimiterConfig
	sweptAt  time.Time
}

func newLimiterStore(cfg RateLimiterConfig) *limiterStore {
	return &limiterStore{
		limiters: make(map[string]*limiterEntry),
		cfg:      cfg,
		sweptAt:  time.Now(),
	}
}

// get 返回键对应的限流器，顺带回收空闲的限流器
func (s *limiterStore) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if s.cfg.ExpiryTime > 0 && now.Sub(s.sweptAt) > s.cfg.ExpiryTime {
		for k, e := range s.limiters {
			if now.Sub(e.lastSeen) > s.cfg.ExpiryTime {
				delete(s.limiters, k)
			}
		}
		s.sweptAt = now
	}

	entry, ok := s.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(s.cfg.Rate), s.cfg.Burst)}
		s.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

func (s *limiterStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}

// RateLimiter 创建限流中间件
func RateLimiter(config ...RateLimiterConfig) gin.HandlerFunc {
	// 使用默认配置或自定义配置
	var cfg RateLimiterConfig
	if len(config) > 0 {
		cfg = config[0]
	} else {
		cfg = DefaultRateLimiterConfig
	}

	// 确保配置有效
	if cfg.Rate <= 0 {
		cfg.Rate = DefaultRateLimiterConfig.Rate
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultRateLimiterConfig.Burst
	}
	if cfg.LimitType == "" {
		cfg.LimitType = DefaultRateLimiterConfig.LimitType
	}
	if cfg.ExpiryTime == 0 {
		cfg.ExpiryTime = DefaultRateLimiterConfig.ExpiryTime
	}

	store := newLimiterStore(cfg)

	return func(c *gin.Context) {
		if !store.get(limiterKey(c, cfg)).Allow() {
			response.TooManyRequests(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

func limiterKey(c *gin.Context, cfg RateLimiterConfig) string {
	switch cfg.LimitType {
	case LimitByPath:
		return c.FullPath()
	case LimitByCombined:
		return c.ClientIP() + ":" + c.FullPath()
	case LimitByCustom:
		if cfg.KeyFunc != nil {
			return cfg.KeyFunc(c)
		}
	}
	return c.ClientIP()
}

// IPRateLimiter 按IP限流
func IPRateLimiter(r float64, burst int) gin.HandlerFunc {
	return RateLimiter(RateLimiterConfig{
		Rate:      r,
		Burst:     burst,
		LimitType: LimitByIP,
	})
}

// PathRateLimiter 按路径限流
func PathRateLimiter(r float64, burst int) gin.HandlerFunc {
	return RateLimiter(RateLimiterConfig{
		Rate:      r,
		Burst:     burst,
		LimitType: LimitByPath,
	})
}

// CombinedRateLimiter 按IP和路径组合限流
func CombinedRateLimiter(r float64, burst int) gin.HandlerFunc {
	return RateLimiter(RateLimiterConfig{
		Rate:      r,
		Burst:     burst,
		LimitType: LimitByCombined,
	})
}

// EntryRateLimiter 按路径和记录ID限流，同一条记录的控制器请求不会被连续触发
func EntryRateLimiter(r float64, burst int) gin.HandlerFunc {
	return RateLimiter(RateLimiterConfig{
		Rate:      r,
		Burst:     burst,
		LimitType: LimitByCustom,
		KeyFunc: func(c *gin.Context) string {
			return c.FullPath() + ":" + c.Param("id")
		},
	})
}
