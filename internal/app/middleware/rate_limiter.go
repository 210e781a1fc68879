package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"hoa-vote-service/internal/error/code"
	"hoa-vote-service/internal/error/response"
)

// TokenBucket 简单的令牌桶限流器
type TokenBucket struct {
	rate       float64    // 每秒填充的令牌数
	capacity   int        // 桶的容量
	tokens     float64    // 当前令牌数
	lastRefill time.Time  // 上次填充时间
	mu         sync.Mutex // 互斥锁
}

// NewTokenBucket 创建新的令牌桶限流器
func NewTokenBucket(rate float64, capacity int) *TokenBucket {
	return &TokenBucket{
		rate:       rate,
		capacity:   capacity,
		tokens:     float64(capacity),
		lastRefill: time.Now(),
	}
}

// Allow 尝试获取令牌
func (tb *TokenBucket) Allow() bool {
	return tb.allowAt(time.Now())
}

func (tb *TokenBucket) allowAt(now time.Time) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	elapsed := now.Sub(tb.lastRefill).Seconds()
	if elapsed > 0 {
		tb.tokens += elapsed * tb.rate
		if tb.tokens > float64(tb.capacity) {
			tb.tokens = float64(tb.capacity)
		}
		tb.lastRefill = now
	}

	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

// RateLimiterConfig 限流器配置
type RateLimiterConfig struct {
	Rate       float64                   // 每秒允许的请求数
	Burst      int                       // 允许的突发请求数
	ExpiryTime time.Duration             // 闲置多久后回收限流器
	KeyFunc    func(*gin.Context) string // 限流键，默认按IP
}

// DefaultRateLimiterConfig 默认限流器配置
var DefaultRateLimiterConfig = RateLimiterConfig{
	Rate:       1,
	Burst:      5,
	ExpiryTime: time.Hour,
}

type limiterEntry struct {
	bucket   *TokenBucket
	lastSeen time.Time
}

// limiterStore 每个中间件实例独立的限流器集合
type limiterStore struct {
	cfg       RateLimiterConfig
	mu        sync.Mutex
	entries   map[string]*limiterEntry
	lastSweep time.Time
}

func newLimiterStore(cfg RateLimiterConfig) *limiterStore {
	return &limiterStore{
		cfg:       cfg,
		entries:   make(map[string]*limiterEntry),
		lastSweep: time.Now(),
	}
}

// get 取出键对应的令牌桶，并顺带回收闲置过久的条目
func (s *limiterStore) get(key string, now time.Time) *TokenBucket {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.ExpiryTime > 0 && now.Sub(s.lastSweep) >= s.cfg.ExpiryTime {
		for k, e := range s.entries {
			if now.Sub(e.lastSeen) >= s.cfg.ExpiryTime {
				delete(s.entries, k)
			}
		}
		s.lastSweep = now
	}

	e, ok := s.entries[key]
	if !ok {
		e = &limiterEntry{bucket: NewTokenBucket(s.cfg.Rate, s.cfg.Burst)}
		s.entries[key] = e
	}
	e.lastSeen = now
	return e.bucket
}

func (s *limiterStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// RateLimiter 创建限流中间件
func RateLimiter(config ...RateLimiterConfig) gin.HandlerFunc {
	cfg := DefaultRateLimiterConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Rate <= 0 {
		cfg.Rate = DefaultRateLimiterConfig.Rate
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultRateLimiterConfig.Burst
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}

	store := newLimiterStore(cfg)
	return func(c *gin.Context) {
		now := time.Now()
		if !store.get(cfg.KeyFunc(c), now).allowAt(now) {
			response.Fail(c, code.ErrTooManyRequests)
			return
		}
		c.Next()
	}
}

// IPRateLimiter 按IP限流
func IPRateLimiter(rate float64, burst int) gin.HandlerFunc {
	return RateLimiter(RateLimiterConfig{
		Rate:       rate,
		Burst:      burst,
		ExpiryTime: DefaultRateLimiterConfig.ExpiryTime,
	})
}
