package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimiterConfig controls the request throttle. Rate uses the
// "<count>-<period>" notation, e.g. "60-M" or "1000-H". PerRouteRates
// overrides the default rate for specific registered routes. SkipPaths
// are prefix-matched against the request path.
type RateLimiterConfig struct {
	Rate          string            `json:"rate"`
	PerRouteRates map[string]string `json:"per_route_rates"`
	Identifier    string            `json:"identifier"` // ip|user
	SkipPaths     []string          `json:"skip_paths"`
	AddHeaders    bool              `json:"add_headers"`
}

// RateLimiter throttles requests, keyed by client IP or authenticated
// user. Config can be swapped at runtime through UpdateConfig.
type RateLimiter struct {
	mu       sync.RWMutex
	cfg      RateLimiterConfig
	store    limiter.Store
	limiters map[string]*limiter.Limiter // rate string -> limiter
}

func NewRateLimiter(cfg RateLimiterConfig, store limiter.Store) *RateLimiter {
	if store == nil {
		store = memory.NewStore()
	}
	if cfg.Rate == "" {
		cfg.Rate = "60-M"
	}
	return &RateLimiter{cfg: cfg, store: store, limiters: make(map[string]*limiter.Limiter)}
}

// Config returns a copy of the active configuration.
func (l *RateLimiter) Config() RateLimiterConfig {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cfg
}

// UpdateConfig swaps the active configuration. Existing counters for
// unchanged rates keep their windows.
func (l *RateLimiter) UpdateConfig(cfg RateLimiterConfig) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cfg.Rate == "" {
		cfg.Rate = l.cfg.Rate
	}
	l.cfg = cfg
}

// Middleware returns the gin handler enforcing the limit.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cfg := l.Config()
		if skipPath(cfg.SkipPaths, c.Request.URL.Path) {
			c.Next()
			return
		}

		key := l.limitKey(cfg, c)
		lim := l.limiterFor(l.rateFor(cfg, c))

		lctx, err := lim.Get(c, key)
		if err != nil {
			// Store failure must not take down the API.
			c.Next()
			return
		}
		if cfg.AddHeaders {
			c.Header("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
			c.Header("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
		}
		if lctx.Reached {
			retry := int(time.Until(time.Unix(lctx.Reset, 0)).Seconds())
			if retry < 0 {
				retry = 0
			}
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}

func (l *RateLimiter) limitKey(cfg RateLimiterConfig, c *gin.Context) string {
	if cfg.Identifier == "user" {
		if uid := UserID(c); uid != "" {
			return "user:" + uid
		}
	}
	return "ip:" + c.ClientIP()
}

func (l *RateLimiter) rateFor(cfg RateLimiterConfig, c *gin.Context) string {
	if r, ok := cfg.PerRouteRates[c.FullPath()]; ok && r != "" {
		return r
	}
	return cfg.Rate
}

func (l *RateLimiter) limiterFor(rateStr string) *limiter.Limiter {
	l.mu.RLock()
	lim, ok := l.limiters[rateStr]
	l.mu.RUnlock()
	if ok {
		return lim
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok = l.limiters[rateStr]; ok {
		return lim
	}
	rate, err := limiter.NewRateFromFormatted(rateStr)
	if err != nil {
		rate = limiter.Rate{Period: time.Minute, Limit: 60}
	}
	lim = limiter.New(l.store, rate)
	l.limiters[rateStr] = lim
	return lim
}

func skipPath(prefixes []string, path string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
