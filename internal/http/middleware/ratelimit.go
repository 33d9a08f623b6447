package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/garageops/workshop-notify/internal/model"
	echo "github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// RateLimitConfig configures the Redis-backed per-tenant limiter.
type RateLimitConfig struct {
	Redis          *redis.Client
	RPS            int           // requests per window, 0 disables
	KeyPrefix      string        // e.g. "rl:tenant:"
	Window         time.Duration // usually 1s
	RetryAfterHint bool          // set Retry-After header when limited
}

// RateLimitMiddleware applies a fixed-window per-tenant request limit.
// It expects tenant_id in echo.Context (set by APIKeyMiddleware); requests
// without one pass through untouched.
func RateLimitMiddleware(cfg RateLimitConfig) echo.MiddlewareFunc {
	if cfg.Window <= 0 {
		cfg.Window = time.Second
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "rl:tenant:"
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			v := c.Get("tenant_id")
			tenant, ok := v.(model.TenantID)
			if !ok || tenant.IsGlobal() {
				return next(c)
			}
			if cfg.RPS <= 0 || cfg.Redis == nil {
				// no limit configured or redis missing (dev): allow
				return next(c)
			}

			// fixed-window key: rl:tenant:{id}:{unix_sec}
			now := time.Now()
			key := cfg.KeyPrefix + string(tenant) + ":" + strconv.FormatInt(now.Unix(), 10)

			pipe := cfg.Redis.Pipeline()
			cnt := pipe.Incr(c.Request().Context(), key)
			pipe.Expire(c.Request().Context(), key, cfg.Window*2)
			if _, err := pipe.Exec(c.Request().Context()); err != nil {
				// redis trouble must not take the API down
				return next(c)
			}

			if cnt.Val() > int64(cfg.RPS) {
				if cfg.RetryAfterHint {
					remain := cfg.Window - time.Duration(now.UnixNano()%int64(cfg.Window))
					if remain > 0 {
						c.Response().Header().Set("Retry-After", strconv.Itoa(int(remain.Round(time.Second)/time.Second)))
					}
				}
				return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "rate limited"})
			}
			return next(c)
		}
	}
}
