package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/pagetone/pagetone-backend/internal/logger"
)

// RateLimit is a fixed-window per-client limiter backed by redis. The
// window key rotates every minute; the first hit in a window sets the
// expiry. On redis failure the request is let through rather than refused.
type RateLimit struct {
	log    *logger.Logger
	redis  *redis.Client
	perMin int
}

func NewRateLimit(log *logger.Logger, client *redis.Client, perMin int) *RateLimit {
	return &RateLimit{
		log:    log.With("Middleware", "RateLimit"),
		redis:  client,
		perMin: perMin,
	}
}

func (rl *RateLimit) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.perMin <= 0 {
			c.Next()
			return
		}
		window := time.Now().Unix() / 60
		key := fmt.Sprintf("ratelimit:%s:%d", c.ClientIP(), window)

		count, err := rl.redis.Incr(c.Request.Context(), key).Result()
		if err != nil {
			rl.log.Warn("Rate limit check failed, allowing request", "error", err)
			c.Next()
			return
		}
		if count == 1 {
			rl.redis.Expire(c.Request.Context(), key, time.Minute)
		}
		if count > int64(rl.perMin) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
