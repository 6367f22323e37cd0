package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/blogsphere/core/internal/pkg/metrics"
	"github.com/blogsphere/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const rateLimitWindow = time.Minute

// RateLimit enforces a fixed one-minute window of perMinute requests per
// client IP. A nil client or a non-positive limit disables it, and redis
// failures let the request through.
func RateLimit(rdb *redis.Client, perMinute int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil || perMinute <= 0 {
			c.Next()
			return
		}

		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		window := time.Now().Truncate(rateLimitWindow).Unix()
		key := fmt.Sprintf("blog:rate_limit:%s:%d", ip, window)

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			c.Next()
			return
		}
		if count == 1 {
			rdb.Expire(ctx, key, rateLimitWindow+time.Second)
		}

		remaining := int64(perMinute) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(perMinute))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(perMinute) {
			metrics.RateLimited.Inc()
			retry := time.Unix(window, 0).Add(rateLimitWindow).Sub(time.Now())
			c.Header("Retry-After", strconv.Itoa(int(retry.Seconds())+1))
			response.TooManyRequests(c)
			return
		}

		c.Next()
	}
}
