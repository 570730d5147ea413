package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/mentormarket/pkg/logger"
	"github.com/wyfcoding/mentormarket/pkg/ratelimit"
)

// RateLimitMiddleware 按客户端 IP 限流
func RateLimitMiddleware(limiter ratelimit.RateLimiter, rate, burst int) gin.HandlerFunc {
	limit := ratelimit.Limit{
		Rate:   rate,
		Period: time.Second,
		Burst:  burst,
	}

	return func(c *gin.Context) {
		key := "ratelimit:" + c.ClientIP()

		res, err := limiter.Allow(c.Request.Context(), key, limit)
		if err != nil {
			// 限流器不可用时放行，不能因为 Redis 故障拒绝业务请求
			logger.Warn(c.Request.Context(), "rate limiter unavailable", "error", err)
			c.Next()
			return
		}

		if !res.Allowed {
			c.Header("Retry-After", res.RetryAfter.String())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}

		c.Next()
	}
}
