package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/blogsphere/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	IdempotenceHeader     = "X-Idempotency-Key"
	defaultIdempotenceTTL = 10 * time.Second
	maxHashedBody         = 1 << 20
)

// Idempotence rejects a POST or PUT that repeats one still in flight or one
// that succeeded within ttl. Requests are identified by the idempotency
// header or, failing that, a hash of method, URL, body and token.
func Idempotence(rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	if ttl <= 0 {
		ttl = defaultIdempotenceTTL
	}
	return func(c *gin.Context) {
		if rdb == nil || shouldSkipIdempotence(c.Request) {
			c.Next()
			return
		}

		key, err := resolveIdempotenceKey(c)
		if err != nil || key == "" {
			c.Next()
			return
		}

		redisKey := fmt.Sprintf("blog:idempotence:%s", key)
		ctx := c.Request.Context()

		val, err := rdb.Get(ctx, redisKey).Result()
		if err == nil {
			msg := "Duplicate request, already processed"
			if val == "0" {
				msg = "Duplicate request, still processing"
			}
			response.Fail(c, http.StatusConflict, msg)
			return
		}
		if !errors.Is(err, redis.Nil) {
			c.Next()
			return
		}
		if ok, setErr := rdb.SetNX(ctx, redisKey, "0", ttl).Result(); setErr != nil {
			c.Next()
			return
		} else if !ok {
			response.Fail(c, http.StatusConflict, "Duplicate request, still processing")
			return
		}

		c.Next()

		status := c.Writer.Status()
		if status >= 200 && status < 300 {
			rdb.Set(ctx, redisKey, "1", redis.KeepTTL)
		} else {
			rdb.Del(ctx, redisKey)
		}
	}
}

func shouldSkipIdempotence(r *http.Request) bool {
	if r.Method != http.MethodPost && r.Method != http.MethodPut {
		return true
	}
	p := strings.TrimRight(strings.ToLower(strings.TrimSpace(r.URL.Path)), "/")
	return p == "/api/auth/login"
}

func isCommentAppend(path string) bool {
	return strings.HasSuffix(strings.TrimRight(path, "/"), "/comments")
}

func resolveIdempotenceKey(c *gin.Context) (string, error) {
	if hdr := strings.TrimSpace(c.GetHeader(IdempotenceHeader)); hdr != "" {
		return hdr, nil
	}
	// Multipart uploads are not buffered for hashing. Comments may repeat
	// word for word, so only an explicit key dedupes them.
	if strings.HasPrefix(c.ContentType(), "multipart/") || isCommentAppend(c.Request.URL.Path) {
		return "", nil
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxHashedBody+1))
	if err != nil {
		return "", err
	}
	c.Request.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), c.Request.Body))
	if len(body) > maxHashedBody {
		return "", nil
	}

	raw := c.Request.Method + "|" + c.Request.URL.String() + "|" + string(body) + "|" + c.ClientIP() + "|" + extractToken(c)
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:]), nil
}
