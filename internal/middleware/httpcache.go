package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/blogsphere/core/internal/pkg/metrics"
	redispkg "github.com/blogsphere/core/internal/pkg/redis"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	APICachePrefix          = "blog:api-cache:"
	defaultHTTPCacheTTL     = 60 * time.Second
	defaultHTTPCacheMaxBody = 1 << 20 // 1 MiB
	cacheHeader             = "X-Cache"
)

type HTTPCacheOptions struct {
	TTL          time.Duration
	MaxBodyBytes int
}

type cachedHTTPResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body"`
}

type cacheBodyWriter struct {
	gin.ResponseWriter
	body         []byte
	maxBodyBytes int
	overflow     bool
}

func (w *cacheBodyWriter) Write(data []byte) (int, error) {
	w.capture(data)
	return w.ResponseWriter.Write(data)
}

func (w *cacheBodyWriter) WriteString(s string) (int, error) {
	w.capture([]byte(s))
	return w.ResponseWriter.WriteString(s)
}

func (w *cacheBodyWriter) capture(data []byte) {
	if w.overflow || len(data) == 0 {
		return
	}
	if len(w.body)+len(data) > w.maxBodyBytes {
		w.overflow = true
		w.body = nil
		return
	}
	w.body = append(w.body, data...)
}

// HTTPCache caches successful anonymous GET responses in redis, keyed by
// the full request URI. Requests carrying a token always reach the handler
// because their visibility can differ.
func HTTPCache(rdb *redis.Client, opts HTTPCacheOptions) gin.HandlerFunc {
	if opts.TTL <= 0 {
		opts.TTL = defaultHTTPCacheTTL
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultHTTPCacheMaxBody
	}
	return func(c *gin.Context) {
		if rdb == nil || c.Request.Method != http.MethodGet || extractToken(c) != "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		cacheKey := APICachePrefix + c.Request.URL.RequestURI()
		if payload, ok := readCachedResponse(ctx, rdb, cacheKey); ok {
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			c.Header(cacheHeader, "HIT")
			c.Data(payload.Status, payload.ContentType, payload.Body)
			c.Abort()
			return
		}
		metrics.CacheLookups.WithLabelValues("miss").Inc()

		buffer := &cacheBodyWriter{ResponseWriter: c.Writer, maxBodyBytes: opts.MaxBodyBytes}
		c.Writer = buffer
		c.Header(cacheHeader, "MISS")
		c.Next()

		if c.Writer.Status() != http.StatusOK || buffer.overflow || len(buffer.body) == 0 {
			return
		}
		raw, err := json.Marshal(cachedHTTPResponse{
			Status:      http.StatusOK,
			ContentType: c.Writer.Header().Get("Content-Type"),
			Body:        buffer.body,
		})
		if err != nil {
			return
		}
		_ = rdb.Set(ctx, cacheKey, raw, opts.TTL).Err()
	}
}

func readCachedResponse(ctx context.Context, rdb *redis.Client, cacheKey string) (cachedHTTPResponse, bool) {
	raw, err := rdb.Get(ctx, cacheKey).Bytes()
	if err != nil || len(raw) == 0 {
		return cachedHTTPResponse{}, false
	}
	var payload cachedHTTPResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return cachedHTTPResponse{}, false
	}
	if payload.Status <= 0 {
		payload.Status = http.StatusOK
	}
	if payload.ContentType == "" {
		payload.ContentType = "application/json; charset=utf-8"
	}
	return payload, true
}

// CachePurger drops every cached response after a write.
type CachePurger struct {
	rdb *redis.Client
	log *zap.Logger
}

func NewCachePurger(rdb *redis.Client, log *zap.Logger) *CachePurger {
	return &CachePurger{rdb: rdb, log: log}
}

// Purge is best effort: a failure leaves entries to expire on their TTL.
func (p *CachePurger) Purge(ctx context.Context) {
	if p == nil || p.rdb == nil {
		return
	}
	n, err := redispkg.DeleteByPattern(ctx, p.rdb, APICachePrefix+"*")
	if err != nil {
		p.log.Warn("purge http cache", zap.Error(err))
		return
	}
	metrics.CachePurges.Inc()
	if n > 0 {
		p.log.Debug("purged http cache", zap.Int64("keys", n))
	}
}
