// Package health reports liveness and exposes maintenance jobs to admins.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/blogsphere/core/internal/pkg/cron"
	"github.com/blogsphere/core/internal/pkg/nativelog"
	"github.com/blogsphere/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const pingTimeout = 2 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the components health reports on. Redis and Scheduler may be
// nil.
type Deps struct {
	Store     Pinger
	Redis     *redis.Client
	Scheduler *cron.Scheduler
	LogDir    string
}

func RegisterRoutes(r gin.IRouter, deps Deps, adminMW ...gin.HandlerFunc) {
	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
		defer cancel()

		body := gin.H{"database": deps.Store.Ping(ctx) == nil}
		healthy := body["database"] == true
		if deps.Redis != nil {
			redisOK := deps.Redis.Ping(ctx).Err() == nil
			body["redis"] = redisOK
			healthy = healthy && redisOK
		}

		code := http.StatusOK
		body["status"] = "ok"
		if !healthy {
			body["status"] = "degraded"
		}
		if body["database"] != true {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, body)
	})

	admin := r.Group("/health", adminMW...)
	admin.GET("/log", func(c *gin.Context) {
		files, err := nativelog.ListFiles(deps.LogDir)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, files)
	})

	if deps.Scheduler == nil {
		return
	}
	jobs := admin.Group("/cron")
	jobs.GET("", func(c *gin.Context) {
		response.OK(c, deps.Scheduler.List())
	})
	jobs.GET("/:name", func(c *gin.Context) {
		info, err := deps.Scheduler.Get(c.Param("name"))
		if err != nil {
			response.Fail(c, http.StatusNotFound, err.Error())
			return
		}
		response.OK(c, info)
	})
	jobs.POST("/:name/run", func(c *gin.Context) {
		if err := deps.Scheduler.Run(c.Request.Context(), c.Param("name")); err != nil {
			response.Fail(c, http.StatusNotFound, err.Error())
			return
		}
		response.OK(c, gin.H{"message": "job triggered"})
	})
}
