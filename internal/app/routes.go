package app

import (
	"github.com/blogsphere/core/internal/middleware"
	"github.com/blogsphere/core/internal/modules/auth"
	"github.com/blogsphere/core/internal/modules/content/category"
	"github.com/blogsphere/core/internal/modules/content/comment"
	"github.com/blogsphere/core/internal/modules/content/post"
	"github.com/blogsphere/core/internal/modules/storage/upload"
	"github.com/blogsphere/core/internal/modules/system/health"
	"github.com/blogsphere/core/internal/pkg/jwt"
	"github.com/blogsphere/core/internal/pkg/metrics"
	"github.com/blogsphere/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes() error {
	r := a.router
	r.NoRoute(response.NotFound)
	r.NoMethod(response.MethodNotAllowed)

	tokens := jwt.NewIssuer(a.cfg.JWTSecret, a.cfg.JWTTTL)
	authMW := middleware.Auth(tokens, a.store)
	optionalAuthMW := middleware.OptionalAuth(tokens, a.store)
	adminMW := []gin.HandlerFunc{authMW, middleware.RequireAdmin()}

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	images, uploadDir, err := upload.FromConfig(a.cfg)
	if err != nil {
		return err
	}
	if uploadDir != "" {
		r.Static(a.cfg.Uploads.PublicPath, uploadDir)
	}

	health.RegisterRoutes(r, health.Deps{
		Store:     a.store,
		Redis:     a.redis,
		Scheduler: a.sched,
		LogDir:    a.cfg.LogDir(),
	}, adminMW...)

	api := r.Group("/api")
	api.Use(middleware.RateLimit(a.redis, a.cfg.Redis.RateLimitRPM))
	api.Use(middleware.Idempotence(a.redis, a.cfg.Redis.IdempotenceTTL))

	purger := middleware.NewCachePurger(a.redis, a.logger.Named("cache"))
	cacheMW := middleware.HTTPCache(a.redis, middleware.HTTPCacheOptions{TTL: a.cfg.Redis.CacheTTL})

	categorySvc := category.NewService(a.store)
	hydrator := post.NewHydrator(a.store, a.store)
	views := post.NewViewCounter(a.store, a.logger.Named("views"))

	postQuery := post.NewQuery(a.store, hydrator, views)
	postSvc := post.NewService(a.store, categorySvc, images, hydrator, purger)
	post.NewHandler(postQuery, postSvc).RegisterRoutes(api, authMW, optionalAuthMW, cacheMW)

	comment.NewHandler(comment.NewService(a.store, hydrator, purger)).RegisterRoutes(api, authMW)
	category.NewHandler(categorySvc).RegisterRoutes(api, adminMW...)
	auth.NewHandler(auth.NewService(a.store, tokens)).RegisterRoutes(api, authMW)
	return nil
}
