package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/blogsphere/core/internal/config"
	"github.com/blogsphere/core/internal/database"
	"github.com/blogsphere/core/internal/middleware"
	pkgcron "github.com/blogsphere/core/internal/pkg/cron"
	pkgredis "github.com/blogsphere/core/internal/pkg/redis"
	"github.com/blogsphere/core/internal/store"
	"github.com/blogsphere/core/internal/store/gormstore"
	"github.com/blogsphere/core/internal/store/memory"
	mongostore "github.com/blogsphere/core/internal/store/mongo"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// App holds all application dependencies.
type App struct {
	cfg    *config.AppConfig
	router *gin.Engine
	store  store.Store
	redis  *redis.Client
	logger *zap.Logger
	sched  *pkgcron.Scheduler
	cancel context.CancelFunc
}

// New initializes the application: runtime settings → store → redis → routes.
func New(ctx context.Context, logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if err := applyRuntimeSettings(cfg); err != nil {
		return nil, err
	}

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	var rdb *redis.Client
	if cfg.Redis.Enable {
		rdb, err = pkgredis.Connect(ctx, cfg.Redis.URLValue())
		if err != nil {
			_ = st.Close(context.Background())
			return nil, fmt.Errorf("redis: %w", err)
		}
	}

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics())
	router.Use(cors.New(corsConfig(cfg)))

	bgCtx, cancel := context.WithCancel(context.Background())
	sched := pkgcron.New(logger.Named("cron"))
	registerCronJobs(sched, cfg, logger)
	sched.Start(bgCtx)

	app := &App{
		cfg:    cfg,
		router: router,
		store:  st,
		redis:  rdb,
		logger: logger,
		sched:  sched,
		cancel: cancel,
	}
	if err := app.registerRoutes(); err != nil {
		_ = app.Shutdown(context.Background())
		return nil, err
	}
	return app, nil
}

// openStore connects the configured backend.
func openStore(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (store.Store, error) {
	switch cfg.Database.Driver {
	case config.DriverMemory:
		logger.Warn("using the in-memory store, data is lost on restart")
		return memory.New(), nil
	case config.DriverMySQL:
		db, err := database.OpenMySQL(cfg, true)
		if err != nil {
			return nil, err
		}
		return gormstore.New(db), nil
	default:
		client, err := database.OpenMongo(ctx, cfg.Database.Mongo)
		if err != nil {
			return nil, err
		}
		st := mongostore.New(client, cfg.Database.Mongo.Name)
		if err := st.EnsureIndexes(ctx); err != nil {
			_ = st.Close(context.Background())
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		return st, nil
	}
}

// Addr returns the listen address.
func (a *App) Addr() string { return a.cfg.Addr() }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown stops background jobs and releases connections.
func (a *App) Shutdown(ctx context.Context) error {
	a.cancel()
	a.sched.Wait()

	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	errs = append(errs, a.store.Close(ctx))
	return errors.Join(errs...)
}
