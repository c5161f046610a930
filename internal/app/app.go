package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/alxtravel/server/cmd/server/docs" // swagger docs
	"github.com/alxtravel/server/internal/model"
	"github.com/alxtravel/server/internal/shared/config"
	"github.com/alxtravel/server/internal/shared/middleware"
	"github.com/alxtravel/server/internal/shared/telemetry"
)

// App is the payment service: HTTP API plus background workers.
type App struct {
	deps     *Dependencies
	router   *gin.Engine
	logger   *zap.Logger
	cleanup  func()
	shutdown telemetry.ShutdownFunc
	cancel   context.CancelFunc
}

// New builds the application from configuration.
func New(cfg *config.Config) (*App, error) {
	deps, cleanup, err := BuildDependencies(cfg)
	if err != nil {
		return nil, err
	}

	shutdown, err := telemetry.Init(context.Background(), cfg.Telemetry, deps.Logger)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	return &App{
		deps:     deps,
		router:   newRouter(deps),
		logger:   deps.Logger,
		cleanup:  cleanup,
		shutdown: shutdown,
	}, nil
}

// Router returns the HTTP router.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Start launches the notification workers and, when enabled, the reconciler.
func (a *App) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.deps.Dispatcher.Start(ctx)
	if a.deps.Config.Reconcile.Enabled {
		a.deps.Reconciler.Start(ctx)
	}
}

// Run serves HTTP until ctx is done, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	cfg := a.deps.Config.Server
	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      a.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	a.Start()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting server", zap.String("address", cfg.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			a.Stop(context.Background())
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
	}

	a.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	a.Stop(shutdownCtx)
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	a.logger.Info("server exited")
	return nil
}

// Stop stops background workers and releases resources.
func (a *App) Stop(ctx context.Context) {
	if a.cancel != nil {
		a.cancel()
	}
	a.deps.Reconciler.Stop()
	a.deps.Dispatcher.Stop()

	if err := a.shutdown(ctx); err != nil {
		a.logger.Warn("telemetry shutdown failed", zap.Error(err))
	}
	a.cleanup()
}

// newRouter creates the Gin router with global middleware and routes.
func newRouter(deps *Dependencies) *gin.Engine {
	cfg := deps.Config
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	} else if cfg.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Tracing(cfg.Telemetry.ServiceName))
	r.Use(middleware.Logging(deps.Logger))
	r.Use(middleware.Metrics(deps.Metrics))
	r.Use(middleware.CORS(cfg.CORS))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, model.HealthResponse{Status: "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := readinessCheck(ctx, deps.DB, deps.Redis); err != nil {
			deps.Logger.Warn("readiness check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, model.HealthResponse{Status: "unavailable"})
			return
		}
		c.JSON(http.StatusOK, model.HealthResponse{Status: "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))

	v1 := r.Group("/api/v1")
	deps.PaymentHandler.RegisterRoutes(v1,
		middleware.RequireAuth(deps.JWTManager),
		middleware.RateLimit(deps.RateLimiter, middleware.RateLimitConfig{
			Limit:  cfg.Server.RateLimit,
			Window: cfg.Server.RateLimitWindow,
		}),
		middleware.Idempotency(deps.Redis, middleware.IdempotencyConfig{TTL: cfg.Server.IdempotencyTTL}),
	)

	return r
}
