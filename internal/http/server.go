package http

import (
	"context"
	"net/http"
	"time"

	"github.com/garageops/workshop-notify/internal/config"
	"github.com/garageops/workshop-notify/internal/http/middleware"
	"github.com/garageops/workshop-notify/internal/logger"
	"github.com/garageops/workshop-notify/internal/metrics"
	"github.com/garageops/workshop-notify/internal/provider"
	"github.com/garageops/workshop-notify/internal/recipient"
	"github.com/garageops/workshop-notify/internal/repository"
	"github.com/garageops/workshop-notify/internal/service/dispatch"
	"github.com/garageops/workshop-notify/internal/settings"
	"github.com/garageops/workshop-notify/internal/template"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct{ e *echo.Echo }

func NewServer(cfg config.Config, mysqlDB, clickhouseDB *sqlx.DB, rds *redis.Client) *Server {
	// repos (MySQL)
	tenantsRepo := repository.NewTenantsRepository(mysqlDB)
	settingsRepo := repository.NewSettingsRepository(mysqlDB)
	templatesRepo := repository.NewTemplatesRepository(mysqlDB)
	prefsRepo := repository.NewPreferencesRepository(mysqlDB)
	profilesRepo := repository.NewProfilesRepository(mysqlDB)

	// repos (ClickHouse)
	dispatchLogRepo := repository.NewDispatchLogRepository(clickhouseDB)

	// dispatch pipeline
	ttl := cfg.Dispatch.CacheTTL
	if ttl <= 0 {
		ttl = settings.DefaultTTL
	}
	dispatchSvc := dispatch.NewService(
		settings.NewAdapter(settingsRepo, ttl),
		template.NewAdapter(templatesRepo, ttl),
		recipient.NewResolver(prefsRepo, profilesRepo),
		profilesRepo,
		provider.NewHTTPSender(cfg.Relay.BaseURL),
		dispatchLogRepo,
	)
	dispatchSvc.Tune(cfg.Dispatch.MaxInFlight, cfg.Dispatch.SendTimeout)

	// echo
	e := echo.New()
	e.HideBanner = true
	e.Use(echoMid.Recover(), echoMid.Logger())

	metrics.MustRegister(prometheus.DefaultRegisterer)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// health
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// middlewares
	authMW := middleware.APIKeyMiddleware(tenantsRepo)
	rlMW := middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		Redis:          rds,
		RPS:            cfg.RateLimit.RPS,
		KeyPrefix:      "rl:tenant:",
		Window:         time.Second,
		RetryAfterHint: true,
	})

	// routes
	v1 := e.Group("/v1", authMW, rlMW)
	v1.POST("/notifications/dispatch", dispatchHandler(dispatchSvc))
	v1.GET("/reports/dispatches", listDispatchesHandler(dispatchLogRepo))

	return &Server{e: e}
}

func (s *Server) Start(addr string) error {
	logger.Log.Info("http: listening", zap.String("addr", addr))
	return s.e.Start(addr)
}
func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }
