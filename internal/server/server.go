// Package server exposes the developer-portal HTTP surface: the signup
// endpoint, the admin reporting endpoint, health, and metrics.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/config"
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/health"
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/kong"
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/notify"
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/observability/logger"
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/observability/metrics"
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/okta"
	reportdomain "github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/report/domain"
	signupdomain "github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/signup/domain"
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/signup/store"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	signupRateLimit  = 10
	signupRateWindow = time.Minute
)

type Server struct {
	cfg config.Config
	log *zap.Logger

	engine    *gin.Engine
	signupSvc signupdomain.Service
	reportSvc reportdomain.Service
	limiter   *rateLimiter
	checks    []health.Service
}

type Params struct {
	fx.In

	Config    config.Config
	Log       *zap.Logger
	Engine    *gin.Engine
	SignupSvc signupdomain.Service
	ReportSvc reportdomain.Service
	Store     *store.Repository
	Kong      *kong.HTTPClient
	Okta      okta.Client `optional:"true"`
	Slack     *notify.SlackClient
	Email     *notify.EmailClient
}

func NewEngine(cfg config.Config, log *zap.Logger, httpMetrics *metrics.HTTPMetrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		Logger:    log,
		SkipPaths: []string{"/health", "/metrics"},
	}))
	engine.Use(metrics.GinMiddleware(httpMetrics))
	engine.Use(gin.Recovery())
	return engine
}

func NewServer(p Params) *Server {
	checks := []health.Service{p.Store, p.Kong, p.Slack, p.Email}
	if check, ok := p.Okta.(health.Service); ok {
		checks = append(checks, check)
	}
	return &Server{
		cfg:       p.Config,
		log:       p.Log.Named("server"),
		engine:    p.Engine,
		signupSvc: p.SignupSvc,
		reportSvc: p.ReportSvc,
		limiter:   newRateLimiter(signupRateLimit, signupRateWindow),
		checks:    checks,
	}
}

func (s *Server) RegisterAPIRoutes() {
	s.engine.GET("/health", s.Healthcheck)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.engine.POST("/developer_application", s.CreateDeveloperApplication)

	reports := s.engine.Group("/reports", s.requireAdminToken)
	reports.GET("/signups", s.SignupsReport)
}

// RunHTTP starts the HTTP listener on the configured port and shuts it down
// with the fx app.
func RunHTTP(lc fx.Lifecycle, s *Server) {
	srv := &http.Server{
		Addr:    ":" + s.cfg.Port,
		Handler: s.engine,
	}
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			s.log.Info("http server starting", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					s.log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
