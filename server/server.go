package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/hrygo/whenparse/internal/observability"
	"github.com/hrygo/whenparse/internal/profile"
	"github.com/hrygo/whenparse/plugin/temporal"
	"github.com/hrygo/whenparse/plugin/temporal/render"
	ratelimit "github.com/hrygo/whenparse/server/middleware"
	apiv1 "github.com/hrygo/whenparse/server/router/api/v1"
)

// limiterSweep is how often idle rate limit buckets are dropped.
const limiterSweep = 5 * time.Minute

type Server struct {
	Profile *profile.Profile
	Metrics *observability.Metrics

	echoServer  *echo.Echo
	rateLimiter *ratelimit.RateLimiter

	runnerCancelFuncs []context.CancelFunc
}

func NewServer(ctx context.Context, profile *profile.Profile) (*Server, error) {
	if err := profile.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid profile")
	}
	s := &Server{
		Profile:     profile,
		Metrics:     observability.NewMetrics(1000),
		rateLimiter: ratelimit.NewRateLimiter(profile.RateLimit, profile.RateBurst),
	}

	echoServer := echo.New()
	echoServer.Debug = profile.IsDev()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Use(middleware.Recover())
	echoServer.Use(middleware.RequestID())
	s.echoServer = echoServer

	// Healthz endpoint.
	echoServer.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})

	extractor := temporal.NewExtractor(
		temporal.WithLogger(slog.Default()),
		temporal.WithMetrics(s.Metrics),
		temporal.WithFilterCache(render.NewFilterCache(256)),
	)
	apiV1Service, err := apiv1.NewAPIV1Service(s.Profile, extractor, s.Metrics)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create api service")
	}
	apiV1Service.RegisterRoutes(echoServer, s.rateLimiter.Middleware())

	return s, nil
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.echoServer
}

func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrap(err, "failed to listen")
	}

	s.StartBackgroundRunners(ctx)

	go func() {
		if err := s.echoServer.Server.Serve(listener); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start echo server", slog.String("error", err.Error()))
		}
	}()
	slog.Info("server listening", slog.String("address", listener.Addr().String()), slog.String("version", s.Profile.Version))
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	slog.Info("server shutting down")

	// Cancel all background runners
	for _, cancelFunc := range s.runnerCancelFuncs {
		if cancelFunc != nil {
			cancelFunc()
		}
	}

	// Shutdown echo server.
	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	snap := s.Metrics.Snapshot()
	slog.Info("whenparse stopped properly",
		slog.Int64("requests", snap.RequestTotal),
		slog.Int64("failed", snap.RequestFailed),
	)
}

func (s *Server) StartBackgroundRunners(ctx context.Context) {
	limiterCtx, limiterCancel := context.WithCancel(ctx)
	s.runnerCancelFuncs = append(s.runnerCancelFuncs, limiterCancel)

	go func() {
		s.rateLimiter.Run(limiterCtx, limiterSweep)
		slog.Debug("rate limiter sweeper stopped")
	}()
}
