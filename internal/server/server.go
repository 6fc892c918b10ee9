// Package server exposes the recommender over HTTP. Each POST is one batch
// run; the rows of a session's latest run are kept in memory for CSV download.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"yashubustudio/flowrec/flowrec"
	"yashubustudio/flowrec/internal/metrics"
)

// HeaderSessionID carries the session identifier in both directions.
const HeaderSessionID = "X-Session-ID"

const exportFileName = "flow_recommendations.csv"

// Server wires the HTTP routes to a flowrec.Service.
type Server struct {
	echo     *echo.Echo
	svc      *flowrec.Service
	sessions *cache.Cache
	metrics  *metrics.Metrics
	logger   *zap.Logger
	bom      bool
}

// New builds the server. m may be nil, in which case /metrics is not served.
func New(svc *flowrec.Service, m *metrics.Metrics, logger *zap.Logger) (*Server, error) {
	if svc == nil {
		return nil, errors.New("service is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := svc.Config()
	ttl, err := time.ParseDuration(cfg.Server.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("parse session ttl: %w", err)
	}
	s := &Server{
		echo:     echo.New(),
		svc:      svc,
		sessions: cache.New(ttl, ttl*2),
		metrics:  m,
		logger:   logger.Named("http"),
		bom:      cfg.Export.BOM,
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	e := s.echo
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1M"))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Debug("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency))
			return nil
		},
	}))

	e.GET("/healthz", s.handleHealth)
	api := e.Group("/api/v1")
	api.POST("/recommend", s.handleRecommend)
	api.POST("/extract", s.handleExtract)
	api.GET("/export", s.handleExport)
	if s.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("listening", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the listener and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// sessionID returns the caller's session id, or a fresh one when the caller
// sent none or an unparsable one.
func sessionID(c echo.Context) (string, bool) {
	raw := c.Request().Header.Get(HeaderSessionID)
	if raw == "" {
		raw = c.QueryParam("session")
	}
	if id, err := uuid.Parse(raw); err == nil {
		return id.String(), true
	}
	return uuid.NewString(), false
}

func (s *Server) storeRows(id string, rows []flowrec.ResultRow) {
	s.sessions.Set(id, rows, cache.DefaultExpiration)
}

func (s *Server) lastRows(id string) ([]flowrec.ResultRow, bool) {
	v, ok := s.sessions.Get(id)
	if !ok {
		return nil, false
	}
	rows, ok := v.([]flowrec.ResultRow)
	return rows, ok
}
