// Package server is the HTTP side of recite: it serves the catalog, scores
// uploaded attempts, and reports practice history.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rbright/recite/internal/auth"
	"github.com/rbright/recite/internal/catalog"
	"github.com/rbright/recite/internal/progress"
	"github.com/rbright/recite/internal/recognizer"
	"github.com/rbright/recite/internal/submit"
	"github.com/rbright/recite/internal/telemetry"
)

const (
	shutdownTimeout = 10 * time.Second
	bodyLimit       = "25M"
)

// ProgressStore records and lists scored attempts.
type ProgressStore interface {
	Save(ctx context.Context, entry progress.Entry) (progress.Entry, error)
	Recent(ctx context.Context, user string, limit int) ([]progress.Entry, error)
}

// MetricsPath serves the Prometheus scrape when metrics are enabled.
const MetricsPath = "/metrics"

// Config wires the server's collaborators. Issuer and Progress are optional:
// without an Issuer every route is open and no history is recorded.
type Config struct {
	Listen     string
	Catalog    catalog.Catalog
	Recognizer recognizer.Recognizer
	Progress   ProgressStore
	Issuer     *auth.Issuer
	Metrics    *telemetry.Metrics
	Logger     *slog.Logger
}

// Server owns the echo instance.
type Server struct {
	echo   *echo.Echo
	cfg    Config
	logger *slog.Logger
}

// New builds the route table.
func New(cfg Config) (*Server, error) {
	if cfg.Recognizer == nil {
		return nil, errors.New("server requires a recognizer")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(logger)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(requestLogger(logger))
	e.Use(middleware.BodyLimit(bodyLimit))

	s := &Server{echo: e, cfg: cfg, logger: logger}

	e.GET(submit.HealthPath, s.health)
	if cfg.Metrics != nil {
		e.GET(MetricsPath, echo.WrapHandler(cfg.Metrics.Handler()))
	}

	protected := e.Group("")
	if cfg.Issuer != nil {
		protected.Use(auth.Middleware(cfg.Issuer, logger))
	}
	protected.GET(submit.CatalogPath, s.catalog)
	protected.POST(submit.TranscribePath, s.transcribe)
	protected.GET(ProgressPath, s.progress)

	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.echo }

// Run listens on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Listen, err)
	}
	return s.Serve(ctx, listener)
}

// Serve accepts on listener until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	s.echo.Listener = listener
	s.logger.Info("server listening", "addr", listener.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.Start("")
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("server shutting down")
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"path", v.URIPath,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				logger.Warn("request failed", append(attrs, "error", v.Error.Error())...)
				return nil
			}
			logger.Info("request", attrs...)
			return nil
		},
	})
}

// errorHandler renders framework errors with the same {"error": ...} shape
// the handlers use.
func errorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := http.StatusText(status)
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			status = httpErr.Code
			if text, ok := httpErr.Message.(string); ok && strings.TrimSpace(text) != "" {
				message = text
			} else {
				message = http.StatusText(status)
			}
		} else {
			logger.Error("unhandled request error", "error", err.Error())
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, errorBody(message))
		}
		if err != nil {
			logger.Error("write error response", "error", err.Error())
		}
	}
}

func errorBody(message string) map[string]string {
	return map[string]string{"error": message}
}
