package sitegen

import (
	"context"
	"errors"
	"html"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/a-h/templ"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsPath is where the preview server exposes Prometheus metrics.
const MetricsPath = "/_metrics"

// PreviewServer serves a built site from its output directory. Responses
// are never cached, and unknown paths get the built-in not-found page.
type PreviewServer struct {
	Echo *echo.Echo

	builder  *Builder
	registry *prometheus.Registry
	logger   *slog.Logger
}

// NewPreviewServer creates a preview server for the builder's output
// directory.
func (b *Builder) NewPreviewServer() *PreviewServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &PreviewServer{
		Echo:     e,
		builder:  b,
		registry: prometheus.NewRegistry(),
		logger:   b.logger,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *PreviewServer) setupMiddleware() {
	e := s.Echo

	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Info("request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))

	e.Use(middleware.Recover())

	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
	}))

	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "sitegen_preview",
		Registerer: s.registry,
		Skipper: func(c echo.Context) bool {
			return c.Path() == MetricsPath
		},
	}))

	e.Use(noCacheMiddleware)
}

func (s *PreviewServer) setupRoutes() {
	s.Echo.GET(MetricsPath, echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: s.registry,
	}))
	s.Echo.Static("/", s.builder.Config.OutputDir)
}

// noCacheMiddleware keeps browsers from holding on to pages that the next
// rebuild replaces.
func noCacheMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		h := c.Response().Header()
		h.Set("Cache-Control", "no-cache, no-store, must-revalidate")
		h.Set("Pragma", "no-cache")
		h.Set("Expires", "0")
		return next(c)
	}
}

// Start listens on addr and serves until Shutdown is called.
func (s *PreviewServer) Start(addr string) error {
	s.logger.Info("preview server listening", "addr", addr, "dir", s.builder.Config.OutputDir)
	if err := s.Echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *PreviewServer) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}

func (s *PreviewServer) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	if ok && he.Code == http.StatusNotFound {
		if rerr := RenderStatus(c, http.StatusNotFound, s.notFoundPage(c)); rerr != nil {
			s.logger.Error("render not-found page", "err", rerr)
			s.Echo.DefaultHTTPErrorHandler(err, c)
		}
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		s.logger.Error("server error", "uri", c.Request().RequestURI, "err", err)
	}
	s.Echo.DefaultHTTPErrorHandler(err, c)
}

func (s *PreviewServer) notFoundPage(c echo.Context) templ.Component {
	b := s.builder
	data := map[string]any{
		"site":  siteInfo(b.Config),
		"path":  html.EscapeString(c.Request().URL.Path),
		"pages": s.builtPages(),
	}
	return b.renderer.Component(notFoundTemplate, data, b.pageHelpers(PageConfig{}))
}

// builtPages lists the manifest's pages for the not-found page.
func (s *PreviewServer) builtPages() []any {
	m := s.builder.Manifest
	if m == nil {
		return nil
	}
	records, err := m.List()
	if err != nil {
		s.logger.Warn("list manifest", "err", err)
		return nil
	}
	var pages []any
	for _, r := range records {
		rel, err := filepath.Rel(s.builder.Config.OutputDir, r.Output)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		pages = append(pages, map[string]any{"url": pageURL(rel)})
	}
	return pages
}
