package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hejijunhao/teller/internal/engine/resolver"
	"github.com/hejijunhao/teller/internal/model"
)

// Option configures a Server.
type Option func(*Server)

// WithResolver sets the category resolver. Default: resolver.Default().
func WithResolver(r *resolver.Resolver) Option {
	return func(s *Server) { s.handler.resolver = r }
}

// WithMetrics sets the metrics collectors. Default: a fresh NewMetrics().
func WithMetrics(m *Metrics) Option {
	return func(s *Server) { s.handler.metrics = m }
}

// WithDefaultVariant sets the variant used when a request names none.
// Default: logistic.
func WithDefaultVariant(v model.Variant) Option {
	return func(s *Server) { s.handler.defaultVariant = v }
}

// WithLoadedCount reports how many artifacts are resident, for /health.
// *artifact.Cache's Loaded method fits.
func WithLoadedCount(f func() int) Option {
	return func(s *Server) { s.handler.loaded = f }
}

// WithLogger sets the request logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// Server is the HTTP API in front of a Classifier.
type Server struct {
	handler *Handler
	logger  *slog.Logger
	router  *gin.Engine
	http    *http.Server
}

// New builds the router for cls.
func New(cls Classifier, opts ...Option) *Server {
	s := &Server{
		handler: &Handler{
			classifier:     cls,
			defaultVariant: model.Logistic,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.handler.resolver == nil {
		s.handler.resolver = resolver.Default()
	}
	if s.handler.metrics == nil {
		s.handler.metrics = NewMetrics()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.router = s.setup()
	return s
}

func (s *Server) setup() *gin.Engine {
	router := gin.New()

	router.Use(RequestID())
	router.Use(Logger(s.logger))
	router.Use(Recovery(s.logger))
	router.Use(Instrument(s.handler.metrics))

	router.GET("/health", s.handler.Health)
	router.GET("/metrics", gin.WrapH(s.handler.metrics.Handler()))

	v1 := router.Group("/v1")
	{
		v1.POST("/classify", s.handler.Classify)
		v1.GET("/models", s.handler.Models)

		datasets := v1.Group("/datasets")
		{
			datasets.GET("", s.handler.Datasets)
			datasets.GET("/:id", s.handler.Dataset)
		}
	}

	return router
}

// Router returns the configured gin engine.
func (s *Server) Router() *gin.Engine { return s.router }

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics { return s.handler.metrics }

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully within shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("http server shutting down", "timeout", shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
