package ui

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"godea/app"
	"godea/internal"
)

// Server exposes the analysis service over HTTP. It keeps no state between requests.
type Server struct {
	router    *gin.Engine
	analysis  *app.AnalysisService
	maxUpload int64
	logger    *internal.Logger
}

// ServerConfig configures the HTTP server
type ServerConfig struct {
	GinMode        string
	MaxUploadBytes int64
	Logger         *internal.Logger
}

// NewServer creates a new web server instance
func NewServer(analysis *app.AnalysisService, cfg ServerConfig) *Server {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	if cfg.Logger == nil {
		cfg.Logger = internal.DefaultLogger
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20 << 20
	}

	router := gin.New()
	s := &Server{
		router:    router,
		analysis:  analysis,
		maxUpload: cfg.MaxUploadBytes,
		logger:    cfg.Logger.Named("Server"),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealth)

	api := s.router.Group("/api")
	api.Use(s.limitUpload())
	api.POST("/columns", s.handleColumns)
	api.POST("/analyses", s.handleAnalysis)
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
