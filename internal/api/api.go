package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/sampark/sampark/internal/api/auth"
	"github.com/sampark/sampark/internal/api/handler"
	"github.com/sampark/sampark/internal/config"
	"github.com/sampark/sampark/internal/engine"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	cfg       *config.Config
	ginEngine *gin.Engine
	engine    *engine.Engine
}

func New(cfg *config.Config, e *engine.Engine, debug bool) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if e == nil {
		return nil, fmt.Errorf("engine is required")
	}

	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	ginEngine := gin.New()
	ginEngine.Use(gin.Recovery(), requestLogger())

	s := &Server{
		cfg:       cfg,
		ginEngine: ginEngine,
		engine:    e,
	}
	s.setupMiddleware()
	s.setupRoutes()
	s.setupAdminRoutes()
	return s, nil
}

func (s *Server) setupMiddleware() {
	if s.cfg.CORS != nil && len(s.cfg.CORS.AllowedOrigins) > 0 {
		s.ginEngine.Use(cors.New(cors.Config{
			AllowOrigins:  s.cfg.CORS.AllowedOrigins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:  []string{"Content-Type", "Authorization"},
			ExposeHeaders: []string{requestIDHeader},
			MaxAge:        12 * time.Hour,
		}))
	}
	s.ginEngine.Use(gzip.Gzip(gzip.DefaultCompression))
}

func (s *Server) setupRoutes() {
	h := handler.New(s.engine, s.cfg)

	s.ginEngine.GET("/healthz", h.Health)

	api := s.ginEngine.Group("/api")

	public := api.Group("/")
	if s.cfg.RateLimit != nil && s.cfg.RateLimit.Enabled {
		public.Use(newIPRateLimiter(s.cfg.RateLimit).middleware())
	}
	public.POST("/register", h.Register)
	public.POST("/login", h.Login)

	api.GET("/scan/:registration_number", h.Scan)
	api.GET("/analytics/themes", h.Themes)

	protected := api.Group("/")
	protected.Use(auth.RequireAuth(s.engine))
	protected.GET("/profile", h.GetProfile)
	protected.PUT("/profile", h.UpdateProfile)
	protected.POST("/connect", h.Connect)
	protected.GET("/connections", h.Connections)
	protected.GET("/analytics/stats", h.Stats)
}

func (s *Server) setupAdminRoutes() {
	h := handler.NewAdmin(s.engine, s.cfg)

	adminGroup := s.ginEngine.Group("/api/admin")
	adminGroup.Use(auth.RequireAuth(s.engine), auth.RequireAdmin())

	adminGroup.GET("/pending-registrations", h.PendingRegistrations)
	adminGroup.POST("/approve/:id", h.Approve)
	adminGroup.POST("/reject/:id", h.Reject)
	adminGroup.GET("/users", h.Users)
	adminGroup.DELETE("/users/:id", h.DeleteUser)
	adminGroup.GET("/overview", h.Overview)
	adminGroup.GET("/history", h.History)

	// Scheduler
	adminGroup.GET("/jobs", h.Jobs)
	adminGroup.POST("/jobs/:id/run", h.RunJob)

	// Cache
	adminGroup.GET("/cache/stats", h.CacheStats)
	adminGroup.DELETE("/cache", h.ClearCache)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.ginEngine
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.ginEngine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
