// This file implements the diagnostics HTTP server lifecycle and routing.
// It carries no RTMP traffic; it exists so an operator (or a test harness)
// can poll /healthz and /stats against a running publish session.

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"campublish/internal/config"
	"campublish/internal/svc/health"
)

// Server wraps the diagnostics HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	healthSvc  *health.Service
}

// New creates a diagnostics server bound to cfg.Diagnostics.Port, reporting
// on src (typically the active *session.Session). The server is not
// started until Start is called.
func New(cfg *config.Config, src health.StatsSource) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.Default())

	healthSvc := health.New(src)
	healthSvc.RegisterRoutes(engine)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Diagnostics.Port),
		Handler: engine,
	}

	return &Server{
		httpServer: httpServer,
		healthSvc:  healthSvc,
	}
}

// Start begins serving HTTP requests. This method blocks until the server
// is stopped or encounters an error.
func (s *Server) Start() error {
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server with a timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ShutdownWithTimeout stops the server with a fixed 5-second timeout.
func (s *Server) ShutdownWithTimeout() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}
