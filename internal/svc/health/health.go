// This file implements the diagnostics HTTP surface: a liveness probe and a
// read-only telemetry snapshot of the running session, for local monitoring
// and integration tests. It is not part of the RTMP wire protocol.

package health

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campublish/internal/core/session"
)

// StatsSource is satisfied by *session.Session. A narrow interface keeps
// this package from depending on session internals beyond the snapshot.
type StatsSource interface {
	State() session.State
	Stats() session.Snapshot
}

// Service serves /healthz and /stats for a running session.
type Service struct {
	src StatsSource
}

// New creates a health service reporting on src. src may be nil before a
// session has been started; /stats then reports a zero snapshot.
func New(src StatsSource) *Service {
	return &Service{src: src}
}

// RegisterRoutes adds the diagnostics routes to the engine.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/healthz", s.handleHealth)
	r.GET("/stats", s.handleStats)
}

func (s *Service) handleHealth(c *gin.Context) {
	c.Status(http.StatusOK)
}

type statsResponse struct {
	State string           `json:"state"`
	Stats session.Snapshot `json:"stats"`
}

func (s *Service) handleStats(c *gin.Context) {
	if s.src == nil {
		c.JSON(http.StatusOK, statsResponse{State: session.StateDisconnected.String()})
		return
	}
	c.JSON(http.StatusOK, statsResponse{
		State: s.src.State().String(),
		Stats: s.src.Stats(),
	})
}
