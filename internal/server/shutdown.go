// This file handles graceful shutdown orchestration for the publish
// process: it races an OS signal against the session ending on its own,
// then tears down the session and the diagnostics server in order.

package server

import (
	"os"
	"os/signal"
	"syscall"

	"campublish/internal/core/session"
)

// ShutdownHandler coordinates process teardown between an OS signal and the
// session's own completion (a fatal error, or a peer closing the stream).
type ShutdownHandler struct {
	sess *session.Session
	srv  *Server // nil when the diagnostics server is disabled
}

// NewShutdownHandler creates a handler for sess. srv may be nil if the
// diagnostics server was not started.
func NewShutdownHandler(sess *session.Session, srv *Server) *ShutdownHandler {
	return &ShutdownHandler{sess: sess, srv: srv}
}

// Wait blocks until SIGINT/SIGTERM arrives or the session ends on its own,
// disconnects the session, and shuts down the diagnostics server if present.
// It returns the session's terminal error, if it ended abnormally.
func (h *ShutdownHandler) Wait() error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
	case <-h.sess.Done():
	}

	h.sess.Disconnect()

	if h.srv != nil {
		_ = h.srv.ShutdownWithTimeout()
	}

	return h.sess.Err()
}
