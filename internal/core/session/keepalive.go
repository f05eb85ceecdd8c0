// This file implements the session's own liveness check: a
// periodic User Control PingRequest, independent of anything the ingest
// sends. An embedded camera's uplink can black-hole writes for a long time
// before TCP itself notices, so the session declares the peer dead after
// a run of unanswered pings rather than waiting on a kernel timeout.

package session

import (
	"time"

	"campublish/internal/core/protocol/rtmp"
)

// keepaliveLoop sends a PingRequest every KeepaliveIntervalMS while
// STREAMING. handleInbound resets the missed-ping counter on each
// PingResponse; once MaxMissedPings consecutive pings go unanswered, the
// session fails as a dead peer.
func (s *Session) keepaliveLoop() {
	interval := time.Duration(s.cfg.KeepaliveIntervalMS) * time.Millisecond
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if int(s.missedPings.Load()) >= s.cfg.MaxMissedPings {
				s.fail(&NetworkError{Kind: KindPeerClosed})
				return
			}
			s.missedPings.Add(1)
			ts := uint32(time.Now().UnixMilli())
			s.postCtrl(protocolControlChunkStreamID, rtmp.MessageTypeUserCtrl, rtmp.CreatePingRequest(ts))
		}
	}
}
