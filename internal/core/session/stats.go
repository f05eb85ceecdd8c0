// This file holds the session's telemetry counters. They are
// updated atomically by the goroutines that send or drop frames and read via
// atomic load by monitors (the diagnostics HTTP server).

package session

import "sync/atomic"

// Stats exposes running counters for a session. All fields are accessed
// atomically. Bytes and frames sent are added by whichever goroutine writes
// to the socket (Start's command sequence, then the writer task);
// framesDropped is added by the producer calling SubmitVideo/SubmitAudio.
type Stats struct {
	bytesSent      atomic.Uint64
	framesSent     atomic.Uint64
	framesDropped  atomic.Uint64
	videosSent     atomic.Uint64
	audiosSent     atomic.Uint64
}

func (s *Stats) addBytesSent(n int) {
	s.bytesSent.Add(uint64(n))
}

func (s *Stats) addFrameSent(kind BackpressureKind) {
	s.framesSent.Add(1)
	switch kind {
	case BackpressureVideo:
		s.videosSent.Add(1)
	case BackpressureAudio:
		s.audiosSent.Add(1)
	}
}

func (s *Stats) addFramesDropped(n uint64) {
	s.framesDropped.Add(n)
}

// Snapshot is a point-in-time, read-only copy of Stats for telemetry.
type Snapshot struct {
	BytesSent     uint64 `json:"bytes_sent"`
	FramesSent    uint64 `json:"frames_sent"`
	FramesDropped uint64 `json:"frames_dropped"`
	VideosSent    uint64 `json:"videos_sent"`
	AudiosSent    uint64 `json:"audios_sent"`
}

// Snapshot reads all counters atomically.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		BytesSent:     s.bytesSent.Load(),
		FramesSent:    s.framesSent.Load(),
		FramesDropped: s.framesDropped.Load(),
		VideosSent:    s.videosSent.Load(),
		AudiosSent:    s.audiosSent.Load(),
	}
}
