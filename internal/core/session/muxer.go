// This file implements the media muxer:
// building FLV-style tag bodies from producer callbacks and handing them
// to the outbound frame queues with keyframe-aware backpressure.

package session

import (
	"campublish/internal/core/protocol/flv"
	"campublish/internal/core/queue"
)

const (
	videoChunkStreamID uint32 = 6
	audioChunkStreamID uint32 = 5
)

// SubmitVideo accepts one encoded video frame from the camera producer.
// payload must already be the codec's on-wire form (e.g. AVC NALUs with a
// 4-byte length prefix). isSequenceHeader marks the codec config frame
// that must precede the first NALU.
func (s *Session) SubmitVideo(payload []byte, codecID byte, isKeyframe bool, isSequenceHeader bool, tsMS uint32) {
	body := flv.VideoTagBody(codecID, isKeyframe, isSequenceHeader, 0, payload)

	f := queue.AcquireFrame()
	f.Kind = queue.KindVideo
	f.TimestampMS = tsMS
	f.CodecID = codecID
	f.IsKeyframe = isKeyframe
	f.IsSequenceHeader = isSequenceHeader
	f.SetPayload(body)

	before := s.videoQueue.Dropped()
	accepted, stalled := s.videoQueue.Push(f)
	if stalled {
		s.fail(&ProtocolError{Kind: ProtocolWriteStalled})
		return
	}
	if dropped := s.videoQueue.Dropped() - before; dropped > 0 {
		s.stats.addFramesDropped(dropped)
	}
	if !accepted {
		return
	}
	s.wakeWriter()
}

// SubmitAudio accepts one encoded audio frame from the microphone producer.
func (s *Session) SubmitAudio(payload []byte, codecID, sampleRate, bitDepth, channels byte, isSequenceHeader bool, tsMS uint32) {
	body := flv.AudioTagBody(codecID, sampleRate, bitDepth, channels, isSequenceHeader, payload)

	f := queue.AcquireFrame()
	f.Kind = queue.KindAudio
	f.TimestampMS = tsMS
	f.CodecID = codecID
	f.SampleRate = sampleRate
	f.BitDepth = bitDepth
	f.Channels = channels
	f.IsSequenceHeader = isSequenceHeader
	f.SetPayload(body)

	before := s.audioQueue.Dropped()
	s.audioQueue.Push(f)
	if s.audioQueue.Dropped() > before {
		s.stats.addFramesDropped(1)
	}
	s.wakeWriter()
}

// drainFrame pulls the next queued frame (video preferred over audio to
// bound video latency) and writes it as an RTMP message. It yields without
// popping once the peer's window-ack budget is exhausted, resuming when an
// Acknowledgement wakes the writer again.
func (s *Session) drainFrame() bool {
	if s.windowBudgetExceeded() {
		return false
	}
	if f, ok := s.videoQueue.Pop(); ok {
		s.writeMediaFrame(f, videoChunkStreamID, videoMessageType, queue.KindVideo)
		return true
	}
	if f, ok := s.audioQueue.Pop(); ok {
		s.writeMediaFrame(f, audioChunkStreamID, audioMessageType, queue.KindAudio)
		return true
	}
	return false
}
