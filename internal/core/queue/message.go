// This file defines Frame, the unit of media handed from a
// producer task (camera, microphone) to the session's outbound queues.
// Payload memory comes from a pool to avoid allocations in the hot path.

package queue

import (
	"sync"
)

// Kind distinguishes the media carried by a Frame.
type Kind uint8

const (
	KindVideo Kind = iota
	KindAudio
)

func (k Kind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindAudio:
		return "audio"
	default:
		return "unknown"
	}
}

// Frame is one submitted media sample queued for the session's writer.
// Ownership: the queue owns the Frame from the moment Write succeeds until
// the session task drains and releases it back to the pool.
type Frame struct {
	Kind             Kind
	TimestampMS      uint32
	CodecID          byte
	IsKeyframe       bool
	IsSequenceHeader bool
	SampleRate       byte // audio only
	BitDepth         byte // audio only
	Channels         byte // audio only
	Payload          []byte
}

var framePool = sync.Pool{
	New: func() interface{} {
		return &Frame{}
	},
}

// AcquireFrame takes a Frame from the pool. The caller must ReleaseFrame
// it once the session has finished writing it out.
func AcquireFrame() *Frame {
	f := framePool.Get().(*Frame)
	*f = Frame{}
	return f
}

// ReleaseFrame returns a Frame and its payload buffer to their pools.
func ReleaseFrame(f *Frame) {
	if f == nil {
		return
	}
	ReleasePayload(f.Payload)
	f.Payload = nil
	framePool.Put(f)
}

var payloadPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, 0, 64*1024)
		return &buf
	},
}

// AcquirePayload takes a payload buffer from the pool, reset to length 0.
func AcquirePayload() []byte {
	bufPtr := payloadPool.Get().(*[]byte)
	return (*bufPtr)[:0]
}

// ReleasePayload returns a payload buffer to the pool. Buffers that grew
// unusually large are not pooled, to avoid holding onto memory bloat.
func ReleasePayload(buf []byte) {
	if buf == nil {
		return
	}
	buf = buf[:0]
	if cap(buf) <= 256*1024 {
		payloadPool.Put(&buf)
	}
}

// SetPayload copies data into a pooled buffer and attaches it to the frame.
func (f *Frame) SetPayload(data []byte) {
	buf := AcquirePayload()
	f.Payload = append(buf, data...)
}
