// This file implements a lock-free ring buffer for frame
// delivery from a producer task to the session task.
// CRITICAL: Both writePos and readPos increment freely (never masked). Only use the mask
// when indexing into the buffer array. The emptiness check readPos==writePos relies on
// both counters using the same domain.

package queue

import (
	"sync/atomic"
)

// BackpressureStrategy defines how the ring buffer handles overflow.
type BackpressureStrategy uint8

const (
	// BackpressureDropOldest drops the oldest frame when the buffer is full.
	BackpressureDropOldest BackpressureStrategy = iota
	// BackpressureDropNewest drops the newest frame when the buffer is full.
	BackpressureDropNewest
)

// RingBuffer is a bounded circular buffer for *Frame delivery, lock-free
// for the single-producer/single-consumer case the session model requires.
type RingBuffer struct {
	buffer   []*Frame
	size     uint32
	mask     uint32
	writePos uint32
	readPos  uint32
	strategy BackpressureStrategy
	dropped  uint64
}

// NewRingBuffer creates a ring buffer with the given capacity, rounded up
// to a power of 2 for efficient modulo via bitmask.
func NewRingBuffer(capacity uint32, strategy BackpressureStrategy) *RingBuffer {
	actualSize := uint32(1)
	for actualSize < capacity {
		actualSize <<= 1
	}

	return &RingBuffer{
		buffer:   make([]*Frame, actualSize),
		size:     actualSize,
		mask:     actualSize - 1,
		strategy: strategy,
	}
}

// Write attempts to enqueue f. Returns false only under DropNewest when
// the buffer is full; under DropOldest it always succeeds, evicting the
// oldest entry first.
func (rb *RingBuffer) Write(f *Frame) bool {
	accepted, _, _ := rb.WriteEvict(f)
	return accepted
}

// WriteEvict is Write plus the evicted frame, if DropOldest policy had to
// make room — the caller owns releasing it back to the frame pool.
func (rb *RingBuffer) WriteEvict(f *Frame) (accepted bool, evicted *Frame, didEvict bool) {
	if f == nil {
		return false, nil, false
	}

	writePos := atomic.LoadUint32(&rb.writePos)
	readPos := atomic.LoadUint32(&rb.readPos)

	if writePos-readPos >= rb.size {
		atomic.AddUint64(&rb.dropped, 1)
		if rb.strategy == BackpressureDropOldest {
			evicted = rb.buffer[readPos&rb.mask]
			didEvict = true
			atomic.AddUint32(&rb.readPos, 1)
		} else {
			return false, nil, false
		}
	}

	rb.buffer[writePos&rb.mask] = f
	atomic.StoreUint32(&rb.writePos, writePos+1)
	return true, evicted, didEvict
}

// Read dequeues the oldest frame, or returns false if the buffer is empty.
func (rb *RingBuffer) Read() (*Frame, bool) {
	readPos := atomic.LoadUint32(&rb.readPos)
	writePos := atomic.LoadUint32(&rb.writePos)

	if readPos == writePos {
		return nil, false
	}

	f := rb.buffer[readPos&rb.mask]
	atomic.AddUint32(&rb.readPos, 1)
	return f, true
}

// Dropped returns the number of frames dropped due to backpressure.
func (rb *RingBuffer) Dropped() uint64 {
	return atomic.LoadUint64(&rb.dropped)
}

// Available returns the number of free slots in the buffer.
func (rb *RingBuffer) Available() uint32 {
	writePos := atomic.LoadUint32(&rb.writePos)
	readPos := atomic.LoadUint32(&rb.readPos)
	used := writePos - readPos
	return rb.size - used
}
