// This file implements the audio frame queue: bounded depth
// 8 by default, drops the oldest sample when full. Audio has no keyframe
// concept, so the ring buffer's plain drop-oldest policy is sufficient.

package queue

// AudioQueue is a bounded audio frame queue built on RingBuffer.
type AudioQueue struct {
	rb *RingBuffer
}

// NewAudioQueue creates an audio queue with the given depth (default 8).
func NewAudioQueue(depth int) *AudioQueue {
	return &AudioQueue{rb: NewRingBuffer(uint32(depth), BackpressureDropOldest)}
}

// Push enqueues f, dropping the oldest sample if the queue is full.
func (q *AudioQueue) Push(f *Frame) {
	if _, evicted, didEvict := q.rb.WriteEvict(f); didEvict {
		ReleaseFrame(evicted)
	}
}

// Pop dequeues the oldest frame, or returns false if the queue is empty.
func (q *AudioQueue) Pop() (*Frame, bool) {
	return q.rb.Read()
}

// Dropped returns the number of samples dropped due to backpressure.
func (q *AudioQueue) Dropped() uint64 {
	return q.rb.Dropped()
}
