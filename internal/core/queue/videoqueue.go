// This file implements the video frame queue's backpressure
// policy: bounded depth, drop the oldest non-keyframe when full, and never
// drop a keyframe — a keyframe that can't be enqueued stalls the session
// instead.

package queue

import "sync"

// VideoQueue is a bounded, single-producer/single-consumer queue of video
// frames with keyframe-aware backpressure.
type VideoQueue struct {
	mu      sync.Mutex
	frames  []*Frame
	cap     int
	dropped uint64
}

// NewVideoQueue creates a video queue with the given depth (default 4).
func NewVideoQueue(depth int) *VideoQueue {
	return &VideoQueue{frames: make([]*Frame, 0, depth), cap: depth}
}

// Push enqueues f. If the queue is full, the oldest non-keyframe entry is
// dropped to make room. If the queue holds only keyframes and f is a
// non-keyframe, f itself is dropped (accepted=false, stalled=false). If the
// queue holds only keyframes and f is also a keyframe, Push returns
// stalled=true and does not enqueue f — the caller must transition the
// session to CLOSING with WriteStalled.
func (q *VideoQueue) Push(f *Frame) (accepted bool, stalled bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.frames) < q.cap {
		q.frames = append(q.frames, f)
		return true, false
	}

	if !f.IsKeyframe {
		// Drop the oldest non-keyframe to make room for this one.
		for i, old := range q.frames {
			if !old.IsKeyframe {
				ReleaseFrame(old)
				q.frames = append(q.frames[:i], q.frames[i+1:]...)
				q.dropped++
				q.frames = append(q.frames, f)
				return true, false
			}
		}
		// No non-keyframe to evict: drop f itself instead.
		ReleaseFrame(f)
		q.dropped++
		return false, false
	}

	// f is a keyframe: try to make room by dropping an existing non-keyframe.
	for i, old := range q.frames {
		if !old.IsKeyframe {
			ReleaseFrame(old)
			q.frames = append(q.frames[:i], q.frames[i+1:]...)
			q.dropped++
			q.frames = append(q.frames, f)
			return true, false
		}
	}

	// Every slot holds a keyframe and f is also a keyframe: cannot drop
	// any of them without losing a reference frame the decoder needs.
	return false, true
}

// Pop dequeues the oldest frame, or returns false if the queue is empty.
func (q *VideoQueue) Pop() (*Frame, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.frames) == 0 {
		return nil, false
	}
	f := q.frames[0]
	q.frames = q.frames[1:]
	return f, true
}

// Len reports the current queue depth.
func (q *VideoQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.frames)
}

// Dropped returns the number of non-keyframes dropped due to backpressure.
func (q *VideoQueue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
