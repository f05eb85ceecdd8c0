// This file contains unit tests for the ring buffer.

package queue

import (
	"testing"
)

func TestRingBufferWriteRead(t *testing.T) {
	rb := NewRingBuffer(8, BackpressureDropOldest)

	f := AcquireFrame()
	f.Kind = KindVideo

	if !rb.Write(f) {
		t.Error("Write should succeed on empty buffer")
	}

	read, ok := rb.Read()
	if !ok {
		t.Error("Read should succeed after write")
	}
	if read != f {
		t.Error("Read should return same frame")
	}

	_, ok = rb.Read()
	if ok {
		t.Error("Read should fail on empty buffer")
	}
}

func TestRingBufferFull(t *testing.T) {
	rb := NewRingBuffer(4, BackpressureDropOldest)

	for i := 0; i < 4; i++ {
		f := AcquireFrame()
		f.Kind = KindVideo
		if !rb.Write(f) {
			t.Errorf("Write %d should succeed", i)
		}
	}

	if rb.Available() != 0 {
		t.Errorf("Expected 0 available, got %d", rb.Available())
	}

	droppedBefore := rb.Dropped()
	f := AcquireFrame()
	f.Kind = KindVideo
	if !rb.Write(f) {
		t.Error("Write should succeed (dropping oldest)")
	}

	if rb.Dropped() != droppedBefore+1 {
		t.Error("Dropped count should increase")
	}
}

func TestRingBufferDropNewest(t *testing.T) {
	rb := NewRingBuffer(4, BackpressureDropNewest)

	for i := 0; i < 4; i++ {
		f := AcquireFrame()
		f.Kind = KindVideo
		rb.Write(f)
	}

	droppedBefore := rb.Dropped()
	f := AcquireFrame()
	f.Kind = KindVideo
	if rb.Write(f) {
		t.Error("Write should return false with drop newest when buffer is full")
	}

	if rb.Dropped() != droppedBefore+1 {
		t.Error("Dropped count should increase")
	}
}

func TestRingBufferMultipleReads(t *testing.T) {
	rb := NewRingBuffer(8, BackpressureDropOldest)

	for i := 0; i < 5; i++ {
		f := AcquireFrame()
		f.TimestampMS = uint32(i * 1000)
		rb.Write(f)
	}

	for i := 0; i < 5; i++ {
		f, ok := rb.Read()
		if !ok {
			t.Errorf("Read %d should succeed", i)
		}
		if f.TimestampMS != uint32(i*1000) {
			t.Errorf("Expected timestamp %d, got %d", i*1000, f.TimestampMS)
		}
	}

	_, ok := rb.Read()
	if ok {
		t.Error("Read should fail on empty buffer")
	}
}

// TestRingBufferWrapAround verifies the ring buffer works correctly after
// more frames have been written+read than the buffer size — this catches
// the class of bug where writePos is masked but readPos isn't, breaking
// the emptiness check after exactly `size` frames.
func TestRingBufferWrapAround(t *testing.T) {
	rb := NewRingBuffer(4, BackpressureDropOldest)

	for round := 0; round < 3; round++ {
		for i := 0; i < 4; i++ {
			f := AcquireFrame()
			f.TimestampMS = uint32(round*100 + i)
			if !rb.Write(f) {
				t.Fatalf("Round %d write %d failed", round, i)
			}
		}
		for i := 0; i < 4; i++ {
			f, ok := rb.Read()
			if !ok {
				t.Fatalf("Round %d read %d: buffer unexpectedly empty", round, i)
			}
			expected := uint32(round*100 + i)
			if f.TimestampMS != expected {
				t.Fatalf("Round %d read %d: expected ts %d, got %d", round, i, expected, f.TimestampMS)
			}
		}

		if _, ok := rb.Read(); ok {
			t.Fatalf("Round %d: buffer should be empty after draining", round)
		}
	}
}

// TestRingBufferInterleavedWrapAround verifies interleaved write/read
// across multiple wrap-arounds of the internal counter.
func TestRingBufferInterleavedWrapAround(t *testing.T) {
	rb := NewRingBuffer(4, BackpressureDropOldest)

	for i := 0; i < 100; i++ {
		f := AcquireFrame()
		f.TimestampMS = uint32(i)
		if !rb.Write(f) {
			t.Fatalf("Write %d failed", i)
		}
		got, ok := rb.Read()
		if !ok {
			t.Fatalf("Read %d: buffer unexpectedly empty", i)
		}
		if got.TimestampMS != uint32(i) {
			t.Fatalf("Read %d: expected ts %d, got %d", i, i, got.TimestampMS)
		}
	}

	if _, ok := rb.Read(); ok {
		t.Fatal("Buffer should be empty after all reads")
	}
}
