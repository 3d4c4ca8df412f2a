package ecgreadout

import (
	"errors"
	"sync"
	"sync/atomic"
)

// Sample is one amplitude reading expressed in display pixel units.
type Sample int32

// maxSnapshotRetries bounds how often Snapshot restarts when the producer
// overwrote the whole window while its contents were being copied.
const maxSnapshotRetries = 3

// ErrCapacity is returned when a buffer is created with fewer than 2 slots.
var ErrCapacity = errors.New("ecgreadout: buffer capacity must be at least 2")

// Buffer is a fixed-capacity ring of samples.
//
// The newest sample is always written at the cursor, and the cursor then
// steps backward, so the window of valid samples lies "ahead" of it. One slot
// is kept out of the window so that occupancy never exceeds Cap()-1.
type Buffer struct {
	slots []atomic.Int32

	// Grab mu before touching the metadata below.
	mu        sync.Mutex
	cursor    int
	occupancy int
	seq       uint64 // total number of pushes

	// afterMeta, when set, runs between the metadata read and the copy.
	afterMeta func()
}

// NewBuffer returns an empty buffer of the given capacity.
func NewBuffer(capacity int) (*Buffer, error) {
	if capacity < 2 {
		return nil, ErrCapacity
	}
	return &Buffer{
		slots:  make([]atomic.Int32, capacity),
		cursor: capacity - 1,
	}, nil
}

// Cap returns the number of slots, including the reserved one.
func (b *Buffer) Cap() int {
	return len(b.slots)
}

// Len returns the number of valid samples.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.occupancy
}

// Push stores s as the newest sample, overwriting the oldest one when the
// window is full.
func (b *Buffer) Push(s Sample) {
	b.mu.Lock()
	b.slots[b.cursor].Store(int32(s))
	b.cursor = b.step(b.cursor)
	if b.occupancy < len(b.slots)-1 {
		b.occupancy++
	}
	b.seq++
	b.mu.Unlock()
}

// Reset drops every sample. Slot contents are left as is; they are out of the
// window until overwritten.
func (b *Buffer) Reset() {
	b.mu.Lock()
	b.occupancy = 0
	b.mu.Unlock()
}

// step moves an index one slot backward, staying in [0, Cap()).
func (b *Buffer) step(i int) int {
	return (i - 1 + len(b.slots)) % len(b.slots)
}

// Snapshot returns an independently owned, chronologically ordered copy of
// the window.
//
// The lock is held only while the cursor, occupancy and push counter are
// read; slot contents are copied outside of it. Pushes that happen during
// the copy first consume the free slots behind the cursor and only then
// overwrite the oldest samples of the window, so the number of samples that
// may be torn is known from the push counter alone and those are trimmed
// from the front of the result.
func (b *Buffer) Snapshot() Snapshot {
	var s Snapshot
	for attempt := 0; attempt < maxSnapshotRetries; attempt++ {
		s = b.snapshot()
		if s.Occupancy > 0 || s.torn == 0 {
			break
		}
	}
	return s
}

func (b *Buffer) snapshot() Snapshot {
	capacity := len(b.slots)

	b.mu.Lock()
	cursor, occupancy, seq := b.cursor, b.occupancy, b.seq
	b.mu.Unlock()
	if b.afterMeta != nil {
		b.afterMeta()
	}

	samples := make([]Sample, occupancy)
	for i := range samples {
		// Oldest sample sits occupancy slots ahead of the cursor.
		idx := (cursor + occupancy - i) % capacity
		samples[i] = Sample(b.slots[idx].Load())
	}

	b.mu.Lock()
	pushed := b.seq - seq
	b.mu.Unlock()

	torn := 0
	if free := uint64(capacity - occupancy); pushed > free {
		torn = int(pushed - free)
		if torn > occupancy {
			torn = occupancy
		}
	}
	samples = samples[torn:]
	return Snapshot{
		Samples:   samples,
		Cursor:    cursor,
		Occupancy: len(samples),
		Capacity:  capacity,
		Seq:       seq,
		torn:      torn,
	}
}

// Snapshot is an immutable copy of a Buffer window captured at one instant.
type Snapshot struct {
	// Samples holds the window, oldest first.
	Samples []Sample
	// Cursor is the write cursor of the buffer when the copy was taken.
	Cursor int
	// Occupancy is len(Samples).
	Occupancy int
	// Capacity is the capacity of the source buffer.
	Capacity int
	// Seq is the number of pushes the buffer had seen when the copy started.
	Seq uint64

	torn int
}

// Len returns the number of samples in the snapshot.
func (s Snapshot) Len() int {
	return len(s.Samples)
}

// At returns the i-th oldest sample.
func (s Snapshot) At(i int) Sample {
	return s.Samples[i]
}

// Equal reports whether two snapshots hold the same window.
func (s Snapshot) Equal(o Snapshot) bool {
	if s.Cursor != o.Cursor || s.Capacity != o.Capacity || len(s.Samples) != len(o.Samples) {
		return false
	}
	for i := range s.Samples {
		if s.Samples[i] != o.Samples[i] {
			return false
		}
	}
	return true
}
