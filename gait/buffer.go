package gait

import "sync"

// Buffer is the bounded per-session sample store. Once full, each push
// silently evicts the oldest entry; no notification is given for dropped
// samples. Safe for one writer plus concurrent snapshot readers.
type Buffer struct {
	data     []Sample
	head     int
	size     int
	capacity int
	mu       sync.RWMutex
}

// NewBuffer creates a buffer with the given capacity.
func NewBuffer(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{
		data:     make([]Sample, capacity),
		capacity: capacity,
	}
}

// Push appends a sample, evicting the oldest entry when at capacity.
func (b *Buffer) Push(s Sample) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.data[b.head] = s
	b.head = (b.head + 1) % b.capacity
	if b.size < b.capacity {
		b.size++
	}
}

// Len returns the number of buffered samples.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// Capacity returns the fixed buffer capacity.
func (b *Buffer) Capacity() int { return b.capacity }

// Reset clears the buffer to empty.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.head = 0
	b.size = 0
}

// Snapshot returns the buffered samples in arrival order, oldest first.
// The returned slice is a copy and safe to hold across further pushes.
func (b *Buffer) Snapshot() []Sample {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Sample, b.size)
	for i := 0; i < b.size; i++ {
		idx := (b.head - b.size + i + b.capacity) % b.capacity
		out[i] = b.data[idx]
	}
	return out
}
