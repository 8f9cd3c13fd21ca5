package journal

import "sync"

// growableBuffer is a thread-safe FIFO that doubles its capacity when
// it reaches 70% full, so appenders never block and never drop.
type growableBuffer[T any] struct {
	mu       sync.Mutex
	buf      []T
	head     int // read position
	tail     int // write position
	count    int
	capacity int
	closed   bool

	totalIn  int64
	totalOut int64
	resizes  int
}

func newGrowableBuffer[T any](initialCapacity int) *growableBuffer[T] {
	if initialCapacity < 1 {
		initialCapacity = 1
	}
	return &growableBuffer[T]{
		buf:      make([]T, initialCapacity),
		capacity: initialCapacity,
	}
}

// Send adds an item, growing the buffer if needed.
// Returns false if the buffer is closed.
func (b *growableBuffer[T]) Send(item T) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}

	// Grow at or above 70% capacity after adding this item.
	threshold := (b.capacity * 70) / 100
	if threshold < 1 {
		threshold = 1
	}
	if b.count+1 >= threshold {
		b.grow()
	}

	b.buf[b.tail] = item
	b.tail = (b.tail + 1) % b.capacity
	b.count++
	b.totalIn++
	return true
}

// DrainTo removes and returns up to max items, oldest first.
// Returns nil when empty.
func (b *growableBuffer[T]) DrainTo(max int) []T {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == 0 {
		return nil
	}

	n := b.count
	if max > 0 && max < n {
		n = max
	}

	result := make([]T, n)
	for i := 0; i < n; i++ {
		result[i] = b.buf[b.head]
		var zero T
		b.buf[b.head] = zero // clear reference for GC
		b.head = (b.head + 1) % b.capacity
		b.count--
		b.totalOut++
	}
	return result
}

// Close closes the buffer. After closing, Send returns false; items
// already buffered can still be drained.
func (b *growableBuffer[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
}

// Len returns the current number of buffered items.
func (b *growableBuffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// grow doubles the buffer capacity. Must be called with lock held.
func (b *growableBuffer[T]) grow() {
	newCapacity := b.capacity * 2
	newBuf := make([]T, newCapacity)

	if b.count > 0 {
		if b.head < b.tail {
			copy(newBuf, b.buf[b.head:b.tail])
		} else {
			n := copy(newBuf, b.buf[b.head:])
			copy(newBuf[n:], b.buf[:b.tail])
		}
	}

	b.buf = newBuf
	b.head = 0
	b.tail = b.count
	b.capacity = newCapacity
	b.resizes++
}
