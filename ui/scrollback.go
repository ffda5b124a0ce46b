package ui

import "github.com/drake/pimeconsole/text"

// ScrollbackBuffer is a ring buffer of classified output lines.
// It provides O(1) append, O(1) eviction when full, and O(1) random access.
type ScrollbackBuffer struct {
	lines    []text.Line // Fixed-size ring buffer
	head     int         // Index of oldest line
	tail     int         // Index where next line will be written
	count    int
	capacity int
}

// NewScrollbackBuffer creates a new ring buffer with the given capacity.
func NewScrollbackBuffer(capacity int) *ScrollbackBuffer {
	if capacity <= 0 {
		capacity = 5000
	}
	return &ScrollbackBuffer{
		lines:    make([]text.Line, capacity),
		capacity: capacity,
	}
}

// Append adds a line to the buffer. If full, the oldest line is evicted.
func (sb *ScrollbackBuffer) Append(line text.Line) {
	sb.lines[sb.tail] = line
	sb.tail = (sb.tail + 1) % sb.capacity

	if sb.count < sb.capacity {
		sb.count++
	} else {
		sb.head = (sb.head + 1) % sb.capacity
	}
}

// AppendBatch adds multiple lines.
func (sb *ScrollbackBuffer) AppendBatch(lines []text.Line) {
	for _, line := range lines {
		sb.Append(line)
	}
}

// Count returns the number of lines currently in the buffer.
func (sb *ScrollbackBuffer) Count() int {
	return sb.count
}

// Capacity returns the maximum number of lines the buffer can hold.
func (sb *ScrollbackBuffer) Capacity() int {
	return sb.capacity
}

// Get retrieves a line by logical index (0 = oldest, count-1 = newest).
// Returns the zero Line if index is out of bounds.
func (sb *ScrollbackBuffer) Get(index int) text.Line {
	if index < 0 || index >= sb.count {
		return text.Line{}
	}
	return sb.lines[(sb.head+index)%sb.capacity]
}

// GetRange retrieves lines by logical index range [start, end).
func (sb *ScrollbackBuffer) GetRange(start, end int) []text.Line {
	if start < 0 {
		start = 0
	}
	if end > sb.count {
		end = sb.count
	}
	if start >= end {
		return nil
	}

	result := make([]text.Line, 0, end-start)
	for i := start; i < end; i++ {
		result = append(result, sb.Get(i))
	}
	return result
}

// All returns every line, oldest first.
func (sb *ScrollbackBuffer) All() []text.Line {
	return sb.GetRange(0, sb.count)
}

// Clear removes all lines from the buffer.
func (sb *ScrollbackBuffer) Clear() {
	clear(sb.lines)
	sb.head = 0
	sb.tail = 0
	sb.count = 0
}
