package buffer

import (
	"fmt"
	"sync/atomic"
)

// ByteOffset represents a byte position in the buffer.
// This is the fundamental position type, directly indexing into the text.
type ByteOffset = int64

// Point represents a line and column position.
// Both Line and Column are 0-indexed.
// Column is measured in bytes from the start of the line.
type Point struct {
	Line   uint32 // 0-indexed line number
	Column uint32 // 0-indexed column (byte offset within line)
}

// String returns a human-readable representation of the point.
func (p Point) String() string {
	return fmt.Sprintf("(%d:%d)", p.Line, p.Column)
}

// DisplayPoint is a line and column in screen cells.
// Tabs expand to the next tab stop and wide graphemes occupy two cells.
type DisplayPoint struct {
	Line   uint32
	Column uint32
}

// String returns a human-readable representation of the display point.
func (p DisplayPoint) String() string {
	return fmt.Sprintf("(%d:%d cells)", p.Line, p.Column)
}

// Bias selects which grapheme boundary a position snaps to when it falls
// inside a character or outside the valid range.
type Bias uint8

const (
	// BiasLeft snaps to the boundary at or before the position.
	BiasLeft Bias = iota
	// BiasRight snaps to the boundary at or after the position.
	BiasRight
)

// String returns the bias name.
func (b Bias) String() string {
	if b == BiasRight {
		return "right"
	}
	return "left"
}

// RevisionID uniquely identifies a buffer revision.
// Each modification to the buffer creates a new revision.
type RevisionID uint64

var revisionCounter uint64

// NewRevisionID generates a new unique revision ID.
func NewRevisionID() RevisionID {
	return RevisionID(atomic.AddUint64(&revisionCounter, 1))
}
