package buffer

import (
	"errors"
	"io"
	"strings"
	"sync"
)

// Errors returned by buffer operations.
var (
	ErrOffsetOutOfRange = errors.New("offset out of range")
	ErrRangeInvalid     = errors.New("invalid range")
	ErrEditsOverlap     = errors.New("edits overlap or are not in reverse order")
)

// LineEnding specifies the line ending style used when writing the buffer out.
type LineEnding uint8

const (
	LineEndingLF   LineEnding = iota // Unix: \n
	LineEndingCRLF                   // Windows: \r\n
	LineEndingCR                     // Old Mac: \r
)

// String returns the string representation of the line ending.
func (le LineEnding) String() string {
	switch le {
	case LineEndingCRLF:
		return "\\r\\n"
	case LineEndingCR:
		return "\\r"
	default:
		return "\\n"
	}
}

// Sequence returns the actual line ending characters.
func (le LineEnding) Sequence() string {
	switch le {
	case LineEndingCRLF:
		return "\r\n"
	case LineEndingCR:
		return "\r"
	default:
		return "\n"
	}
}

// ParseLineEnding maps "lf", "crlf" and "cr" to a LineEnding.
func ParseLineEnding(s string) (LineEnding, bool) {
	switch strings.ToLower(s) {
	case "lf", "unix", "":
		return LineEndingLF, true
	case "crlf", "windows", "dos":
		return LineEndingCRLF, true
	case "cr", "mac":
		return LineEndingCR, true
	}
	return LineEndingLF, false
}

// Buffer is the mutable text sequence edited by the editor.
// Content is held with \n line endings; the configured LineEnding is
// applied by WriteTo.
// All methods are thread-safe.
type Buffer struct {
	mu         sync.RWMutex
	text       text
	revisionID RevisionID
	lineEnding LineEnding
	tabWidth   int
}

// NewBuffer creates a new empty buffer.
func NewBuffer(opts ...Option) *Buffer {
	b := &Buffer{
		text:       newText(""),
		revisionID: NewRevisionID(),
		lineEnding: LineEndingLF,
		tabWidth:   4,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// NewBufferFromString creates a buffer with initial content.
func NewBufferFromString(s string, opts ...Option) *Buffer {
	b := NewBuffer(opts...)
	b.text = newText(normalizeLineEndings(s))
	return b
}

// NewBufferFromReader creates a buffer from an io.Reader.
func NewBufferFromReader(r io.Reader, opts ...Option) (*Buffer, error) {
	// Read everything first; CRLF pairs may straddle read boundaries.
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return NewBufferFromString(string(data), opts...), nil
}

func normalizeLineEndings(s string) string {
	if !strings.ContainsRune(s, '\r') {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// Read Operations

// Text returns the full buffer content as a string.
func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text.s
}

// TextRange returns text in the given byte range.
func (b *Buffer) TextRange(start, end ByteOffset) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text.slice(start, end)
}

// Len returns the total byte length of the buffer.
func (b *Buffer) Len() ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text.len()
}

// LineCount returns the number of lines.
func (b *Buffer) LineCount() uint32 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text.lineCount()
}

// LineText returns the text of a specific line (without newline).
func (b *Buffer) LineText(line uint32) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text.lineText(line)
}

// LineLen returns the length of a specific line in bytes (without newline).
func (b *Buffer) LineLen(line uint32) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return int(b.text.lineEnd(line) - b.text.lineStart(line))
}

// LineStartOffset returns the byte offset of the start of a line.
func (b *Buffer) LineStartOffset(line uint32) ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text.lineStart(line)
}

// LineEndOffset returns the byte offset of the end of a line (before newline).
func (b *Buffer) LineEndOffset(line uint32) ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text.lineEnd(line)
}

// GraphemeAt returns the character (grapheme cluster) starting at offset
// and its width in cells. It returns "" past the end of the buffer.
func (b *Buffer) GraphemeAt(offset ByteOffset) (string, int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text.graphemeAt(offset)
}

// NextBoundary returns the offset one character after offset.
func (b *Buffer) NextBoundary(offset ByteOffset) ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text.nextBoundary(offset)
}

// PrevBoundary returns the offset one character before offset.
func (b *Buffer) PrevBoundary(offset ByteOffset) ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text.prevBoundary(offset)
}

// Coordinate Conversion

// OffsetToPoint converts a byte offset to line/column.
func (b *Buffer) OffsetToPoint(offset ByteOffset) Point {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text.offsetToPoint(offset)
}

// PointToOffset converts line/column to byte offset.
func (b *Buffer) PointToOffset(point Point) ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text.pointToOffset(point)
}

// ClipPoint clamps point into the buffer. A column inside a character
// snaps to its start with BiasLeft or its end with BiasRight; a column past
// the line end clips to the line end.
func (b *Buffer) ClipPoint(point Point, bias Bias) Point {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text.clipPoint(point, bias)
}

// ClipOffset is ClipPoint for byte offsets.
func (b *Buffer) ClipOffset(offset ByteOffset, bias Bias) ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text.clipOffset(offset, bias)
}

// OffsetToDisplay converts a byte offset to screen cell coordinates.
func (b *Buffer) OffsetToDisplay(offset ByteOffset) DisplayPoint {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text.offsetToDisplay(offset, b.tabWidth)
}

// DisplayToOffset converts screen cell coordinates to a byte offset.
// A cell in the middle of a wide character or tab resolves by bias.
func (b *Buffer) DisplayToOffset(point DisplayPoint, bias Bias) ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text.displayToOffset(point, bias, b.tabWidth)
}

// Write Operations

// Insert inserts text at the given offset.
// Returns the end position of the inserted text.
func (b *Buffer) Insert(offset ByteOffset, s string) (ByteOffset, error) {
	if err := b.ApplyEdits([]Edit{NewInsert(offset, s)}); err != nil {
		if errors.Is(err, ErrRangeInvalid) {
			return 0, ErrOffsetOutOfRange
		}
		return 0, err
	}
	return offset + ByteOffset(len(normalizeLineEndings(s))), nil
}

// Delete removes text in the given range.
func (b *Buffer) Delete(start, end ByteOffset) error {
	return b.ApplyEdits([]Edit{NewDelete(start, end)})
}

// Replace replaces text in the given range with new text.
// Returns the end position of the replacement text.
func (b *Buffer) Replace(start, end ByteOffset, s string) (ByteOffset, error) {
	if err := b.ApplyEdits([]Edit{NewEdit(NewRange(start, end), s)}); err != nil {
		return 0, err
	}
	return start + ByteOffset(len(normalizeLineEndings(s))), nil
}

// ApplyEdits applies multiple edits atomically.
// Edits must be in reverse order (highest offset first) and must not
// overlap. Nothing is modified unless every edit is valid.
func (b *Buffer) ApplyEdits(edits []Edit) error {
	if len(edits) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !EditsInReverseOrder(edits) {
		return ErrEditsOverlap
	}

	textLen := b.text.len()
	normalized := make([]Edit, len(edits))
	for i, edit := range edits {
		if edit.Range.Start < 0 || !edit.Range.IsValid() || edit.Range.End > textLen {
			return ErrRangeInvalid
		}
		normalized[i] = Edit{Range: edit.Range, NewText: normalizeLineEndings(edit.NewText)}
	}

	b.text = b.text.apply(normalized)
	b.revisionID = NewRevisionID()
	return nil
}

// Buffer State

// RevisionID returns the current revision ID.
func (b *Buffer) RevisionID() RevisionID {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.revisionID
}

// IsEmpty returns true if the buffer is empty.
func (b *Buffer) IsEmpty() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text.len() == 0
}

// LineEnding returns the buffer's line ending style.
func (b *Buffer) LineEnding() LineEnding {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lineEnding
}

// SetLineEnding sets the line ending used by WriteTo.
func (b *Buffer) SetLineEnding(le LineEnding) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lineEnding = le
}

// TabWidth returns the buffer's tab width.
func (b *Buffer) TabWidth() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.tabWidth
}

// SetTabWidth sets the buffer's tab width. Non-positive widths are ignored.
func (b *Buffer) SetTabWidth(width int) {
	if width <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tabWidth = width
}

// WriteTo writes the buffer content using the configured line ending.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	b.mu.RLock()
	s := b.text.s
	le := b.lineEnding
	b.mu.RUnlock()

	if le != LineEndingLF {
		s = strings.ReplaceAll(s, "\n", le.Sequence())
	}
	n, err := io.WriteString(w, s)
	return int64(n), err
}

// Snapshot returns a read-only snapshot of the current buffer state.
// Safe for concurrent access from other goroutines.
func (b *Buffer) Snapshot() *Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return &Snapshot{
		text:       b.text, // immutable, safe to share
		revisionID: b.revisionID,
		lineEnding: b.lineEnding,
		tabWidth:   b.tabWidth,
	}
}
