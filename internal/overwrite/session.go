package overwrite

import (
	"github.com/google/uuid"

	"github.com/dshills/overstrike/internal/engine/buffer"
	"github.com/dshills/overstrike/internal/engine/cursor"
	"github.com/dshills/overstrike/internal/logging"
)

// Text is the text a session edits. *buffer.Buffer implements it.
type Text interface {
	Text() string
	TextRange(start, end buffer.ByteOffset) string
	Len() buffer.ByteOffset
	OffsetToPoint(offset buffer.ByteOffset) buffer.Point
	LineEndOffset(line uint32) buffer.ByteOffset
	NextBoundary(offset buffer.ByteOffset) buffer.ByteOffset
	PrevBoundary(offset buffer.ByteOffset) buffer.ByteOffset
	ApplyEdits(edits []buffer.Edit) error
	Snapshot() *buffer.Snapshot
}

// Cursors is the cursor set a session reads and repositions.
// *cursor.CursorSet implements it.
type Cursors interface {
	All() []cursor.Selection
	SetAll(sels []cursor.Selection)
}

// Result describes what a keystroke did.
type Result struct {
	// Edits are the edits applied to the text, in reverse order.
	Edits []buffer.Edit
	// Cursors are the cursor positions after the keystroke.
	Cursors []cursor.Selection
	// Skipped counts cursors that produced no edit.
	Skipped int
	// Misses counts restores that found no tracked original.
	Misses int
}

// Changed reports whether the keystroke edited the text.
func (r Result) Changed() bool {
	return len(r.Edits) > 0
}

// Session is one stay in replace mode.
type Session struct {
	id       uuid.UUID
	snapshot *buffer.Snapshot
	tracker  *Tracker
	logger   *logging.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger used for tracking misses and dropped cursors.
func WithLogger(l *logging.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithID sets the session ID instead of generating one.
func WithID(id uuid.UUID) Option {
	return func(s *Session) {
		s.id = id
	}
}

// NewSession starts a replace-mode session on text, snapshotting its
// current contents.
func NewSession(text Text, opts ...Option) *Session {
	s := &Session{
		id:       uuid.New(),
		snapshot: text.Snapshot(),
		tracker:  NewTracker(),
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent("overwrite").WithField("session", s.id.String()[:8])
	return s
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Snapshot returns the text as it was when the session started, or nil
// once the session is closed.
func (s *Session) Snapshot() *buffer.Snapshot {
	if s == nil {
		return nil
	}
	return s.snapshot
}

// Tracker returns the session's overwrite tracker.
func (s *Session) Tracker() *Tracker {
	return s.tracker
}

// Active reports whether the session is still open.
func (s *Session) Active() bool {
	return s != nil && s.snapshot != nil
}

// Close ends the session. Its records and snapshot are discarded.
// Closing twice is a no-op.
func (s *Session) Close() {
	if !s.Active() {
		return
	}
	s.tracker.Clear()
	s.snapshot = nil
}
