package overwrite

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/overstrike/internal/engine/buffer"
	"github.com/dshills/overstrike/internal/engine/cursor"
	"github.com/dshills/overstrike/internal/logging"
)

func setup(text string, offsets ...buffer.ByteOffset) (*buffer.Buffer, *cursor.CursorSet, *Session) {
	buf := buffer.NewBufferFromString(text)
	sels := make([]cursor.Selection, len(offsets))
	for i, off := range offsets {
		sels[i] = cursor.NewCursorSelection(off)
	}
	return buf, cursor.NewCursorSetFromSlice(sels), NewSession(buf)
}

func typeAll(t *testing.T, s *Session, buf *buffer.Buffer, cs *cursor.CursorSet, inputs ...string) {
	t.Helper()
	for _, in := range inputs {
		_, err := s.Type(buf, cs, in)
		require.NoError(t, err, "typing %q", in)
	}
}

func undoN(t *testing.T, s *Session, buf *buffer.Buffer, cs *cursor.CursorSet, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := s.Undo(buf, cs)
		require.NoError(t, err)
	}
}

// fixedCursors keeps selections exactly as given, without merging.
type fixedCursors struct {
	sels []cursor.Selection
}

func (f *fixedCursors) All() []cursor.Selection {
	return append([]cursor.Selection(nil), f.sels...)
}

func (f *fixedCursors) SetAll(sels []cursor.Selection) {
	f.sels = sels
}

func TestTypeOverwrites(t *testing.T) {
	buf, cs, s := setup("abc", 0)

	res, err := s.Type(buf, cs, "X")
	require.NoError(t, err)
	assert.Equal(t, "Xbc", buf.Text())
	assert.Equal(t, []buffer.ByteOffset{1}, cs.Heads())
	assert.Equal(t, []buffer.Edit{buffer.NewEdit(rng(0, 1), "X")}, res.Edits)
	assert.True(t, res.Changed())

	original, ok := s.Tracker().Get(rng(0, 1))
	require.True(t, ok)
	assert.Equal(t, "a", original)

	typeAll(t, s, buf, cs, "Y")
	assert.Equal(t, "XYc", buf.Text())
	assert.Equal(t, []buffer.ByteOffset{2}, cs.Heads())
}

func TestTypeThenUndoRestores(t *testing.T) {
	buf, cs, s := setup("abc", 0)
	typeAll(t, s, buf, cs, "X", "Y")
	assert.Equal(t, "XYc", buf.Text())
	assert.Equal(t, []Record{
		{Range: rng(0, 1), Original: "a"},
		{Range: rng(1, 2), Original: "b"},
	}, s.Tracker().Records())

	undoN(t, s, buf, cs, 1)
	assert.Equal(t, "Xbc", buf.Text())
	assert.Equal(t, []buffer.ByteOffset{1}, cs.Heads())

	undoN(t, s, buf, cs, 1)
	assert.Equal(t, "abc", buf.Text())
	assert.Equal(t, []buffer.ByteOffset{0}, cs.Heads())
	assert.Zero(t, s.Tracker().Len())

	res, err := s.Undo(buf, cs)
	require.NoError(t, err)
	assert.False(t, res.Changed())
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, "abc", buf.Text())
}

func TestFirstOriginalWins(t *testing.T) {
	buf, cs, s := setup("abc", 0)
	typeAll(t, s, buf, cs, "X")

	cs.SetAll([]cursor.Selection{cursor.NewCursorSelection(0)})
	typeAll(t, s, buf, cs, "Y")
	assert.Equal(t, "Ybc", buf.Text())

	undoN(t, s, buf, cs, 1)
	assert.Equal(t, "abc", buf.Text())
}

func TestTypeAtLineEndInserts(t *testing.T) {
	buf, cs, s := setup("ab\ncd", 2)
	typeAll(t, s, buf, cs, "x", "y", "z")
	assert.Equal(t, "abxyz\ncd", buf.Text())
	inserted := []Record{
		{Range: rng(2, 3), Original: ""},
		{Range: rng(3, 4), Original: ""},
		{Range: rng(4, 5), Original: ""},
	}
	assert.Equal(t, inserted, s.Tracker().Records())

	typeAll(t, s, buf, cs, "w")
	assert.Equal(t, "abxyzw\ncd", buf.Text())
	assert.Equal(t, []buffer.ByteOffset{6}, cs.Heads())

	undoN(t, s, buf, cs, 1)
	assert.Equal(t, "abxyz\ncd", buf.Text())
	assert.Equal(t, []buffer.ByteOffset{5}, cs.Heads())
	assert.Equal(t, inserted, s.Tracker().Records(), "earlier insertions stay tracked")

	undoN(t, s, buf, cs, 3)
	assert.Equal(t, "ab\ncd", buf.Text())
	assert.Equal(t, []buffer.ByteOffset{2}, cs.Heads())
}

func TestTypeAtEndOfBufferInserts(t *testing.T) {
	buf, cs, s := setup("", 0)
	typeAll(t, s, buf, cs, "a", "b")
	assert.Equal(t, "ab", buf.Text())

	undoN(t, s, buf, cs, 2)
	assert.Equal(t, "", buf.Text())
}

func TestNewlineInserts(t *testing.T) {
	buf, cs, s := setup("ab", 1)

	typeAll(t, s, buf, cs, "\n")
	assert.Equal(t, "a\nb", buf.Text())
	assert.Equal(t, []buffer.ByteOffset{2}, cs.Heads())

	undoN(t, s, buf, cs, 1)
	assert.Equal(t, "ab", buf.Text())
	assert.Equal(t, []buffer.ByteOffset{1}, cs.Heads())
}

func TestCRLFInputIsNewline(t *testing.T) {
	buf, cs, s := setup("ab", 1)
	typeAll(t, s, buf, cs, "\r\n")
	assert.Equal(t, "a\nb", buf.Text())
}

func TestOverwriteAcrossLines(t *testing.T) {
	buf, cs, s := setup("ab\ncd", 0)
	typeAll(t, s, buf, cs, "1", "2", "3", "\n", "4")
	assert.Equal(t, "123\n4\ncd", buf.Text())

	undoN(t, s, buf, cs, 5)
	assert.Equal(t, "ab\ncd", buf.Text())
	assert.Equal(t, []buffer.ByteOffset{0}, cs.Heads())
	assert.Zero(t, s.Tracker().Len())
}

func TestMultiCursorRoundTrip(t *testing.T) {
	t.Run("overwrite", func(t *testing.T) {
		buf, cs, s := setup("abc\nabc", 0, 4)

		res, err := s.Type(buf, cs, "X")
		require.NoError(t, err)
		assert.Equal(t, "Xbc\nXbc", buf.Text())
		assert.Equal(t, []buffer.ByteOffset{1, 5}, cs.Heads())
		assert.Len(t, res.Edits, 2)
		assert.Equal(t, buffer.ByteOffset(4), res.Edits[0].Range.Start, "edits are applied right to left")

		undoN(t, s, buf, cs, 1)
		assert.Equal(t, "abc\nabc", buf.Text())
		assert.Equal(t, []buffer.ByteOffset{0, 4}, cs.Heads())
	})

	t.Run("insert at line ends", func(t *testing.T) {
		buf, cs, s := setup("ab\ncd", 2, 5)

		typeAll(t, s, buf, cs, "Z")
		assert.Equal(t, "abZ\ncdZ", buf.Text())
		assert.Equal(t, []buffer.ByteOffset{3, 7}, cs.Heads())
		assert.Equal(t, []Record{
			{Range: rng(2, 3), Original: ""},
			{Range: rng(6, 7), Original: ""},
		}, s.Tracker().Records())

		undoN(t, s, buf, cs, 1)
		assert.Equal(t, "ab\ncd", buf.Text())
		assert.Equal(t, []buffer.ByteOffset{2, 5}, cs.Heads())
	})

	t.Run("wide characters", func(t *testing.T) {
		buf, cs, s := setup("ab ab", 0, 3)

		typeAll(t, s, buf, cs, "世", "界")
		assert.Equal(t, "世界 世界", buf.Text())

		undoN(t, s, buf, cs, 2)
		assert.Equal(t, "ab ab", buf.Text())
		assert.Equal(t, []buffer.ByteOffset{0, 3}, cs.Heads())
	})
}

func TestGraphemeClusters(t *testing.T) {
	// "e" followed by a combining acute accent is one character.
	buf, cs, s := setup("e\u0301x", 0)

	typeAll(t, s, buf, cs, "y")
	assert.Equal(t, "yx", buf.Text())
	assert.Equal(t, []buffer.ByteOffset{1}, cs.Heads())

	undoN(t, s, buf, cs, 1)
	assert.Equal(t, "e\u0301x", buf.Text())

	buf, cs, s = setup("ab", 0)
	typeAll(t, s, buf, cs, "\U0001F1E9\U0001F1EA")
	assert.Equal(t, "\U0001F1E9\U0001F1EAb", buf.Text())
	undoN(t, s, buf, cs, 1)
	assert.Equal(t, "ab", buf.Text())
}

func TestUndoCombiningMark(t *testing.T) {
	// A lone combining mark joins the character before it once typed.
	t.Run("single cursor", func(t *testing.T) {
		buf, cs, s := setup("abc", 1)

		typeAll(t, s, buf, cs, "\u0301")
		assert.Equal(t, "a\u0301c", buf.Text())
		assert.Equal(t, []Record{{Range: rng(1, 3), Original: "b"}}, s.Tracker().Records())

		res, err := s.Undo(buf, cs)
		require.NoError(t, err)
		assert.Equal(t, "abc", buf.Text())
		assert.Equal(t, []buffer.ByteOffset{1}, cs.Heads())
		assert.Zero(t, res.Misses)
		assert.Zero(t, s.Tracker().Len())
	})

	t.Run("two cursors", func(t *testing.T) {
		buf, cs, s := setup("abcabc", 1, 4)

		typeAll(t, s, buf, cs, "\u0301")
		assert.Equal(t, "a\u0301ca\u0301c", buf.Text())
		assert.Equal(t, []buffer.ByteOffset{3, 7}, cs.Heads())

		res, err := s.Undo(buf, cs)
		require.NoError(t, err)
		assert.Equal(t, "abcabc", buf.Text())
		assert.Equal(t, []buffer.ByteOffset{1, 4}, cs.Heads())
		assert.Zero(t, res.Misses)
	})
}

func TestSelectionIsReplaced(t *testing.T) {
	buf := buffer.NewBufferFromString("abcd")
	cs := cursor.NewCursorSetFromSlice([]cursor.Selection{cursor.NewSelection(0, 2)})
	s := NewSession(buf)

	typeAll(t, s, buf, cs, "X")
	assert.Equal(t, "Xd", buf.Text())
	assert.Equal(t, []Record{{Range: rng(0, 1), Original: "abc"}}, s.Tracker().Records())

	undoN(t, s, buf, cs, 1)
	assert.Equal(t, "abcd", buf.Text())
}

func TestOverlappingTargetsDropLaterCursor(t *testing.T) {
	buf := buffer.NewBufferFromString("abcd")
	var logs bytes.Buffer
	s := NewSession(buf, WithLogger(logging.New(logging.Config{Level: logging.LevelDebug, Output: &logs})))
	cs := &fixedCursors{sels: []cursor.Selection{
		cursor.NewSelection(0, 1),
		cursor.NewCursorSelection(1),
	}}

	res, err := s.Type(buf, cs, "X")
	require.NoError(t, err)
	assert.Equal(t, "Xcd", buf.Text())
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, []cursor.Selection{cursor.NewCursorSelection(1)}, cs.sels)
	assert.Contains(t, logs.String(), "[WARN]")
	assert.Contains(t, logs.String(), "overlaps")
}

func TestUndoTrackingMiss(t *testing.T) {
	buf := buffer.NewBufferFromString("abc")
	var logs bytes.Buffer
	s := NewSession(buf, WithLogger(logging.New(logging.Config{Level: logging.LevelWarn, Output: &logs})))
	cs := cursor.NewCursorSetAt(2)

	res, err := s.Undo(buf, cs)
	require.NoError(t, err)
	assert.Equal(t, "abc", buf.Text())
	assert.Equal(t, 1, res.Misses)
	assert.Equal(t, []buffer.ByteOffset{1}, cs.Heads())
	assert.Contains(t, logs.String(), "tracking miss")
}

func TestUndoAfterLineStartCoversNewline(t *testing.T) {
	buf, cs, s := setup("ab\ncd", 3)

	res, err := s.Undo(buf, cs)
	require.NoError(t, err)
	assert.Equal(t, []buffer.Edit{buffer.NewEdit(rng(2, 3), "\n")}, res.Edits)
	assert.Equal(t, "ab\ncd", buf.Text())
	assert.Equal(t, []buffer.ByteOffset{2}, cs.Heads())
}

func TestInvalidInput(t *testing.T) {
	buf, cs, s := setup("abc", 0)

	for _, in := range []string{"", "ab", "\n\n", "x\n"} {
		_, err := s.Type(buf, cs, in)
		assert.ErrorIs(t, err, ErrInvalidInput, "%q", in)
	}
	assert.Equal(t, "abc", buf.Text())
	assert.Zero(t, s.Tracker().Len())
}

func TestClosedSession(t *testing.T) {
	buf, cs, s := setup("abc", 0)
	typeAll(t, s, buf, cs, "X")

	s.Close()
	assert.False(t, s.Active())
	assert.Nil(t, s.Snapshot())
	assert.Zero(t, s.Tracker().Len())
	s.Close()

	_, err := s.Type(buf, cs, "Y")
	assert.ErrorIs(t, err, ErrSessionClosed)

	res, err := s.Undo(buf, cs)
	require.NoError(t, err)
	assert.False(t, res.Changed())
	assert.Equal(t, "Xbc", buf.Text())

	var nilSession *Session
	res, err = nilSession.Undo(buf, cs)
	require.NoError(t, err)
	assert.False(t, res.Changed())
}

func TestSessionSnapshot(t *testing.T) {
	buf, cs, s := setup("abc", 0)
	typeAll(t, s, buf, cs, "X")

	require.NotNil(t, s.Snapshot())
	assert.Equal(t, "abc", s.Snapshot().Text())
	assert.True(t, s.Active())
}

func TestSessionID(t *testing.T) {
	id := uuid.MustParse("6f1c1b2e-3d4a-4b5c-8d6e-7f8091a2b3c4")
	buf := buffer.NewBufferFromString("")
	assert.Equal(t, id, NewSession(buf, WithID(id)).ID())

	a, b := NewSession(buf), NewSession(buf)
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestChanges(t *testing.T) {
	buf, cs, s := setup("hello", 0)
	assert.False(t, s.Changes(buf).Changed())

	typeAll(t, s, buf, cs, "j")
	sum := s.Changes(buf)
	assert.True(t, sum.Changed())
	assert.Equal(t, 1, sum.Inserted)
	assert.Equal(t, 1, sum.Deleted)
	assert.Equal(t, 4, sum.Equal)
	assert.Contains(t, sum.Patch, "@@")

	undoN(t, s, buf, cs, 1)
	sum = s.Changes(buf)
	assert.False(t, sum.Changed())
	assert.Empty(t, sum.Patch)
}

func TestNormalizeInput(t *testing.T) {
	for in, want := range map[string]string{
		"a":      "a",
		"\n":     "\n",
		"\r":     "\n",
		"\r\n":   "\n",
		"世":      "世",
		"e\u0301": "e\u0301",
	} {
		got, err := NormalizeInput(in)
		require.NoError(t, err, "%q", in)
		assert.Equal(t, want, got)
	}
}
