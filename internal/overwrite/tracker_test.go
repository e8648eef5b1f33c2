package overwrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/overstrike/internal/engine/buffer"
)

func rng(start, end buffer.ByteOffset) buffer.Range {
	return buffer.NewRange(start, end)
}

func TestTrackerRecord(t *testing.T) {
	t.Run("first write wins", func(t *testing.T) {
		tr := NewTracker()
		assert.True(t, tr.Record(rng(0, 1), "a"))
		assert.False(t, tr.Record(rng(0, 1), "b"))

		got, ok := tr.Get(rng(0, 1))
		require.True(t, ok)
		assert.Equal(t, "a", got)
		assert.Equal(t, 1, tr.Len())
	})

	t.Run("kept in start order", func(t *testing.T) {
		tr := NewTracker()
		tr.Record(rng(5, 6), "f")
		tr.Record(rng(2, 2), "")
		tr.Record(rng(0, 1), "a")
		tr.Record(rng(2, 3), "c")

		assert.Equal(t, []Record{
			{Range: rng(0, 1), Original: "a"},
			{Range: rng(2, 2), Original: ""},
			{Range: rng(2, 3), Original: "c"},
			{Range: rng(5, 6), Original: "f"},
		}, tr.Records())
	})

	t.Run("overlap rejected", func(t *testing.T) {
		tr := NewTracker()
		require.True(t, tr.Record(rng(0, 2), "ab"))

		_, err := tr.TryRecord(rng(1, 3), "bc")
		assert.ErrorIs(t, err, ErrRecordOverlap)
		assert.False(t, tr.Record(rng(1, 1), ""))
		assert.True(t, tr.Record(rng(2, 2), ""))
		assert.Equal(t, 2, tr.Len())
	})

	t.Run("invalid range", func(t *testing.T) {
		tr := NewTracker()
		_, err := tr.TryRecord(buffer.Range{Start: 3, End: 1}, "x")
		assert.ErrorIs(t, err, buffer.ErrRangeInvalid)
	})
}

func TestTrackerTake(t *testing.T) {
	tr := NewTracker()
	tr.Record(rng(0, 1), "a")
	tr.Record(rng(3, 4), "d")

	got, ok := tr.Take(rng(0, 1))
	require.True(t, ok)
	assert.Equal(t, "a", got)
	assert.Equal(t, 1, tr.Len())

	_, ok = tr.Take(rng(0, 1))
	assert.False(t, ok)

	_, ok = tr.Take(rng(3, 5))
	assert.False(t, ok, "take requires an exact match")
}

func TestTrackerShiftForInsertion(t *testing.T) {
	tr := NewTracker()
	tr.Record(rng(0, 1), "a")
	tr.Record(rng(2, 2), "")
	tr.Record(rng(5, 6), "x")

	tr.ShiftForInsertion(rng(2, 2), 1)

	assert.Equal(t, []Record{
		{Range: rng(0, 1), Original: "a"},
		{Range: rng(2, 3), Original: ""},
		{Range: rng(6, 7), Original: "x"},
	}, tr.Records())
}

func TestTrackerAdjustForEdit(t *testing.T) {
	t.Run("deletion shifts later records back", func(t *testing.T) {
		tr := NewTracker()
		tr.Record(rng(0, 1), "a")
		tr.Record(rng(3, 4), "d")

		dropped := tr.AdjustForEdit(buffer.NewDelete(1, 2))
		assert.Zero(t, dropped)
		assert.Equal(t, []Record{
			{Range: rng(0, 1), Original: "a"},
			{Range: rng(2, 3), Original: "d"},
		}, tr.Records())
	})

	t.Run("exact match is re-keyed to the new text", func(t *testing.T) {
		tr := NewTracker()
		tr.Record(rng(1, 2), "b")
		tr.Record(rng(2, 3), "c")

		tr.AdjustForEdit(buffer.NewEdit(rng(1, 2), "日"))
		assert.Equal(t, []Record{
			{Range: rng(1, 4), Original: "b"},
			{Range: rng(4, 5), Original: "c"},
		}, tr.Records())
	})

	t.Run("insertion point before replaced range", func(t *testing.T) {
		tr := NewTracker()
		tr.Record(rng(2, 2), "")

		tr.AdjustForEdit(buffer.NewEdit(rng(2, 3), "z"))
		assert.Equal(t, []Record{{Range: rng(2, 2), Original: ""}}, tr.Records())
	})

	t.Run("no-op edit leaves records alone", func(t *testing.T) {
		tr := NewTracker()
		tr.Record(rng(2, 4), "cd")

		dropped := tr.AdjustForEdit(buffer.NewEdit(rng(3, 3), ""))
		assert.Zero(t, dropped)
		assert.Equal(t, []Record{{Range: rng(2, 4), Original: "cd"}}, tr.Records())
	})

	t.Run("straddling record dropped", func(t *testing.T) {
		tr := NewTracker()
		tr.Record(rng(2, 4), "cd")
		tr.Record(rng(6, 7), "g")

		dropped := tr.AdjustForEdit(buffer.NewEdit(rng(3, 5), "x"))
		assert.Equal(t, 1, dropped)
		assert.Equal(t, []Record{{Range: rng(5, 6), Original: "g"}}, tr.Records())
	})
}

func TestTrackerEndingAt(t *testing.T) {
	tr := NewTracker()
	tr.Record(rng(1, 3), "b")
	tr.Record(rng(3, 3), "")
	tr.Record(rng(3, 4), "")

	rec, ok := tr.EndingAt(3)
	require.True(t, ok)
	assert.Equal(t, Record{Range: rng(1, 3), Original: "b"}, rec)

	rec, ok = tr.EndingAt(4)
	require.True(t, ok)
	assert.Equal(t, rng(3, 4), rec.Range)

	_, ok = tr.EndingAt(2)
	assert.False(t, ok)
	_, ok = tr.EndingAt(0)
	assert.False(t, ok)
	_, ok = NewTracker().EndingAt(1)
	assert.False(t, ok)
}

func TestTrackerClear(t *testing.T) {
	tr := NewTracker()
	tr.Record(rng(0, 1), "a")
	tr.Clear()

	assert.Zero(t, tr.Len())
	assert.Equal(t, "{}", tr.String())
}
