package cursor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dshills/overstrike/internal/engine/buffer"
)

func TestSelectionRange(t *testing.T) {
	fwd := NewSelection(2, 6)
	back := NewSelection(6, 2)

	assert.Equal(t, buffer.NewRange(2, 6), fwd.Range())
	assert.Equal(t, buffer.NewRange(2, 6), back.Range())
	assert.True(t, back.IsBackward())
	assert.False(t, fwd.IsEmpty())
	assert.True(t, NewCursorSelection(3).IsEmpty())
}

func TestSelectionCollapseAndClamp(t *testing.T) {
	sel := NewSelection(2, 6)

	assert.Equal(t, NewCursorSelection(6), sel.Collapse())
	assert.Equal(t, NewSelection(2, 4), sel.Clamp(4))
	assert.Equal(t, NewSelection(0, 3), NewSelection(-1, 3).Clamp(10))
	assert.Equal(t, "Selection(6←2)", NewSelection(6, 2).String())
	assert.Equal(t, "Cursor(3)", NewCursorSelection(3).String())
}

func TestCursorSetNormalizes(t *testing.T) {
	cs := NewCursorSetFromSlice([]Selection{
		NewCursorSelection(9),
		NewCursorSelection(1),
		NewSelection(3, 5),
		NewCursorSelection(5),
		NewCursorSelection(1),
	})

	assert.Equal(t, []Selection{
		NewCursorSelection(1),
		NewSelection(3, 5),
		NewCursorSelection(9),
	}, cs.All())
	assert.True(t, cs.IsMulti())
	assert.Equal(t, NewCursorSelection(1), cs.Primary())
	assert.Equal(t, []ByteOffset{1, 5, 9}, cs.Heads())
}

func TestCursorSetEmptySliceFallsBackToOrigin(t *testing.T) {
	cs := NewCursorSetFromSlice(nil)
	assert.Equal(t, []Selection{NewCursorSelection(0)}, cs.All())
}

func TestCursorSetAddClearEquals(t *testing.T) {
	cs := NewCursorSetAt(4)
	cs.Add(NewCursorSelection(0))

	assert.Equal(t, 2, cs.Count())
	assert.Equal(t, []Range{buffer.NewRange(0, 0), buffer.NewRange(4, 4)}, cs.Ranges())

	other := NewCursorSetFromSlice([]Selection{NewCursorSelection(4), NewCursorSelection(0)})
	assert.True(t, cs.Equals(other))

	cs.Clear()
	assert.Equal(t, 1, cs.Count())
	assert.False(t, cs.Equals(other))
	assert.False(t, cs.Equals(nil))
}

func TestTransformOffset(t *testing.T) {
	tests := []struct {
		name   string
		offset ByteOffset
		edit   Edit
		sticky bool
		want   ByteOffset
	}{
		{"insert before", 5, buffer.NewInsert(2, "xx"), true, 7},
		{"insert after", 5, buffer.NewInsert(8, "xx"), true, 5},
		{"insert at sticky", 5, buffer.NewInsert(5, "xx"), true, 5},
		{"insert at non-sticky", 5, buffer.NewInsert(5, "xx"), false, 7},
		{"delete before", 5, buffer.NewDelete(0, 2), true, 3},
		{"delete spanning", 5, buffer.NewDelete(3, 8), true, 3},
		{"replace ending at offset", 5, buffer.NewEdit(buffer.NewRange(4, 5), "XYZ"), true, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TransformOffsetSticky(tt.offset, tt.edit, tt.sticky))
		})
	}
}

func TestTransformCursorSetBatch(t *testing.T) {
	cs := NewCursorSetFromSlice([]Selection{
		NewCursorSelection(2),
		NewCursorSelection(6),
		NewCursorSelection(7),
	})
	edits := []Edit{
		buffer.NewInsert(7, "\n"),
		buffer.NewEdit(buffer.NewRange(4, 5), "\u00e9"),
		buffer.NewEdit(buffer.NewRange(0, 1), "X"),
	}

	TransformCursorSet(cs, edits)

	// The first replace is 1:1, the second grows by a byte, and the head at
	// the insertion point moves past the newline.
	assert.Equal(t, []ByteOffset{2, 7, 9}, cs.Heads())
}

func TestTransformCursorSetKeepsAnchorBeforeInsertion(t *testing.T) {
	cs := NewCursorSetFromSlice([]Selection{NewSelection(3, 5)})

	TransformCursorSet(cs, []Edit{buffer.NewInsert(5, "ab"), buffer.NewInsert(3, "x")})

	assert.Equal(t, []Selection{NewSelection(3, 8)}, cs.All())
}
