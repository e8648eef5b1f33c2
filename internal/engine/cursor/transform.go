package cursor

import (
	"github.com/dshills/overstrike/internal/engine/buffer"
)

// Edit is an alias for buffer.Edit for convenience.
type Edit = buffer.Edit

// TransformOffset updates an offset after an edit.
//
// Transformation rules:
//   - If edit is entirely before offset: adjust offset by the edit's delta
//   - If edit starts at or after offset: offset unchanged
//   - If edit spans offset: move offset to end of new text
func TransformOffset(offset ByteOffset, edit Edit) ByteOffset {
	return TransformOffsetSticky(offset, edit, true)
}

// TransformOffsetSticky is like TransformOffset but decides what happens
// to an offset sitting exactly at an insertion point. Sticky offsets stay
// in front of the inserted text; non-sticky offsets move past it.
func TransformOffsetSticky(offset ByteOffset, edit Edit, sticky bool) ByteOffset {
	if edit.Range.IsEmpty() && edit.Range.Start == offset {
		if sticky {
			return offset
		}
		return offset + ByteOffset(len(edit.NewText))
	}

	if edit.Range.End <= offset {
		return offset + edit.Delta()
	}

	if edit.Range.Start >= offset {
		return offset
	}

	return edit.Range.Start + ByteOffset(len(edit.NewText))
}

// TransformOffsetMulti maps an offset through a batch of edits given in
// reverse order, as accepted by buffer.ApplyEdits. Offsets are expressed
// in the coordinates before the batch.
func TransformOffsetMulti(offset ByteOffset, edits []Edit, sticky bool) ByteOffset {
	// Every edit in a reverse-ordered batch is expressed in pre-batch
	// coordinates, and edits to the right never move offsets to the left.
	// Accumulate deltas from the edits that lie left of the offset.
	result := offset
	for _, edit := range edits {
		moved := TransformOffsetSticky(offset, edit, sticky)
		result += moved - offset
	}
	return result
}

// TransformCursorSet updates all selections in a cursor set after a batch of
// reverse-ordered edits. Heads move past insertions at their position;
// anchors stay in front.
func TransformCursorSet(cs *CursorSet, edits []Edit) {
	cs.MapInPlace(func(sel Selection) Selection {
		return Selection{
			Anchor: TransformOffsetMulti(sel.Anchor, edits, sel.Anchor != sel.Head),
			Head:   TransformOffsetMulti(sel.Head, edits, false),
		}
	})
}
