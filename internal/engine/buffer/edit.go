package buffer

import (
	"fmt"
	"sort"
)

// Edit represents a text edit operation.
// It specifies a range to replace and the new text.
type Edit struct {
	Range   Range  // The range to replace
	NewText string // The replacement text
}

// NewEdit creates a new Edit.
func NewEdit(r Range, newText string) Edit {
	return Edit{Range: r, NewText: newText}
}

// NewInsert creates an Edit that inserts text at a position.
func NewInsert(offset ByteOffset, text string) Edit {
	return Edit{Range: EmptyRange(offset), NewText: text}
}

// NewDelete creates an Edit that deletes a range of text.
func NewDelete(start, end ByteOffset) Edit {
	return Edit{Range: Range{Start: start, End: end}}
}

// String returns a human-readable representation of the edit.
func (e Edit) String() string {
	switch {
	case e.IsNoOp():
		return fmt.Sprintf("NoOp(%d)", e.Range.Start)
	case e.IsInsert():
		return fmt.Sprintf("Insert(%d, %q)", e.Range.Start, e.NewText)
	case e.IsDelete():
		return fmt.Sprintf("Delete%s", e.Range.String())
	}
	return fmt.Sprintf("Replace%s with %q", e.Range.String(), e.NewText)
}

// IsInsert returns true if this is a pure insertion (empty range).
func (e Edit) IsInsert() bool {
	return e.Range.IsEmpty() && e.NewText != ""
}

// IsDelete returns true if this is a pure deletion (empty replacement).
func (e Edit) IsDelete() bool {
	return !e.Range.IsEmpty() && e.NewText == ""
}

// IsNoOp returns true if this edit does nothing.
func (e Edit) IsNoOp() bool {
	return e.Range.IsEmpty() && e.NewText == ""
}

// Delta returns the change in buffer length caused by this edit.
func (e Edit) Delta() ByteOffset {
	return ByteOffset(len(e.NewText)) - e.Range.Len()
}

// NewRange returns the range the replacement text occupies once applied.
func (e Edit) NewRange() Range {
	return Range{Start: e.Range.Start, End: e.Range.Start + ByteOffset(len(e.NewText))}
}

// SortEditsReverse sorts edits in descending order by start position,
// the order required by ApplyEdits. An insertion sharing its start with a
// replacement sorts after it, so it lands in front of the replaced text.
func SortEditsReverse(edits []Edit) {
	sort.SliceStable(edits, func(i, j int) bool {
		if edits[i].Range.Start != edits[j].Range.Start {
			return edits[i].Range.Start > edits[j].Range.Start
		}
		return edits[i].Range.End > edits[j].Range.End
	})
}

// EditsInReverseOrder reports whether edits are sorted by descending start
// and do not overlap.
func EditsInReverseOrder(edits []Edit) bool {
	for i := 1; i < len(edits); i++ {
		if edits[i].Range.End > edits[i-1].Range.Start {
			return false
		}
		// Two insertions at the same offset are ambiguous.
		if edits[i].Range.IsEmpty() && edits[i-1].Range == edits[i].Range {
			return false
		}
	}
	return true
}
