// Package buffer provides the thread-safe text sequence edited by the
// editor.
//
// A Buffer holds UTF-8 text with \n line endings and a line-start index.
// Every write swaps in a new immutable text value, so Snapshot is O(1) and
// snapshots never observe later edits.
//
// Position Types:
//
//   - ByteOffset: raw byte position in the buffer
//   - Point: line and byte column (0-indexed)
//   - DisplayPoint: line and screen-cell column (tabs expanded, wide
//     characters counted twice)
//
// A "character" is an extended grapheme cluster. NextBoundary and
// PrevBoundary step by one character, and ClipPoint/ClipOffset snap a
// position onto a character boundary with a left or right Bias.
//
// Batched edits:
//
//	edits := []buffer.Edit{
//	    buffer.NewEdit(buffer.NewRange(4, 5), "X"),
//	    buffer.NewEdit(buffer.NewRange(0, 1), "Y"),
//	}
//	err := buf.ApplyEdits(edits) // highest offset first, all or nothing
package buffer
