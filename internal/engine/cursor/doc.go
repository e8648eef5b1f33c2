// Package cursor provides cursor and selection management for text editing.
//
// Selections use an anchor/head model: Anchor is where the selection
// started and Head is where typing occurs. When Anchor == Head the
// selection is a plain cursor.
//
// CursorSet keeps selections sorted by position and merges any that overlap
// or touch. After a batch of edits is applied with buffer.ApplyEdits, pass
// the same reverse-ordered batch to TransformCursorSet to carry every
// selection into post-edit coordinates.
//
// Selection is an immutable value type. CursorSet is not thread-safe and is
// owned by a single editor.
package cursor
