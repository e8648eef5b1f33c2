// Package overwrite implements replace mode: typed characters overwrite the
// character under each cursor instead of being inserted, and backspace
// restores what was overwritten.
//
// A Session lives from entering replace mode until leaving it. It holds a
// snapshot of the text taken on entry and a Tracker that maps every range
// typed during the session to the text it replaced. Only the first overwrite
// of a range is remembered, so repeated typing over the same spot still
// restores the text from before the session.
//
// Typing at the end of a line, or typing a newline, inserts rather than
// overwrites. Those insertions are tracked with an empty original, and
// backspacing over them deletes them.
//
// Typing:
//
//	s := overwrite.NewSession(buf)
//	res, err := s.Type(buf, cursors, "x")
//
// Restoring:
//
//	res, err := s.Undo(buf, cursors)
//
// All edits of one keystroke across every cursor are applied to the text as
// a single batch.
package overwrite
