package overwrite

import (
	"fmt"

	"github.com/rivo/uniseg"

	"github.com/dshills/overstrike/internal/engine/buffer"
	"github.com/dshills/overstrike/internal/engine/cursor"
)

// NormalizeInput validates typed input and canonicalizes line breaks.
// Accepted input is one grapheme cluster, or a newline in any of its
// spellings ("\n", "\r\n", "\r").
func NormalizeInput(input string) (string, error) {
	switch input {
	case "\n", "\r\n", "\r":
		return "\n", nil
	}
	if input == "" || uniseg.GraphemeClusterCount(input) != 1 {
		return "", fmt.Errorf("%q: %w", input, ErrInvalidInput)
	}
	return input, nil
}

type target struct {
	rng      buffer.Range
	original string
}

// Type overwrites the character under every cursor with input.
//
// A cursor at the end of a line, or a newline typed anywhere, inserts
// instead. For a selection, the selected text plus the character after it
// is replaced. The replaced text is recorded so Undo can restore it, and
// each cursor ends up just after the text it typed.
func (s *Session) Type(text Text, cursors Cursors, input string) (Result, error) {
	if !s.Active() {
		return Result{}, ErrSessionClosed
	}
	input, err := NormalizeInput(input)
	if err != nil {
		return Result{}, err
	}
	newline := input == "\n"

	var res Result
	current := cursors.All()
	targets := make([]target, 0, len(current))
	for _, sel := range current {
		r := sel.Range()
		if !newline {
			lineEnd := text.LineEndOffset(text.OffsetToPoint(r.End).Line)
			if r.End < lineEnd {
				r.End = min(text.NextBoundary(r.End), lineEnd)
			}
		}

		if n := len(targets); n > 0 && targets[n-1].rng.Overlaps(r) {
			s.logger.Warn("dropping cursor at %d: target %s overlaps %s", sel.Head, r, targets[n-1].rng)
			res.Skipped++
			continue
		}
		targets = append(targets, target{rng: r, original: text.TextRange(r.Start, r.End)})
	}

	edits := make([]buffer.Edit, len(targets))
	for i, t := range targets {
		edits[len(targets)-1-i] = buffer.NewEdit(t.rng, input)
	}
	if err := text.ApplyEdits(edits); err != nil {
		s.logger.Error("apply %d edits: %v", len(edits), err)
		return Result{}, fmt.Errorf("overwrite: %w", err)
	}

	for _, t := range targets {
		if _, err := s.tracker.TryRecord(t.rng, t.original); err != nil {
			s.logger.Warn("not tracking %s: %v", t.rng, err)
		}
	}
	s.adjust(edits)

	sels := make([]cursor.Selection, len(targets))
	var delta buffer.ByteOffset
	for i, t := range targets {
		end := t.rng.Start + delta + buffer.ByteOffset(len(input))
		sels[i] = cursor.NewCursorSelection(end)
		delta += edits[len(edits)-1-i].Delta()
	}
	if len(sels) > 0 {
		cursors.SetAll(sels)
	}

	res.Edits = edits
	res.Cursors = cursors.All()
	return res, nil
}

// adjust realigns the tracker after a reverse-ordered batch.
func (s *Session) adjust(edits []buffer.Edit) {
	for _, e := range edits {
		if n := s.tracker.AdjustForEdit(e); n > 0 {
			s.logger.Debug("edit %s invalidated %d records", e, n)
		}
	}
}
