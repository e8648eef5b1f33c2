package overwrite

import (
	"fmt"

	"github.com/dshills/overstrike/internal/engine/buffer"
	"github.com/dshills/overstrike/internal/engine/cursor"
)

type restore struct {
	rng     buffer.Range
	payload string
	tracked bool
}

// Undo restores the character to the left of every cursor to what it was
// before the session overwrote it. Characters that were inserted during the
// session are deleted. A character the session never touched is left as is.
//
// Undo on a nil or closed session does nothing.
func (s *Session) Undo(text Text, cursors Cursors) (Result, error) {
	if !s.Active() {
		return Result{}, nil
	}

	var res Result
	var restores []restore
	for _, sel := range cursors.All() {
		c := sel.Range().Start
		if c == 0 {
			s.logger.Debug("nothing to restore left of offset 0")
			res.Skipped++
			continue
		}

		// A typed character may have joined the one before it, so the
		// tracked range wins over the grapheme boundary.
		var r buffer.Range
		if rec, ok := s.tracker.EndingAt(c); ok {
			r = rec.Range
		} else if p := text.OffsetToPoint(c); p.Column > 0 {
			r = buffer.NewRange(text.PrevBoundary(c), c)
		} else {
			r = buffer.NewRange(text.LineEndOffset(p.Line-1), c)
		}

		if n := len(restores); n > 0 && restores[n-1].rng.Overlaps(r) {
			res.Skipped++
			continue
		}

		payload, ok := s.tracker.Get(r)
		if !ok {
			s.logger.Warn("tracking miss at %s", r)
			payload = text.TextRange(r.Start, r.End)
			res.Misses++
		}
		restores = append(restores, restore{rng: r, payload: payload, tracked: ok})
	}

	if len(restores) == 0 {
		res.Cursors = cursors.All()
		return res, nil
	}

	edits := make([]buffer.Edit, len(restores))
	for i, rs := range restores {
		edits[len(restores)-1-i] = buffer.NewEdit(rs.rng, rs.payload)
	}
	if err := text.ApplyEdits(edits); err != nil {
		s.logger.Error("apply %d restores: %v", len(edits), err)
		return Result{}, fmt.Errorf("overwrite undo: %w", err)
	}

	for _, rs := range restores {
		if rs.tracked {
			s.tracker.Take(rs.rng)
		}
	}
	s.adjust(edits)

	sels := make([]cursor.Selection, 0, len(restores)+res.Skipped)
	var delta buffer.ByteOffset
	next := 0
	for _, sel := range cursors.All() {
		c := sel.Range().Start
		if next < len(restores) && restores[next].rng.End == c {
			rs := restores[next]
			sels = append(sels, cursor.NewCursorSelection(rs.rng.Start+delta))
			delta += edits[len(edits)-1-next].Delta()
			next++
			continue
		}
		sels = append(sels, cursor.NewCursorSelection(c+delta))
	}
	cursors.SetAll(sels)

	res.Edits = edits
	res.Cursors = cursors.All()
	return res, nil
}
