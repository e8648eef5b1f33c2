package overwrite

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dshills/overstrike/internal/engine/buffer"
)

// Record maps a range of the current text to the text it replaced.
// An empty Original means the range was inserted and restoring it deletes it.
type Record struct {
	Range    buffer.Range
	Original string
}

// String returns a human-readable representation of the record.
func (r Record) String() string {
	return fmt.Sprintf("%s:%q", r.Range, r.Original)
}

// Tracker remembers, for every range overwritten during a session, the text
// that occupied it before the first overwrite.
//
// Records never overlap and are kept ordered by start offset, so realigning
// them after an edit only touches the records at or after the edit.
type Tracker struct {
	records []Record
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// less orders ranges by start, then by end. An insertion point sorts ahead
// of a range starting at the same offset.
func less(a, b buffer.Range) bool {
	if a.Start != b.Start {
		return a.Start < b.Start
	}
	return a.End < b.End
}

// search returns the index of the first record not less than r.
func (t *Tracker) search(r buffer.Range) int {
	return sort.Search(len(t.records), func(i int) bool {
		return !less(t.records[i].Range, r)
	})
}

// find returns the index of the record equal to r, or -1.
func (t *Tracker) find(r buffer.Range) int {
	i := t.search(r)
	if i < len(t.records) && t.records[i].Range == r {
		return i
	}
	return -1
}

// TryRecord stores original for r unless r is already tracked.
// The first write wins: overwriting the same range again keeps the text
// that was there before the session touched it. It reports whether a new
// record was added, and returns ErrRecordOverlap if r overlaps a different
// tracked range.
func (t *Tracker) TryRecord(r buffer.Range, original string) (bool, error) {
	if !r.IsValid() {
		return false, fmt.Errorf("record %s: %w", r, buffer.ErrRangeInvalid)
	}

	i := t.search(r)
	if i < len(t.records) && t.records[i].Range == r {
		return false, nil
	}

	for j := max(i-1, 0); j < len(t.records) && t.records[j].Range.Start <= r.End; j++ {
		if t.records[j].Range.Overlaps(r) {
			return false, fmt.Errorf("record %s overlaps %s: %w", r, t.records[j].Range, ErrRecordOverlap)
		}
	}

	t.records = append(t.records, Record{})
	copy(t.records[i+1:], t.records[i:])
	t.records[i] = Record{Range: r, Original: original}
	return true, nil
}

// Record is TryRecord for callers that treat a rejected record as a no-op.
func (t *Tracker) Record(r buffer.Range, original string) bool {
	added, err := t.TryRecord(r, original)
	return added && err == nil
}

// Get returns the original text recorded for exactly r.
func (t *Tracker) Get(r buffer.Range) (string, bool) {
	if i := t.find(r); i >= 0 {
		return t.records[i].Original, true
	}
	return "", false
}

// EndingAt returns the non-empty record whose range ends at off.
func (t *Tracker) EndingAt(off buffer.ByteOffset) (Record, bool) {
	i := sort.Search(len(t.records), func(i int) bool {
		return t.records[i].Range.Start >= off
	}) - 1
	if i >= 0 && t.records[i].Range.End == off && !t.records[i].Range.IsEmpty() {
		return t.records[i], true
	}
	return Record{}, false
}

// Take removes and returns the original text recorded for exactly r.
func (t *Tracker) Take(r buffer.Range) (string, bool) {
	i := t.find(r)
	if i < 0 {
		return "", false
	}
	original := t.records[i].Original
	t.records = append(t.records[:i], t.records[i+1:]...)
	return original, true
}

// ShiftForInsertion realigns records after n bytes were inserted at the
// insertion point at. Records starting at or after the insertion move right
// by n. A record for the insertion point itself grows to cover the inserted
// text instead, since the insertion happened inside that slot.
func (t *Tracker) ShiftForInsertion(at buffer.Range, n buffer.ByteOffset) {
	at.End = at.Start
	t.adjust(at, n)
}

// AdjustForEdit realigns records after edit was applied to the text.
// The record equal to the edited range is re-keyed to the range now holding
// the new text; records at or after the end of the edit shift by its delta.
// Records that straddle the edit can no longer be restored and are dropped;
// the number dropped is returned. A no-op edit changes nothing.
func (t *Tracker) AdjustForEdit(edit buffer.Edit) int {
	if edit.IsNoOp() {
		return 0
	}
	return t.adjust(edit.Range, buffer.ByteOffset(len(edit.NewText)))
}

func (t *Tracker) adjust(r buffer.Range, newLen buffer.ByteOffset) int {
	delta := newLen - r.Len()

	// Ends are ordered like starts, so everything before the first record
	// ending at or after r.Start is untouched.
	first := sort.Search(len(t.records), func(i int) bool {
		return t.records[i].Range.End >= r.Start
	})

	dropped := 0
	kept := t.records[:first]
	for _, rec := range t.records[first:] {
		switch {
		case rec.Range == r:
			rec.Range = buffer.Range{Start: r.Start, End: r.Start + newLen}
		case rec.Range.End <= r.Start:
			// before the edit
		case rec.Range.Start >= r.End:
			rec.Range = rec.Range.Shift(delta)
		default:
			dropped++
			continue
		}
		kept = append(kept, rec)
	}
	t.records = kept
	return dropped
}

// Len returns the number of tracked records.
func (t *Tracker) Len() int {
	return len(t.records)
}

// Records returns a copy of the records in start order.
func (t *Tracker) Records() []Record {
	out := make([]Record, len(t.records))
	copy(out, t.records)
	return out
}

// Clear drops every record.
func (t *Tracker) Clear() {
	t.records = nil
}

// String lists the records, for logs and test failures.
func (t *Tracker) String() string {
	parts := make([]string, len(t.records))
	for i, rec := range t.records {
		parts[i] = rec.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
