package overwrite

import (
	"github.com/rivo/uniseg"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// ChangeSummary compares the text at the start of a session with the
// current text. Counts are in characters.
type ChangeSummary struct {
	Inserted int
	Deleted  int
	Equal    int
	// Patch is the change in patch text format, empty when nothing changed.
	Patch string
}

// Changed reports whether the text differs from the session snapshot.
func (c ChangeSummary) Changed() bool {
	return c.Inserted > 0 || c.Deleted > 0
}

// Changes summarizes how text differs from the session snapshot.
// A closed session reports no changes.
func (s *Session) Changes(text interface{ Text() string }) ChangeSummary {
	if !s.Active() {
		return ChangeSummary{}
	}
	return Diff(s.snapshot.Text(), text.Text())
}

// Diff summarizes the change from before to after.
func Diff(before, after string) ChangeSummary {
	var sum ChangeSummary
	if before == after {
		sum.Equal = uniseg.GraphemeClusterCount(before)
		return sum
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(before, after, false))
	for _, d := range diffs {
		n := uniseg.GraphemeClusterCount(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			sum.Inserted += n
		case diffmatchpatch.DiffDelete:
			sum.Deleted += n
		case diffmatchpatch.DiffEqual:
			sum.Equal += n
		}
	}
	sum.Patch = dmp.PatchToText(dmp.PatchMake(before, diffs))
	return sum
}
