package buffer

import (
	"sort"
	"strings"

	"github.com/rivo/uniseg"
)

// text is an immutable string with a line-start index. Buffer swaps a new
// text in on every write, so a Snapshot can share it without copying.
type text struct {
	s     string
	lines []ByteOffset // start offset of every line; lines[0] == 0
}

func newText(s string) text {
	lines := make([]ByteOffset, 1, strings.Count(s, "\n")+1)
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, ByteOffset(i+1))
		}
	}
	return text{s: s, lines: lines}
}

func (t text) len() ByteOffset {
	return ByteOffset(len(t.s))
}

func (t text) lineCount() uint32 {
	return uint32(len(t.lines))
}

func (t text) slice(start, end ByteOffset) string {
	if start < 0 {
		start = 0
	}
	if end > t.len() {
		end = t.len()
	}
	if start >= end {
		return ""
	}
	return t.s[start:end]
}

func (t text) lineStart(line uint32) ByteOffset {
	if int(line) >= len(t.lines) {
		return t.len()
	}
	return t.lines[line]
}

// lineEnd returns the offset just before the line's newline.
func (t text) lineEnd(line uint32) ByteOffset {
	if int(line)+1 >= len(t.lines) {
		return t.len()
	}
	return t.lines[line+1] - 1
}

func (t text) lineText(line uint32) string {
	if int(line) >= len(t.lines) {
		return ""
	}
	return t.s[t.lineStart(line):t.lineEnd(line)]
}

// lineOf returns the line containing offset.
func (t text) lineOf(offset ByteOffset) uint32 {
	if offset <= 0 {
		return 0
	}
	// First line whose start is beyond offset, minus one.
	i := sort.Search(len(t.lines), func(i int) bool { return t.lines[i] > offset })
	return uint32(i - 1)
}

func (t text) offsetToPoint(offset ByteOffset) Point {
	if offset < 0 {
		offset = 0
	}
	if offset > t.len() {
		offset = t.len()
	}
	line := t.lineOf(offset)
	return Point{Line: line, Column: uint32(offset - t.lines[line])}
}

// pointToOffset converts a point without snapping to grapheme boundaries.
// Columns past the line end clamp to the line end.
func (t text) pointToOffset(p Point) ByteOffset {
	if int(p.Line) >= len(t.lines) {
		return t.len()
	}
	start := t.lines[p.Line]
	off := start + ByteOffset(p.Column)
	if end := t.lineEnd(p.Line); off > end {
		off = end
	}
	return off
}

// graphemeAt returns the grapheme cluster starting at offset.
func (t text) graphemeAt(offset ByteOffset) (string, int) {
	if offset < 0 || offset >= t.len() {
		return "", 0
	}
	cluster, _, width, _ := uniseg.FirstGraphemeClusterInString(t.s[offset:], -1)
	return cluster, width
}

// nextBoundary returns the grapheme boundary following offset.
func (t text) nextBoundary(offset ByteOffset) ByteOffset {
	if offset >= t.len() {
		return t.len()
	}
	if offset < 0 {
		return 0
	}
	cluster, _ := t.graphemeAt(offset)
	return offset + ByteOffset(len(cluster))
}

// prevBoundary returns the grapheme boundary preceding offset. The newline
// ending the previous line is its own character.
func (t text) prevBoundary(offset ByteOffset) ByteOffset {
	if offset <= 0 {
		return 0
	}
	if offset > t.len() {
		return t.len()
	}
	line := t.lineOf(offset)
	start := t.lines[line]
	if start == offset {
		return offset - 1
	}
	prev := start
	for pos := start; pos < offset; {
		prev = pos
		pos = t.nextBoundary(pos)
	}
	return prev
}

// clipPoint clamps p into the text and snaps its column onto a grapheme
// boundary of its line.
func (t text) clipPoint(p Point, bias Bias) Point {
	if int(p.Line) >= len(t.lines) {
		last := uint32(len(t.lines) - 1)
		return Point{Line: last, Column: uint32(t.lineEnd(last) - t.lines[last])}
	}
	start := t.lines[p.Line]
	end := t.lineEnd(p.Line)
	target := start + ByteOffset(p.Column)
	if target >= end {
		return Point{Line: p.Line, Column: uint32(end - start)}
	}
	pos := start
	for pos < target {
		next := t.nextBoundary(pos)
		if next > target {
			if bias == BiasRight {
				pos = next
			}
			break
		}
		pos = next
	}
	return Point{Line: p.Line, Column: uint32(pos - start)}
}

func (t text) clipOffset(offset ByteOffset, bias Bias) ByteOffset {
	if offset <= 0 {
		return 0
	}
	if offset >= t.len() {
		return t.len()
	}
	p := t.clipPoint(t.offsetToPoint(offset), bias)
	return t.lines[p.Line] + ByteOffset(p.Column)
}

// cellWidth returns the number of screen cells a grapheme occupies when it
// starts at display column col.
func cellWidth(cluster string, width, col, tabWidth int) int {
	if cluster == "\t" {
		return tabWidth - col%tabWidth
	}
	return width
}

// CellWidth returns the number of screen cells cluster occupies when it
// starts at display column col.
func CellWidth(cluster string, col, tabWidth int) int {
	return cellWidth(cluster, uniseg.StringWidth(cluster), col, tabWidth)
}

func (t text) offsetToDisplay(offset ByteOffset, tabWidth int) DisplayPoint {
	p := t.offsetToPoint(offset)
	start := t.lines[p.Line]
	target := start + ByteOffset(p.Column)
	col := 0
	for pos := start; pos < target; {
		cluster, width := t.graphemeAt(pos)
		col += cellWidth(cluster, width, col, tabWidth)
		pos += ByteOffset(len(cluster))
	}
	return DisplayPoint{Line: p.Line, Column: uint32(col)}
}

func (t text) displayToOffset(dp DisplayPoint, bias Bias, tabWidth int) ByteOffset {
	if int(dp.Line) >= len(t.lines) {
		return t.len()
	}
	start := t.lines[dp.Line]
	end := t.lineEnd(dp.Line)
	want := int(dp.Column)
	col := 0
	for pos := start; pos < end; {
		if col >= want {
			return pos
		}
		cluster, width := t.graphemeAt(pos)
		w := cellWidth(cluster, width, col, tabWidth)
		if col+w > want {
			if bias == BiasRight {
				return pos + ByteOffset(len(cluster))
			}
			return pos
		}
		col += w
		pos += ByteOffset(len(cluster))
	}
	return end
}

// apply returns a new text with the reverse-ordered edits applied.
func (t text) apply(edits []Edit) text {
	var b strings.Builder
	b.Grow(len(t.s))
	// Edits are highest-first; walk them backwards to build left to right.
	pos := ByteOffset(0)
	for i := len(edits) - 1; i >= 0; i-- {
		e := edits[i]
		b.WriteString(t.s[pos:e.Range.Start])
		b.WriteString(e.NewText)
		pos = e.Range.End
	}
	b.WriteString(t.s[pos:])
	return newText(b.String())
}
