package ui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"

	"github.com/dshills/overstrike/internal/engine/buffer"
	"github.com/dshills/overstrike/internal/input/mode"
)

var (
	styleText   = tcell.StyleDefault
	styleCursor = tcell.StyleDefault.Reverse(true)
	styleStatus = tcell.StyleDefault.Reverse(true)
	styleTilde  = tcell.StyleDefault.Foreground(tcell.ColorBlue)
)

// Draw renders the visible lines and the status line.
func (a *App) Draw() {
	a.screen.Clear()
	width, height := a.screen.Size()
	if height < 1 {
		return
	}
	rows := uint32(height - 1)

	buf := a.ed.Buffer()
	heads := a.ed.Heads()
	primary := buf.OffsetToDisplay(heads[0])
	a.scrollTo(primary.Line, rows)

	secondary := make(map[buffer.DisplayPoint]bool, len(heads)-1)
	for _, h := range heads[1:] {
		secondary[buf.OffsetToDisplay(h)] = true
	}

	for row := uint32(0); row < rows; row++ {
		line := a.top + row
		if line >= buf.LineCount() {
			a.screen.SetContent(0, int(row), '~', nil, styleTilde)
			continue
		}
		a.drawLine(buf, line, int(row), width, secondary)
	}

	a.drawStatus(width, height-1)

	if primary.Line >= a.top && primary.Line-a.top < rows && int(primary.Column) < width {
		a.screen.SetCursorStyle(cursorStyle(a.ed.CursorStyle()))
		a.screen.ShowCursor(int(primary.Column), int(primary.Line-a.top))
	} else {
		a.screen.HideCursor()
	}
	a.screen.Show()
}

// scrollTo keeps line within the visible rows.
func (a *App) scrollTo(line, rows uint32) {
	if rows == 0 {
		return
	}
	if line < a.top {
		a.top = line
	}
	if line >= a.top+rows {
		a.top = line - rows + 1
	}
}

func (a *App) drawLine(buf *buffer.Buffer, line uint32, y, width int, secondary map[buffer.DisplayPoint]bool) {
	text := buf.LineText(line)
	tabWidth := buf.TabWidth()

	col := 0
	g := uniseg.NewGraphemes(text)
	for g.Next() && col < width {
		cluster := g.Str()
		w := buffer.CellWidth(cluster, col, tabWidth)

		style := styleText
		if secondary[buffer.DisplayPoint{Line: line, Column: uint32(col)}] {
			style = styleCursor
		}

		if cluster == "\t" {
			for i := 0; i < w && col+i < width; i++ {
				a.screen.SetContent(col+i, y, ' ', nil, style)
			}
		} else {
			runes := g.Runes()
			a.screen.SetContent(col, y, runes[0], runes[1:], style)
		}
		col += w
	}

	// A secondary cursor at the end of the line sits past the last cell.
	if col < width && secondary[buffer.DisplayPoint{Line: line, Column: uint32(col)}] {
		a.screen.SetContent(col, y, ' ', nil, styleCursor)
	}
}

func (a *App) drawStatus(width, y int) {
	for x := 0; x < width; x++ {
		a.screen.SetContent(x, y, ' ', nil, styleStatus)
	}
	x := 0
	for _, r := range a.statusText() {
		if x >= width {
			break
		}
		a.screen.SetContent(x, y, r, nil, styleStatus)
		x++
	}
}

// statusText describes the mode, cursor position and replace session.
func (a *App) statusText() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, " %s", a.ed.ModeDisplayName())

	line, col := a.ed.CursorPosition()
	fmt.Fprintf(&sb, "  %d:%d", line+1, col+1)

	if n := len(a.ed.Heads()); n > 1 {
		fmt.Fprintf(&sb, "  %d cursors", n)
	}
	if a.ed.Mode() == mode.ModeReplace {
		sum := a.ed.Changes()
		fmt.Fprintf(&sb, "  +%d -%d", sum.Inserted, sum.Deleted)
		if start, ok := a.ed.ModeStart(); ok {
			fmt.Fprintf(&sb, " since %d:%d", start.Line+1, start.Column+1)
		}
	}
	if a.ed.Modified() {
		sb.WriteString("  [+]")
	}
	if a.status != "" {
		fmt.Fprintf(&sb, "  %s", a.status)
	}
	return sb.String()
}

func cursorStyle(s mode.CursorStyle) tcell.CursorStyle {
	switch s {
	case mode.CursorBar:
		return tcell.CursorStyleSteadyBar
	case mode.CursorUnderline:
		return tcell.CursorStyleSteadyUnderline
	default:
		return tcell.CursorStyleSteadyBlock
	}
}
