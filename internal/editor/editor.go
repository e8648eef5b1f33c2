// Package editor ties a buffer, its cursors and the editing modes together.
// It is the single entry point used by the terminal UI and by scripts.
package editor

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dshills/overstrike/internal/engine/buffer"
	"github.com/dshills/overstrike/internal/engine/cursor"
	"github.com/dshills/overstrike/internal/input/mode"
	"github.com/dshills/overstrike/internal/logging"
	"github.com/dshills/overstrike/internal/overwrite"
)

// Editor edits one buffer with any number of cursors.
// While in replace mode it owns an overwrite session; the session is
// created on entering replace mode and closed on leaving it.
type Editor struct {
	mu sync.Mutex

	buf     *buffer.Buffer
	cursors *cursor.CursorSet
	modes   *mode.Manager
	session *overwrite.Session

	path       string
	saved      buffer.RevisionID
	tabWidth   int
	lineEnding *buffer.LineEnding

	logger *logging.Logger
}

// Option configures an Editor.
type Option func(*Editor)

// WithLogger sets the editor logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Editor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithText starts the editor on the given text.
func WithText(s string) Option {
	return func(e *Editor) {
		e.buf = buffer.NewBufferFromString(s, buffer.WithDetectedLineEnding(s))
	}
}

// WithTabWidth sets the tab width used for display columns.
func WithTabWidth(width int) Option {
	return func(e *Editor) {
		e.tabWidth = width
	}
}

// WithLineEnding forces the line ending used on save, overriding the one
// detected when a file is opened.
func WithLineEnding(le buffer.LineEnding) Option {
	return func(e *Editor) {
		e.lineEnding = &le
	}
}

// New creates an editor in normal mode with one cursor at the start of the
// buffer.
func New(opts ...Option) *Editor {
	e := &Editor{
		buf:     buffer.NewBuffer(),
		cursors: cursor.NewCursorSetAt(0),
		logger:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.applyBufferSettings()
	e.saved = e.buf.RevisionID()

	e.modes = mode.NewDefaultManager()
	e.modes.SetLogger(e.logger)
	e.modes.SetEditor(modeState{e})
	e.modes.OnChange(e.onModeChange)
	return e
}

func (e *Editor) applyBufferSettings() {
	if e.tabWidth > 0 {
		e.buf.SetTabWidth(e.tabWidth)
	}
	if e.lineEnding != nil {
		e.buf.SetLineEnding(*e.lineEnding)
	}
}

// onModeChange runs inside Switch, so e.mu is already held.
func (e *Editor) onModeChange(from, to mode.Mode) {
	if from != nil && from.Name() == mode.ModeReplace && e.session != nil {
		sum := e.session.Changes(e.buf)
		e.logger.Info("replace session %s ended: +%d -%d", e.session.ID(), sum.Inserted, sum.Deleted)
		e.session.Close()
		e.session = nil
	}
	switch m := to.(type) {
	case *mode.ReplaceMode:
		e.session = overwrite.NewSession(e.buf, overwrite.WithLogger(e.logger))
		start := m.ReplaceStart()
		e.logger.Info("replace session %s started at %d:%d with %d cursors",
			e.session.ID(), start.Line+1, start.Column+1, m.StartCursors())
	case *mode.InsertMode:
		start := m.InsertStart()
		e.logger.Debug("insert started at %d:%d", start.Line+1, start.Column+1)
	}
}

// modeState exposes editor state to modes during transitions without
// taking the editor lock.
type modeState struct{ e *Editor }

func (s modeState) CursorPosition() (uint32, uint32) {
	p := s.e.buf.OffsetToPoint(s.e.cursors.Primary().Head)
	return p.Line, p.Column
}

func (s modeState) CursorCount() int { return s.e.cursors.Count() }
func (s modeState) IsModified() bool { return s.e.buf.RevisionID() != s.e.saved }

// Modes

// Mode returns the current mode name.
func (e *Editor) Mode() string {
	return e.modes.CurrentName()
}

// ModeDisplayName returns the status line name of the current mode.
func (e *Editor) ModeDisplayName() string {
	return e.modes.Current().DisplayName()
}

// ModeStart returns the primary cursor position when the current insert or
// replace mode was entered. It reports false in normal mode.
func (e *Editor) ModeStart() (mode.Position, bool) {
	switch m := e.modes.Current().(type) {
	case *mode.ReplaceMode:
		return m.ReplaceStart(), true
	case *mode.InsertMode:
		return m.InsertStart(), true
	}
	return mode.Position{}, false
}

// CursorStyle returns the cursor style of the current mode.
func (e *Editor) CursorStyle() mode.CursorStyle {
	return e.modes.Current().CursorStyle()
}

// ToggleReplace enters replace mode, or returns to normal mode when replace
// mode is active.
func (e *Editor) ToggleReplace() error {
	return e.switchMode(mode.ModeReplace, true)
}

// EnterReplace enters replace mode.
func (e *Editor) EnterReplace() error {
	return e.switchMode(mode.ModeReplace, false)
}

// EnterInsert enters insert mode.
func (e *Editor) EnterInsert() error {
	return e.switchMode(mode.ModeInsert, false)
}

// EnterNormal enters normal mode.
func (e *Editor) EnterNormal() error {
	return e.switchMode(mode.ModeNormal, false)
}

func (e *Editor) switchMode(name string, toggle bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if toggle {
		return e.modes.Toggle(name)
	}
	return e.modes.Switch(name)
}

// Session returns the active overwrite session, or nil outside replace mode.
func (e *Editor) Session() *overwrite.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session
}

// Tracked returns how many overwritten ranges the session can restore.
func (e *Editor) Tracked() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return 0
	}
	return e.session.Tracker().Len()
}

// Changes summarizes the edits made since replace mode was entered.
func (e *Editor) Changes() overwrite.ChangeSummary {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return overwrite.ChangeSummary{}
	}
	return e.session.Changes(e.buf)
}

// Editing

var newlines = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Type applies text at every cursor according to the current mode.
// Replace mode overwrites, insert mode inserts, normal mode ignores it.
func (e *Editor) Type(text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.modes.CurrentName() {
	case mode.ModeReplace:
		_, err := e.session.Type(e.buf, e.cursors, text)
		return err
	case mode.ModeInsert:
		return e.insertLocked(newlines.Replace(text))
	default:
		return nil
	}
}

func (e *Editor) insertLocked(text string) error {
	if text == "" {
		return nil
	}
	sels := e.cursors.All()
	edits := make([]buffer.Edit, len(sels))
	for i, sel := range sels {
		edits[len(sels)-1-i] = buffer.NewEdit(sel.Range(), text)
	}
	if err := e.buf.ApplyEdits(edits); err != nil {
		return err
	}

	var delta buffer.ByteOffset
	for i, sel := range sels {
		sels[i] = cursor.NewCursorSelection(sel.Start() + delta + buffer.ByteOffset(len(text)))
		delta += edits[len(sels)-1-i].Delta()
	}
	e.cursors.SetAll(sels)
	return nil
}

// Backspace undoes an overwrite in replace mode, deletes the character
// before each cursor in insert mode and moves left in normal mode.
func (e *Editor) Backspace() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.modes.CurrentName() {
	case mode.ModeReplace:
		_, err := e.session.Undo(e.buf, e.cursors)
		return err
	case mode.ModeInsert:
		return e.deleteBackwardLocked()
	default:
		e.moveLocked(e.left)
		return nil
	}
}

func (e *Editor) deleteBackwardLocked() error {
	sels := e.cursors.All()
	var edits []buffer.Edit
	for i := len(sels) - 1; i >= 0; i-- {
		r := sels[i].Range()
		if r.IsEmpty() {
			if r.Start == 0 {
				continue
			}
			r.Start = e.buf.PrevBoundary(r.Start)
		}
		if n := len(edits); n > 0 && r.End > edits[n-1].Range.Start {
			continue
		}
		edits = append(edits, buffer.NewDelete(r.Start, r.End))
	}
	if err := e.buf.ApplyEdits(edits); err != nil {
		return err
	}
	cursor.TransformCursorSet(e.cursors, edits)
	e.cursors.CollapseAll()
	return nil
}

// Motions. Motions never touch the overwrite session.

// MoveLeft moves every cursor one character left, stopping at line start.
func (e *Editor) MoveLeft() { e.move(e.left) }

// MoveRight moves every cursor one character right, stopping at line end.
func (e *Editor) MoveRight() { e.move(e.right) }

// MoveUp moves every cursor to the same display column on the line above.
func (e *Editor) MoveUp() { e.move(e.up) }

// MoveDown moves every cursor to the same display column on the line below.
func (e *Editor) MoveDown() { e.move(e.down) }

// MoveLineStart moves every cursor to the start of its line.
func (e *Editor) MoveLineStart() { e.move(e.lineStart) }

// MoveLineEnd moves every cursor to the end of its line.
func (e *Editor) MoveLineEnd() { e.move(e.lineEnd) }

func (e *Editor) move(f func(buffer.ByteOffset) buffer.ByteOffset) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.moveLocked(f)
}

func (e *Editor) moveLocked(f func(buffer.ByteOffset) buffer.ByteOffset) {
	e.cursors.MapInPlace(func(sel cursor.Selection) cursor.Selection {
		return cursor.NewCursorSelection(f(sel.Head))
	})
}

func (e *Editor) left(off buffer.ByteOffset) buffer.ByteOffset {
	if e.buf.OffsetToPoint(off).Column == 0 {
		return off
	}
	return e.buf.PrevBoundary(off)
}

func (e *Editor) right(off buffer.ByteOffset) buffer.ByteOffset {
	if off >= e.buf.LineEndOffset(e.buf.OffsetToPoint(off).Line) {
		return off
	}
	return e.buf.NextBoundary(off)
}

func (e *Editor) up(off buffer.ByteOffset) buffer.ByteOffset {
	dp := e.buf.OffsetToDisplay(off)
	if dp.Line == 0 {
		return off
	}
	dp.Line--
	return e.buf.DisplayToOffset(dp, buffer.BiasLeft)
}

func (e *Editor) down(off buffer.ByteOffset) buffer.ByteOffset {
	dp := e.buf.OffsetToDisplay(off)
	if dp.Line+1 >= e.buf.LineCount() {
		return off
	}
	dp.Line++
	return e.buf.DisplayToOffset(dp, buffer.BiasLeft)
}

func (e *Editor) lineStart(off buffer.ByteOffset) buffer.ByteOffset {
	return e.buf.LineStartOffset(e.buf.OffsetToPoint(off).Line)
}

func (e *Editor) lineEnd(off buffer.ByteOffset) buffer.ByteOffset {
	return e.buf.LineEndOffset(e.buf.OffsetToPoint(off).Line)
}

// Cursors

// AddCursor adds a cursor at offset, snapped to a character boundary.
func (e *Editor) AddCursor(offset buffer.ByteOffset) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cursors.Add(cursor.NewCursorSelection(e.buf.ClipOffset(offset, buffer.BiasLeft)))
}

// SetCursors replaces all cursors with cursors at the given offsets.
func (e *Editor) SetCursors(offsets ...buffer.ByteOffset) {
	e.mu.Lock()
	defer e.mu.Unlock()
	sels := make([]cursor.Selection, len(offsets))
	for i, off := range offsets {
		sels[i] = cursor.NewCursorSelection(e.buf.ClipOffset(off, buffer.BiasLeft))
	}
	e.cursors.SetAll(sels)
}

// SetSelections replaces all cursors with the given selections.
func (e *Editor) SetSelections(sels ...cursor.Selection) {
	e.mu.Lock()
	defer e.mu.Unlock()
	limit := e.buf.Len()
	for i := range sels {
		sels[i] = sels[i].Clamp(limit)
	}
	e.cursors.SetAll(sels)
}

// Cursors returns every selection, in buffer order.
func (e *Editor) Cursors() []cursor.Selection {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cursors.All()
}

// Heads returns the head offset of every cursor.
func (e *Editor) Heads() []buffer.ByteOffset {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cursors.Heads()
}

// CursorPosition returns the line and column of the primary cursor.
func (e *Editor) CursorPosition() (line, col uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return modeState{e}.CursorPosition()
}

// Buffer access

// Text returns the buffer contents.
func (e *Editor) Text() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buf.Text()
}

// Buffer returns the underlying buffer.
func (e *Editor) Buffer() *buffer.Buffer {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buf
}

// SetTabWidth changes the display tab width.
func (e *Editor) SetTabWidth(width int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tabWidth = width
	e.buf.SetTabWidth(width)
}

// SetLineEnding forces the line ending used on save.
func (e *Editor) SetLineEnding(le buffer.LineEnding) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lineEnding = &le
	e.buf.SetLineEnding(le)
}

// Files

// Path returns the file the buffer was opened from or last saved to.
func (e *Editor) Path() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.path
}

// Modified reports whether the buffer changed since it was opened or saved.
func (e *Editor) Modified() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return modeState{e}.IsModified()
}

// Open loads path into the editor, replacing the buffer. A missing file
// opens an empty buffer that will be created on save. Any replace session
// is ended first.
func (e *Editor) Open(path string) error {
	content, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return &OperationError{Op: "open", Target: path, Err: err}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.modes.Switch(mode.ModeNormal); err != nil {
		return err
	}
	s := string(content)
	e.buf = buffer.NewBufferFromString(s, buffer.WithDetectedLineEnding(s))
	e.applyBufferSettings()
	e.cursors = cursor.NewCursorSetAt(0)
	e.path = path
	e.saved = e.buf.RevisionID()
	e.logger.Info("opened %s (%d bytes, %s)", filepath.Base(path), e.buf.Len(), e.buf.LineEnding())
	return nil
}

// Save writes the buffer to path, or to the current path when path is
// empty. The buffer's line ending style is used.
func (e *Editor) Save(path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if path == "" {
		path = e.path
	}
	if path == "" {
		return &OperationError{Op: "save", Err: ErrNoPath}
	}

	var out bytes.Buffer
	if _, err := e.buf.WriteTo(&out); err != nil {
		return &OperationError{Op: "save", Target: path, Err: err}
	}
	if err := os.WriteFile(path, out.Bytes(), 0o644); err != nil {
		return &OperationError{Op: "save", Target: path, Err: err}
	}

	e.path = path
	e.saved = e.buf.RevisionID()
	e.logger.Info("saved %s (%d bytes)", filepath.Base(path), out.Len())
	return nil
}
