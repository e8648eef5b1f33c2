package mode

// ReplaceMode overwrites the character under each cursor with typed text.
// The overwrite session itself is owned by the editor, which starts and
// ends it from a mode change callback.
type ReplaceMode struct {
	replaceStart Position
	cursors      int
}

// NewReplaceMode creates a new replace mode instance.
func NewReplaceMode() *ReplaceMode {
	return &ReplaceMode{}
}

// Name returns the mode identifier.
func (m *ReplaceMode) Name() string {
	return ModeReplace
}

// DisplayName returns the human-readable mode name.
func (m *ReplaceMode) DisplayName() string {
	return "REPLACE"
}

// CursorStyle returns the cursor style for replace mode.
func (m *ReplaceMode) CursorStyle() CursorStyle {
	return CursorUnderline
}

// Enter is called when entering replace mode.
func (m *ReplaceMode) Enter(ctx *Context) error {
	m.replaceStart = Position{}
	m.cursors = 1
	if ctx.Editor != nil {
		line, col := ctx.Editor.CursorPosition()
		m.replaceStart = Position{Line: line, Column: col}
		m.cursors = ctx.Editor.CursorCount()
	}
	return nil
}

// Exit is called when leaving replace mode.
func (m *ReplaceMode) Exit(ctx *Context) error {
	return nil
}

// ReplaceStart returns the primary cursor position when replace mode began.
func (m *ReplaceMode) ReplaceStart() Position {
	return m.replaceStart
}

// StartCursors returns how many cursors were active when replace mode began.
func (m *ReplaceMode) StartCursors() int {
	return m.cursors
}
