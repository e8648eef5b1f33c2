package mode

// Mode defines the interface for editor modes.
// A mode decides how typed text is applied and what cursor style is shown.
type Mode interface {
	// Name returns the unique mode identifier (e.g., "normal", "replace").
	Name() string

	// DisplayName returns a human-readable name for the status line.
	DisplayName() string

	// CursorStyle returns the cursor style for this mode.
	CursorStyle() CursorStyle

	// Enter is called when entering this mode.
	Enter(ctx *Context) error

	// Exit is called when leaving this mode.
	Exit(ctx *Context) error
}

// Context provides information during mode transitions.
type Context struct {
	// PreviousMode is the mode being transitioned from (for Enter).
	PreviousMode string

	// NextMode is the mode being transitioned to (for Exit).
	NextMode string

	// Editor provides read-only access to editor state.
	Editor EditorState
}

// NewContext creates a new mode context.
func NewContext() *Context {
	return &Context{}
}

// WithEditor returns a copy of the context with the given editor state.
func (c *Context) WithEditor(editor EditorState) *Context {
	copy := *c
	copy.Editor = editor
	return &copy
}

// CursorStyle defines the visual appearance of the cursor.
type CursorStyle uint8

const (
	// CursorBlock is a full-cell block cursor (normal mode).
	CursorBlock CursorStyle = iota

	// CursorBar is a thin vertical bar cursor (insert mode).
	CursorBar

	// CursorUnderline is an underline cursor (replace mode).
	CursorUnderline
)

// String returns a human-readable cursor style name.
func (c CursorStyle) String() string {
	switch c {
	case CursorBlock:
		return "block"
	case CursorBar:
		return "bar"
	case CursorUnderline:
		return "underline"
	default:
		return "unknown"
	}
}

// EditorState provides read-only access to editor state.
type EditorState interface {
	// CursorPosition returns the primary cursor position (line, column).
	// Lines and columns are 0-indexed.
	CursorPosition() (line, col uint32)

	// CursorCount returns the number of cursors.
	CursorCount() int

	// IsModified returns true if the buffer has unsaved changes.
	IsModified() bool
}

// Position is a line and column in the buffer.
type Position struct {
	Line   uint32
	Column uint32
}

// Standard mode names.
const (
	ModeNormal  = "normal"
	ModeInsert  = "insert"
	ModeReplace = "replace"
)
