package script

import (
	"github.com/rivo/uniseg"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/overstrike/internal/engine/buffer"
)

func (r *Runner) editorTable() *lua.LTable {
	return r.L.SetFuncs(r.L.NewTable(), map[string]lua.LGFunction{
		"text":        r.luaText,
		"type":        r.luaType,
		"backspace":   r.luaBackspace,
		"replace":     r.luaReplace,
		"insert":      r.luaInsert,
		"normal":      r.luaNormal,
		"mode":        r.luaMode,
		"cursors":     r.luaCursors,
		"set_cursors": r.luaSetCursors,
		"add_cursor":  r.luaAddCursor,
		"move":        r.luaMove,
		"tracked":     r.luaTracked,
		"changes":     r.luaChanges,
	})
}

// raise turns a Go error into a Lua error at the caller.
func raise(L *lua.LState, err error) int {
	L.RaiseError("%v", err)
	return 0
}

func (r *Runner) luaText(L *lua.LState) int {
	L.Push(lua.LString(r.ed.Text()))
	return 1
}

// luaType types s one character at a time, like keystrokes.
func (r *Runner) luaType(L *lua.LState) int {
	s := L.CheckString(1)
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		if err := r.ed.Type(g.Str()); err != nil {
			return raise(L, err)
		}
	}
	return 0
}

func (r *Runner) luaBackspace(L *lua.LState) int {
	n := L.OptInt(1, 1)
	for i := 0; i < n; i++ {
		if err := r.ed.Backspace(); err != nil {
			return raise(L, err)
		}
	}
	return 0
}

func (r *Runner) luaReplace(L *lua.LState) int {
	if err := r.ed.ToggleReplace(); err != nil {
		return raise(L, err)
	}
	return 0
}

func (r *Runner) luaInsert(L *lua.LState) int {
	if err := r.ed.EnterInsert(); err != nil {
		return raise(L, err)
	}
	return 0
}

func (r *Runner) luaNormal(L *lua.LState) int {
	if err := r.ed.EnterNormal(); err != nil {
		return raise(L, err)
	}
	return 0
}

func (r *Runner) luaMode(L *lua.LState) int {
	L.Push(lua.LString(r.ed.Mode()))
	return 1
}

// luaCursors returns the cursor offsets as a list of byte offsets.
func (r *Runner) luaCursors(L *lua.LState) int {
	t := L.NewTable()
	for _, head := range r.ed.Heads() {
		t.Append(lua.LNumber(head))
	}
	L.Push(t)
	return 1
}

func (r *Runner) luaSetCursors(L *lua.LState) int {
	t := L.CheckTable(1)
	var offsets []buffer.ByteOffset
	for i := 1; i <= t.Len(); i++ {
		n, ok := t.RawGetInt(i).(lua.LNumber)
		if !ok {
			L.ArgError(1, "cursor offsets must be numbers")
			return 0
		}
		offsets = append(offsets, buffer.ByteOffset(n))
	}
	if len(offsets) == 0 {
		L.ArgError(1, "at least one cursor is required")
		return 0
	}
	r.ed.SetCursors(offsets...)
	return 0
}

func (r *Runner) luaAddCursor(L *lua.LState) int {
	r.ed.AddCursor(buffer.ByteOffset(L.CheckInt64(1)))
	return 0
}

func (r *Runner) luaMove(L *lua.LState) int {
	dir := L.CheckString(1)
	n := L.OptInt(2, 1)

	var move func()
	switch dir {
	case "left":
		move = r.ed.MoveLeft
	case "right":
		move = r.ed.MoveRight
	case "up":
		move = r.ed.MoveUp
	case "down":
		move = r.ed.MoveDown
	case "home":
		move = r.ed.MoveLineStart
	case "end":
		move = r.ed.MoveLineEnd
	default:
		L.ArgError(1, "direction must be left, right, up, down, home or end")
		return 0
	}
	for i := 0; i < n; i++ {
		move()
	}
	return 0
}

func (r *Runner) luaTracked(L *lua.LState) int {
	L.Push(lua.LNumber(r.ed.Tracked()))
	return 1
}

// luaChanges returns {inserted=, deleted=} since replace mode was entered.
func (r *Runner) luaChanges(L *lua.LState) int {
	sum := r.ed.Changes()
	t := L.NewTable()
	t.RawSetString("inserted", lua.LNumber(sum.Inserted))
	t.RawSetString("deleted", lua.LNumber(sum.Deleted))
	L.Push(t)
	return 1
}
