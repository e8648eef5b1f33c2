// Package script drives an editor from Lua.
//
// Scripts run in a sandboxed gopher-lua state with only the base, table,
// string and math libraries. The editor is exposed as a global table:
//
//	editor.replace()          -- toggle replace mode
//	editor.type("abc")        -- type each character in turn
//	editor.backspace(2)
//	print(editor.text(), editor.tracked())
package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/overstrike/internal/editor"
	"github.com/dshills/overstrike/internal/logging"
)

// DefaultTimeout bounds a single Run.
const DefaultTimeout = 5 * time.Second

var (
	// ErrScript is wrapped by every error raised while running a script.
	ErrScript = errors.New("script error")

	// ErrClosed is returned when running a script on a closed runner.
	ErrClosed = errors.New("script runner closed")
)

// Error is a failure inside a script chunk.
type Error struct {
	// Chunk names the script: a file path or "<string>".
	Chunk string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Chunk, e.Err)
}

// Unwrap returns ErrScript and the underlying error.
func (e *Error) Unwrap() []error {
	return []error{ErrScript, e.Err}
}

// Runner executes Lua scripts against one editor.
//
// gopher-lua states are not goroutine-safe; the mutex serializes runs.
type Runner struct {
	mu sync.Mutex

	L       *lua.LState
	ed      *editor.Editor
	logger  *logging.Logger
	out     io.Writer
	timeout time.Duration
	closed  bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the runner logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithOutput redirects print.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) {
		if w != nil {
			r.out = w
		}
	}
}

// WithTimeout bounds each run. Zero disables the limit.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		r.timeout = d
	}
}

// NewRunner creates a sandboxed Lua state bound to ed.
func NewRunner(ed *editor.Editor, opts ...Option) *Runner {
	r := &Runner{
		ed:      ed,
		logger:  logging.Nop(),
		out:     os.Stdout,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.WithComponent("script")

	r.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(r.L)
	r.L.SetGlobal("print", r.L.NewFunction(r.print))
	r.L.SetGlobal("editor", r.editorTable())
	return r
}

// openSafeLibraries opens only libraries without file or process access.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// Run executes a chunk of Lua source.
func (r *Runner) Run(code string) error {
	return r.RunContext(context.Background(), "<string>", code)
}

// RunFile executes the Lua file at path.
func (r *Runner) RunFile(path string) error {
	code, err := os.ReadFile(path)
	if err != nil {
		return &Error{Chunk: path, Err: err}
	}
	return r.RunContext(context.Background(), path, string(code))
}

// RunContext executes code, stopping when ctx is done or the runner
// timeout expires. chunk names the code in errors.
func (r *Runner) RunContext(ctx context.Context, chunk, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	r.L.SetContext(ctx)
	defer r.L.RemoveContext()

	fn, err := r.L.Load(strings.NewReader(code), chunk)
	if err != nil {
		return &Error{Chunk: chunk, Err: err}
	}

	r.logger.Debug("running %s", chunk)
	if err := r.call(fn); err != nil {
		r.logger.Warn("%s failed: %v", chunk, err)
		return &Error{Chunk: chunk, Err: err}
	}
	return nil
}

func (r *Runner) call(fn *lua.LFunction) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("lua panic: %v", p)
		}
	}()
	r.L.Push(fn)
	return r.L.PCall(0, lua.MultRet, nil)
}

// Close releases the Lua state.
func (r *Runner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.L.Close()
}

func (r *Runner) print(L *lua.LState) int {
	n := L.GetTop()
	parts := make([]string, n)
	for i := 1; i <= n; i++ {
		parts[i-1] = L.ToStringMeta(L.Get(i)).String()
	}
	fmt.Fprintln(r.out, strings.Join(parts, "\t"))
	return 0
}
