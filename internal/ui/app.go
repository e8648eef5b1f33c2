// Package ui runs the editor in a terminal using tcell.
package ui

import (
	"context"
	"fmt"
	"unicode"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/overstrike/internal/config"
	"github.com/dshills/overstrike/internal/editor"
	"github.com/dshills/overstrike/internal/input/mode"
	"github.com/dshills/overstrike/internal/logging"
)

// App connects a tcell screen to an editor.
type App struct {
	screen tcell.Screen
	ed     *editor.Editor
	logger *logging.Logger

	toggle config.Key
	top    uint32 // first visible line
	status string
}

// Option configures an App.
type Option func(*App)

// WithLogger sets the UI logger.
func WithLogger(l *logging.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithToggleKey sets the key that toggles replace mode.
func WithToggleKey(k config.Key) Option {
	return func(a *App) {
		a.toggle = k
	}
}

// New creates an App drawing to screen. The screen must already be
// initialized.
func New(screen tcell.Screen, ed *editor.Editor, opts ...Option) *App {
	a := &App{
		screen: screen,
		ed:     ed,
		logger: logging.Nop(),
		toggle: config.Key{Ctrl: 'r'},
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.WithComponent("ui")
	return a
}

// Run draws and handles events until the user quits or ctx is done.
// Configs received from configs are applied as they arrive; a nil channel
// disables reloading.
func (a *App) Run(ctx context.Context, configs <-chan config.Config) error {
	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	defer close(quit)
	go a.screen.ChannelEvents(events, quit)

	a.Draw()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cfg, ok := <-configs:
			if !ok {
				configs = nil
				continue
			}
			a.ApplyConfig(cfg)
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if a.HandleEvent(ev) {
				return nil
			}
		}
		a.Draw()
	}
}

// ApplyConfig applies reloadable settings.
func (a *App) ApplyConfig(cfg config.Config) {
	a.ed.SetTabWidth(cfg.Editor.TabWidth)
	if le, ok := cfg.LineEnding(); ok {
		a.ed.SetLineEnding(le)
	}
	a.logger.SetLevel(cfg.LogLevel())
	if k, err := config.ParseKey(cfg.Keys.ToggleReplace); err == nil {
		a.toggle = k
	}
	a.status = "settings reloaded"
	a.logger.Info("settings reloaded")
}

// HandleEvent processes one terminal event and reports whether the user
// asked to quit.
func (a *App) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return a.handleKey(ev)
	case *tcell.EventResize:
		a.screen.Sync()
	}
	return false
}

func (a *App) handleKey(ev *tcell.EventKey) bool {
	a.status = ""

	if a.isToggle(ev) {
		a.check(a.ed.ToggleReplace())
		return false
	}

	switch {
	case isCtrl(ev, 'q'):
		return true
	case isCtrl(ev, 's'):
		a.save()
		return false
	}

	switch ev.Key() {
	case tcell.KeyEscape:
		a.check(a.ed.EnterNormal())
	case tcell.KeyInsert:
		// Insert always switches between insert and replace.
		if a.ed.Mode() == mode.ModeReplace {
			a.check(a.ed.EnterInsert())
		} else {
			a.check(a.ed.EnterReplace())
		}
	case tcell.KeyEnter:
		a.check(a.ed.Type("\n"))
	case tcell.KeyTab:
		a.check(a.ed.Type("\t"))
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		a.check(a.ed.Backspace())
	case tcell.KeyLeft:
		a.ed.MoveLeft()
	case tcell.KeyRight:
		a.ed.MoveRight()
	case tcell.KeyUp:
		a.ed.MoveUp()
	case tcell.KeyDown:
		a.ed.MoveDown()
	case tcell.KeyHome:
		a.ed.MoveLineStart()
	case tcell.KeyEnd:
		a.ed.MoveLineEnd()
	case tcell.KeyRune:
		if ev.Modifiers()&(tcell.ModCtrl|tcell.ModAlt) == 0 {
			a.handleRune(ev.Rune())
		}
	}
	return false
}

// handleRune types in insert and replace mode. Normal mode knows a few
// vi commands.
func (a *App) handleRune(r rune) {
	if a.ed.Mode() != mode.ModeNormal {
		a.check(a.ed.Type(string(r)))
		return
	}
	switch r {
	case 'i':
		a.check(a.ed.EnterInsert())
	case 'R':
		a.check(a.ed.EnterReplace())
	case 'h':
		a.ed.MoveLeft()
	case 'l':
		a.ed.MoveRight()
	case 'k':
		a.ed.MoveUp()
	case 'j':
		a.ed.MoveDown()
	case '0':
		a.ed.MoveLineStart()
	case '$':
		a.ed.MoveLineEnd()
	}
}

func (a *App) isToggle(ev *tcell.EventKey) bool {
	if a.toggle.Insert {
		return ev.Key() == tcell.KeyInsert
	}
	return a.toggle.Ctrl != 0 && isCtrl(ev, a.toggle.Ctrl)
}

// isCtrl reports whether ev is the control chord for letter r. Terminals
// deliver control keys either as control codes or as a rune with the ctrl
// modifier.
func isCtrl(ev *tcell.EventKey, r rune) bool {
	if ev.Key() == tcell.KeyCtrlA+tcell.Key(r-'a') {
		return true
	}
	return ev.Key() == tcell.KeyRune && ev.Modifiers()&tcell.ModCtrl != 0 &&
		unicode.ToLower(ev.Rune()) == r
}

func (a *App) save() {
	if err := a.ed.Save(""); err != nil {
		a.check(err)
		return
	}
	a.status = fmt.Sprintf("wrote %s", a.ed.Path())
	a.logger.Info("saved %s", a.ed.Path())
}

// check shows err on the status line.
func (a *App) check(err error) {
	if err == nil {
		return
	}
	a.status = err.Error()
	a.logger.Warn("%v", err)
}
