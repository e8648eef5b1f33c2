// Package mode provides the modal editing system for overstrike.
//
// Three modes are built in:
//   - Normal mode: navigation, typed text is ignored
//   - Insert mode: typed text is inserted at every cursor
//   - Replace mode: typed text overwrites the character under every cursor
//
// # Mode Lifecycle
//
// When switching modes:
// 1. Current mode's Exit() is called
// 2. New mode's Enter() is called
// 3. Mode change callbacks are notified
//
// Toggle switches into a mode, or back to normal mode when that mode is
// already active:
//
//	m := mode.NewDefaultManager()
//	m.Toggle(mode.ModeReplace) // normal -> replace
//	m.Toggle(mode.ModeReplace) // replace -> normal
package mode
