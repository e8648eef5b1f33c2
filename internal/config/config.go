// Package config loads overstrike settings from TOML or YAML files and
// the environment, and watches the settings file for changes.
//
// Settings are resolved in order, later sources overriding earlier ones:
//  1. Built-in defaults
//  2. The settings file (format chosen by extension)
//  3. OVERSTRIKE_* environment variables
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/overstrike/internal/engine/buffer"
	"github.com/dshills/overstrike/internal/logging"
)

// Config holds all settings.
type Config struct {
	Editor  EditorConfig  `toml:"editor" yaml:"editor"`
	Logging LoggingConfig `toml:"logging" yaml:"logging"`
	Keys    KeysConfig    `toml:"keys" yaml:"keys"`
}

// EditorConfig holds buffer settings.
type EditorConfig struct {
	// TabWidth is the number of cells between tab stops.
	TabWidth int `toml:"tab_width" yaml:"tab_width"`
	// LineEnding forces "lf", "crlf" or "cr" on save. Empty keeps the
	// line ending detected when the file was opened.
	LineEnding string `toml:"line_ending" yaml:"line_ending"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level" yaml:"level"`
	// File receives log output. Empty discards logs while the terminal
	// UI owns the screen.
	File string `toml:"file" yaml:"file"`
}

// KeysConfig holds key bindings.
type KeysConfig struct {
	// ToggleReplace is the key that toggles replace mode: "insert" or a
	// control chord such as "ctrl-r".
	ToggleReplace string `toml:"toggle_replace" yaml:"toggle_replace"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Editor: EditorConfig{
			TabWidth: 4,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Keys: KeysConfig{
			ToggleReplace: "ctrl-r",
		},
	}
}

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// ValidationError describes a setting that failed validation.
type ValidationError struct {
	// Path is the setting path, e.g. "editor.tab_width".
	Path string
	// Message describes the problem.
	Message string
	// Value is the rejected value.
	Value any
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got %v)", e.Path, e.Message, e.Value)
}

// Unwrap returns ErrInvalid.
func (e *ValidationError) Unwrap() error {
	return ErrInvalid
}

// Validate checks every setting and returns all problems joined together.
func (c Config) Validate() error {
	var errs []error
	if c.Editor.TabWidth < 1 || c.Editor.TabWidth > 16 {
		errs = append(errs, &ValidationError{Path: "editor.tab_width", Message: "must be between 1 and 16", Value: c.Editor.TabWidth})
	}
	if c.Editor.LineEnding != "" {
		if _, ok := buffer.ParseLineEnding(c.Editor.LineEnding); !ok {
			errs = append(errs, &ValidationError{Path: "editor.line_ending", Message: "must be lf, crlf or cr", Value: c.Editor.LineEnding})
		}
	}
	if _, ok := logging.ParseLevel(c.Logging.Level); !ok {
		errs = append(errs, &ValidationError{Path: "logging.level", Message: "must be debug, info, warn or error", Value: c.Logging.Level})
	}
	if _, err := ParseKey(c.Keys.ToggleReplace); err != nil {
		errs = append(errs, &ValidationError{Path: "keys.toggle_replace", Message: err.Error(), Value: c.Keys.ToggleReplace})
	}
	return errors.Join(errs...)
}

// LogLevel returns the configured log level, defaulting to info.
func (c Config) LogLevel() logging.Level {
	level, _ := logging.ParseLevel(c.Logging.Level)
	return level
}

// LineEnding returns the forced line ending, if any.
func (c Config) LineEnding() (buffer.LineEnding, bool) {
	if c.Editor.LineEnding == "" {
		return 0, false
	}
	return buffer.ParseLineEnding(c.Editor.LineEnding)
}

// Key is a parsed key binding.
type Key struct {
	// Insert is set for the Insert key.
	Insert bool
	// Ctrl is the letter of a control chord, lower case.
	Ctrl rune
}

// reservedCtrl are control chords a binding may not take. Terminals send
// ctrl-h, ctrl-i and ctrl-m as backspace, tab and enter; ctrl-q and ctrl-s
// quit and save.
var reservedCtrl = map[rune]string{
	'h': "backspace",
	'i': "tab",
	'm': "enter",
	'q': "quit",
	's': "save",
}

// ParseKey parses a key binding: "insert" or "ctrl-<letter>".
func ParseKey(s string) (Key, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "insert" {
		return Key{Insert: true}, nil
	}
	if letter, ok := strings.CutPrefix(s, "ctrl-"); ok && len(letter) == 1 && letter[0] >= 'a' && letter[0] <= 'z' {
		r := rune(letter[0])
		if use, taken := reservedCtrl[r]; taken {
			return Key{}, fmt.Errorf("key %q is reserved for %s", s, use)
		}
		return Key{Ctrl: r}, nil
	}
	return Key{}, fmt.Errorf("unknown key %q", s)
}
