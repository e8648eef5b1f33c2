package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/overstrike/internal/engine/buffer"
	"github.com/dshills/overstrike/internal/logging"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range EnvVars() {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 4, cfg.Editor.TabWidth)
	assert.Equal(t, logging.LevelInfo, cfg.LogLevel())
	_, forced := cfg.LineEnding()
	assert.False(t, forced)
}

func TestLoadTOML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), "overstrike.toml", `
[editor]
tab_width = 8
line_ending = "crlf"

[logging]
level = "debug"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Editor.TabWidth)
	assert.Equal(t, logging.LevelDebug, cfg.LogLevel())
	assert.Equal(t, "ctrl-r", cfg.Keys.ToggleReplace, "unset keys keep defaults")

	le, forced := cfg.LineEnding()
	assert.True(t, forced)
	assert.Equal(t, buffer.LineEndingCRLF, le)
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), "overstrike.yml", `
editor:
  tab_width: 2
keys:
  toggle_replace: insert
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Editor.TabWidth)
	assert.Equal(t, "insert", cfg.Keys.ToggleReplace)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadEmptyYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), "empty.yaml", "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "nope.toml"))
		assert.ErrorIs(t, err, ErrFileNotFound)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := writeFile(t, dir, "settings.json", "{}")
		_, err := Load(path)
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("toml syntax", func(t *testing.T) {
		path := writeFile(t, dir, "bad.toml", "[editor]\ntab_width = = 3\n")
		_, err := Load(path)

		var perr *ParseError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, path, perr.Path)
		assert.Equal(t, 2, perr.Line)
	})

	t.Run("unknown toml key", func(t *testing.T) {
		path := writeFile(t, dir, "unknown.toml", "[editor]\ntabs = 3\n")
		_, err := Load(path)

		var perr *ParseError
		assert.ErrorAs(t, err, &perr)
	})

	t.Run("unknown yaml key", func(t *testing.T) {
		path := writeFile(t, dir, "unknown.yaml", "editor:\n  tabs: 3\n")
		_, err := Load(path)

		var perr *ParseError
		assert.ErrorAs(t, err, &perr)
	})

	t.Run("invalid values", func(t *testing.T) {
		path := writeFile(t, dir, "invalid.toml", "[editor]\ntab_width = 0\n[logging]\nlevel = \"loud\"\n")
		_, err := Load(path)
		require.ErrorIs(t, err, ErrInvalid)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "editor.tab_width", verr.Path)
		assert.Contains(t, err.Error(), "logging.level")
	})
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), "overstrike.toml", "[editor]\ntab_width = 8\n")
	t.Setenv("OVERSTRIKE_TAB_WIDTH", "3")
	t.Setenv("OVERSTRIKE_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Editor.TabWidth)
	assert.Equal(t, logging.LevelWarn, cfg.LogLevel())
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"OVERSTRIKE_LINE_ENDING":        "lf",
		"OVERSTRIKE_LOG_FILE":           "/tmp/overstrike.log",
		"OVERSTRIKE_TOGGLE_REPLACE_KEY": "ctrl-t",
	}
	lookup := func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, ApplyEnv(&cfg, lookup))
	assert.Equal(t, "lf", cfg.Editor.LineEnding)
	assert.Equal(t, "/tmp/overstrike.log", cfg.Logging.File)
	assert.Equal(t, "ctrl-t", cfg.Keys.ToggleReplace)

	env["OVERSTRIKE_TAB_WIDTH"] = "wide"
	var perr *ParseError
	assert.ErrorAs(t, ApplyEnv(&cfg, lookup), &perr)
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		in   string
		want Key
		ok   bool
	}{
		{"insert", Key{Insert: true}, true},
		{"Ctrl-R", Key{Ctrl: 'r'}, true},
		{"ctrl-", Key{}, false},
		{"ctrl-1", Key{}, false},
		{"f5", Key{}, false},
		{"ctrl-h", Key{}, false},
		{"ctrl-i", Key{}, false},
		{"Ctrl-M", Key{}, false},
		{"ctrl-q", Key{}, false},
		{"ctrl-s", Key{}, false},
	}
	for _, tt := range tests {
		got, err := ParseKey(tt.in)
		if tt.ok {
			require.NoError(t, err, tt.in)
			assert.Equal(t, tt.want, got, tt.in)
		} else {
			assert.Error(t, err, tt.in)
		}
	}

	t.Run("reserved key rejected by validation", func(t *testing.T) {
		cfg := Default()
		cfg.Keys.ToggleReplace = "ctrl-i"
		assert.ErrorContains(t, cfg.Validate(), "reserved for tab")
	})
}

func TestFormatForPath(t *testing.T) {
	f, err := FormatForPath("a/b.TOML")
	require.NoError(t, err)
	assert.Equal(t, FormatTOML, f)

	f, err = FormatForPath("b.yaml")
	require.NoError(t, err)
	assert.Equal(t, "yaml", f.String())
}

func TestWatcherReloads(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), "overstrike.toml", "[editor]\ntab_width = 4\n")

	w, err := NewWatcher(path, WithDebounce(50*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("[editor]\ntab_width = 8\n"), 0o644))

	select {
	case cfg := <-w.Configs():
		assert.Equal(t, 8, cfg.Editor.TabWidth)
	case err := <-w.Errors():
		t.Fatalf("unexpected error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload")
	}
}

func TestWatcherReportsBadFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), "overstrike.toml", "[editor]\ntab_width = 4\n")

	w, err := NewWatcher(path, WithDebounce(50*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("[editor]\ntab_width = 99\n"), 0o644))

	select {
	case err := <-w.Errors():
		assert.True(t, errors.Is(err, ErrInvalid))
	case <-w.Configs():
		t.Fatal("invalid config delivered")
	case <-time.After(5 * time.Second):
		t.Fatal("no error reported")
	}
}

func TestWatcherCloseIsIdempotent(t *testing.T) {
	path := writeFile(t, t.TempDir(), "overstrike.toml", "")
	w, err := NewWatcher(path)
	require.NoError(t, err)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, ok := <-w.Configs()
	assert.False(t, ok)
}
