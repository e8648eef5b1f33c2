package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/dshills/overstrike/internal/config"
	"github.com/dshills/overstrike/internal/editor"
	"github.com/dshills/overstrike/internal/logging"
	"github.com/dshills/overstrike/internal/overwrite"
	"github.com/dshills/overstrike/internal/script"
	"github.com/dshills/overstrike/internal/ui"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	logFile    string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:           "overstrike",
		Short:         "A terminal editor with vi-style replace mode",
		Long:          "overstrike edits text with vi-style normal, insert and replace modes.\nIn replace mode typing overwrites text and backspace restores it.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "path to a TOML or YAML settings file")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&flags.logFile, "log-file", "", "append logs to this file")

	root.AddCommand(
		newEditCmd(&flags),
		newRunCmd(&flags, stdout, stderr),
		newVersionCmd(stdout),
	)
	return root
}

func newEditCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "edit [file]",
		Short: "Open a file in the terminal editor",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			return runEdit(cmd.Context(), flags, path)
		},
	}
}

func newRunCmd(flags *globalFlags, stdout, stderr io.Writer) *cobra.Command {
	var (
		showDiff bool
		write    bool
	)
	cmd := &cobra.Command{
		Use:   "run script.lua [file]",
		Short: "Run a Lua script against a file",
		Long:  "run executes a Lua script that drives the editor through the global\n`editor` table, then prints the resulting text, a diff, or saves the file.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 2 {
				path = args[1]
			}
			return runScript(cmd.Context(), flags, args[0], path, showDiff, write, stdout, stderr)
		},
	}
	cmd.Flags().BoolVar(&showDiff, "diff", false, "print a patch of the changes instead of the text")
	cmd.Flags().BoolVarP(&write, "write", "w", false, "save the file after the script")
	return cmd
}

func newVersionCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(stdout, "overstrike %s\n", version)
			fmt.Fprintf(stdout, "Commit: %s\n", commit)
			fmt.Fprintf(stdout, "Built: %s\n", date)
		},
	}
}

// setup loads settings and builds the logger. fallback receives logs when
// no log file is configured. The returned func closes the log file.
func setup(flags *globalFlags, fallback io.Writer) (config.Config, *logging.Logger, func(), error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	if flags.logLevel != "" {
		if _, ok := logging.ParseLevel(flags.logLevel); !ok {
			return config.Config{}, nil, nil, fmt.Errorf("invalid log level %q (must be debug, info, warn, or error)", flags.logLevel)
		}
		cfg.Logging.Level = flags.logLevel
	}
	if flags.logFile != "" {
		cfg.Logging.File = flags.logFile
	}

	out := fallback
	closeLog := func() {}
	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return config.Config{}, nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		out = f
		closeLog = func() { _ = f.Close() }
	}

	if out == nil {
		return cfg, logging.Nop(), closeLog, nil
	}
	logger := logging.New(logging.Config{Level: cfg.LogLevel(), Output: out, Prefix: "overstrike"})
	return cfg, logger, closeLog, nil
}

func newEditor(cfg config.Config, logger *logging.Logger, path string) (*editor.Editor, error) {
	opts := []editor.Option{
		editor.WithLogger(logger),
		editor.WithTabWidth(cfg.Editor.TabWidth),
	}
	if le, ok := cfg.LineEnding(); ok {
		opts = append(opts, editor.WithLineEnding(le))
	}
	ed := editor.New(opts...)
	if path != "" {
		if err := ed.Open(path); err != nil {
			return nil, err
		}
	}
	return ed, nil
}

func runEdit(ctx context.Context, flags *globalFlags, path string) error {
	// The terminal owns stderr while the editor runs; log only to a file.
	cfg, logger, closeLog, err := setup(flags, nil)
	if err != nil {
		return err
	}
	defer closeLog()

	ed, err := newEditor(cfg, logger, path)
	if err != nil {
		return err
	}
	toggle, err := config.ParseKey(cfg.Keys.ToggleReplace)
	if err != nil {
		return err
	}

	var configs <-chan config.Config
	if flags.configPath != "" {
		w, err := config.NewWatcher(flags.configPath, config.WithWatchLogger(logger))
		if err != nil {
			logger.Warn("not watching %s: %v", flags.configPath, err)
		} else {
			defer w.Close()
			configs = w.Configs()
			go func() {
				for err := range w.Errors() {
					logger.Warn("settings not reloaded: %v", err)
				}
			}()
		}
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing terminal: %w", err)
	}
	defer screen.Fini()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := ui.New(screen, ed, ui.WithLogger(logger), ui.WithToggleKey(toggle))
	if err := app.Run(ctx, configs); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func runScript(ctx context.Context, flags *globalFlags, scriptPath, path string, showDiff, write bool, stdout, stderr io.Writer) error {
	cfg, logger, closeLog, err := setup(flags, stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	ed, err := newEditor(cfg, logger, path)
	if err != nil {
		return err
	}
	before := ed.Text()

	code, err := os.ReadFile(scriptPath)
	if err != nil {
		return err
	}
	runner := script.NewRunner(ed, script.WithLogger(logger), script.WithOutput(stdout))
	defer runner.Close()
	if err := runner.RunContext(ctx, scriptPath, string(code)); err != nil {
		return err
	}

	if write {
		if err := ed.Save(""); err != nil {
			return err
		}
	}
	switch {
	case showDiff:
		fmt.Fprint(stdout, overwrite.Diff(before, ed.Text()).Patch)
	case !write:
		fmt.Fprint(stdout, ed.Text())
	}
	return nil
}
