package app

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/dshills/luash/internal/config"
	"github.com/dshills/luash/internal/editor"
	"github.com/dshills/luash/internal/executable"
	"github.com/dshills/luash/internal/highlight"
	"github.com/dshills/luash/internal/history"
	"github.com/dshills/luash/internal/render"
	"github.com/dshills/luash/internal/script"
	"github.com/dshills/luash/internal/terminal"
)

//go:embed startup.lua
var defaultStartup []byte

// DefaultStartupScript returns the script written to a missing startup file.
func DefaultStartupScript() string {
	return string(defaultStartup)
}

// bootstrap initializes all components in dependency order.
func (app *Application) bootstrap() error {
	steps := []struct {
		name string
		fn   func() error
	}{
		{"config", app.initConfig},
		{"logger", app.initLogger},
		{"history", app.initHistory},
		{"executables", app.initIndex},
		{"startup file", app.initStartupFile},
		{"terminal", app.initTerminal},
		{"editor", app.initEditor},
		{"script", app.initScript},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			return &InitError{Component: step.name, Err: err}
		}
		app.logger.Debug("initialized", zap.String("component", step.name))
	}
	return nil
}

func (app *Application) initConfig() error {
	cfg := app.opts.Config
	if cfg == nil {
		loaded, err := config.NewLoader().Load(app.opts.ConfigPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if app.opts.LogLevel != "" {
		cfg.LogLevel = app.opts.LogLevel
	}
	if app.opts.LogFile != "" {
		cfg.LogFile = app.opts.LogFile
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	app.config = cfg.Resolve(app.exp)
	return nil
}

func (app *Application) initLogger() error {
	logger, closeFn, err := NewLogger(LoggerConfig{
		Level: ParseLogLevel(app.config.LogLevel),
		File:  app.config.LogFile,
	})
	if err != nil {
		return err
	}
	app.logger = logger
	app.closeLog = closeFn
	return nil
}

func (app *Application) initHistory() error {
	h, err := history.Load(app.config.HistoryFile)
	if err != nil {
		return err
	}
	app.history = h
	app.logger.Info("history loaded",
		zap.String("path", h.Path()),
		zap.Int("entries", h.Len()))
	return nil
}

func (app *Application) initIndex() error {
	if app.opts.PathList != "" {
		app.index = executable.Build(app.opts.PathList)
	} else {
		app.index = executable.FromEnv()
	}
	app.logger.Info("executables indexed", zap.Int("count", app.index.Len()))
	return nil
}

func (app *Application) initStartupFile() error {
	written, err := EnsureStartupFile(app.config.StartupFile)
	if err != nil {
		return err
	}
	if written {
		app.logger.Info("wrote default startup file", zap.String("path", app.config.StartupFile))
	}
	return nil
}

func (app *Application) initTerminal() error {
	app.term = terminal.New(app.stdin, app.stdout,
		terminal.WithKeyboardEnhancement(app.config.KeyboardEnhancement))
	return nil
}

func (app *Application) initEditor() error {
	hl, err := highlight.New(app.config.Theme)
	if err != nil {
		return err
	}
	renderer := render.New(app.term, app.config.Prompt, hl, render.WithWidth(app.term.Width))
	app.editor = editor.New(app.term, app.history, renderer,
		editor.WithLogger(app.logger.Named("editor")))
	return nil
}

func (app *Application) initScript() error {
	st, err := script.New(script.Host{
		History:  app.history,
		Index:    app.index,
		Terminal: app.term,
		Stdin:    app.stdin,
		Stdout:   app.stdout,
		Stderr:   app.stderr,
		Exit:     app.stop,
		Expander: app.exp,
		Logger:   app.logger.Named("script"),
	})
	if err != nil {
		return err
	}
	app.script = st
	return nil
}

// EnsureStartupFile writes the default startup script to path unless a
// file already exists there. It reports whether it wrote one.
func EnsureStartupFile(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("checking startup file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("creating startup file directory: %w", err)
	}
	if err := os.WriteFile(path, defaultStartup, 0o644); err != nil {
		return false, fmt.Errorf("writing startup file: %w", err)
	}
	return true, nil
}
