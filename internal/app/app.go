package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/dshills/luash/internal/config"
	"github.com/dshills/luash/internal/editor"
	"github.com/dshills/luash/internal/executable"
	"github.com/dshills/luash/internal/expand"
	"github.com/dshills/luash/internal/history"
	"github.com/dshills/luash/internal/script"
	"github.com/dshills/luash/internal/terminal"
)

// Application is one interactive shell session.
//
// New builds every component; Run sources the startup file and loops
// reading, evaluating and reporting lines until exit is requested, input
// ends or the context is cancelled. Teardown runs exactly once.
type Application struct {
	opts   Options
	config *config.Config
	exp    *expand.Expander

	stdin  *os.File
	stdout io.Writer
	stderr io.Writer

	logger   *zap.Logger
	closeLog func() error

	term    *terminal.Terminal
	history *history.Store
	index   *executable.Index
	editor  *editor.Editor
	script  *script.State

	running      atomic.Bool
	exiting      atomic.Bool
	shut         atomic.Bool
	shutdownOnce sync.Once
	shutdownErr  error
}

// Options configures the application.
type Options struct {
	// ConfigPath is the configuration file. Empty selects the default
	// location.
	ConfigPath string

	// Config, when set, is used instead of loading ConfigPath.
	Config *config.Config

	// LogLevel and LogFile override the configured values when non-empty.
	LogLevel string
	LogFile  string

	// PathList is the executable search path. Empty reads PATH.
	PathList string

	// Stdin, Stdout and Stderr default to the process streams.
	Stdin  *os.File
	Stdout io.Writer
	Stderr io.Writer

	// Expander resolves ~ and $VAR in paths. Nil uses the process
	// environment.
	Expander *expand.Expander
}

// New creates a session with the given options.
func New(opts Options) (*Application, error) {
	app := &Application{
		opts:     opts,
		exp:      opts.Expander,
		stdin:    opts.Stdin,
		stdout:   opts.Stdout,
		stderr:   opts.Stderr,
		logger:   zap.NewNop(),
		closeLog: func() error { return nil },
	}
	if app.exp == nil {
		app.exp = expand.New()
	}
	if app.stdin == nil {
		app.stdin = os.Stdin
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}

	if err := app.bootstrap(); err != nil {
		_ = app.Shutdown()
		return nil, err
	}
	return app, nil
}

// Run sources the startup file and runs the session loop. It returns
// after teardown. A panic inside the loop is recovered, teardown still
// runs, and the panic is returned as a *RecoveredPanicError.
func (app *Application) Run(ctx context.Context) (err error) {
	if app.shut.Load() {
		return ErrShutDown
	}
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer func() {
		if r := recover(); r != nil {
			app.logger.Error("panic in session loop", zap.Any("panic", r))
			err = NewRecoveredPanicError(r, string(debug.Stack()))
		}
		app.running.Store(false)
		if serr := app.Shutdown(); serr != nil && err == nil {
			err = serr
		}
	}()

	app.sourceStartup()

	for !app.exiting.Load() {
		code, err := app.Step(ctx)
		if err != nil {
			return err
		}
		if code == LoopExit {
			return nil
		}
	}
	return nil
}

// Step reads one line and evaluates it.
func (app *Application) Step(ctx context.Context) (LoopCode, error) {
	res, err := app.editor.ReadLine(ctx)
	if err != nil {
		return LoopExit, fmt.Errorf("reading line: %w", err)
	}

	switch res.Kind {
	case editor.Exit:
		app.logger.Debug("input ended")
		return LoopExit, nil
	case editor.Cancelled:
		return LoopCancelled, nil
	}

	code := app.Evaluate(res.Text)
	if app.exiting.Load() {
		return LoopExit, nil
	}
	return code, nil
}

// Evaluate runs one line of input and reports failures on stderr.
// Blank lines are not evaluated.
func (app *Application) Evaluate(line string) LoopCode {
	if strings.TrimSpace(line) == "" {
		return LoopOk
	}

	err := app.script.Eval(line)
	if err == nil {
		return LoopOk
	}

	code := LoopRuntimeFailed
	var cerr *script.CompileError
	if errors.As(err, &cerr) {
		code = LoopCompilationFailed
	}
	app.logger.Debug("evaluation failed", zap.Stringer("code", code), zap.Error(err))
	fmt.Fprintf(app.stderr, "%s: %v\n", code, err)
	return code
}

// sourceStartup runs the startup file. Failures are reported, not fatal.
func (app *Application) sourceStartup() {
	path := app.config.StartupFile
	if err := app.script.Source(path); err != nil {
		app.logger.Warn("startup file failed", zap.String("path", path), zap.Error(err))
		fmt.Fprintf(app.stderr, "%s: %v\n", path, err)
	}
}

// stop ends the session loop after the current line.
func (app *Application) stop() {
	app.exiting.Store(true)
}

// Shutdown tears the session down: the terminal mode is restored, the
// Lua runtime closed, and history written to disk. Only the first call
// does any work; later calls return its result.
func (app *Application) Shutdown() error {
	app.shutdownOnce.Do(func() {
		app.shut.Store(true)
		app.running.Store(false)

		var errs ErrorList
		if app.term != nil {
			errs.Add(app.term.ExitRaw())
		}
		if app.script != nil {
			errs.Add(app.script.Close())
		}
		if app.history != nil {
			if err := app.history.Persist(); err != nil {
				errs.Add(fmt.Errorf("saving history: %w", err))
			}
		}
		if errs.HasErrors() {
			app.logger.Error("teardown", zap.Error(&errs))
		}
		app.logger.Info("session ended")
		errs.Add(app.closeLog())
		app.shutdownErr = errs.AsError()
	})
	return app.shutdownErr
}

// IsRunning returns true if the session loop is running.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// Config returns the resolved configuration.
func (app *Application) Config() *config.Config {
	return app.config
}

// History returns the history store.
func (app *Application) History() *history.Store {
	return app.history
}

// Script returns the Lua runtime.
func (app *Application) Script() *script.State {
	return app.script
}
