// Package terminal owns the interactive terminal: raw mode, keyboard
// enhancement flags and decoding of input into key events.
package terminal

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"

	"github.com/dshills/luash/internal/input/key"
)

// Terminal wraps the input and output streams of an interactive session.
//
// Raw mode and the kitty "disambiguate escape codes" flag are entered and
// left together. When the input is not a terminal, raw mode is a no-op so
// the editor can be driven from pipes.
type Terminal struct {
	in      *os.File
	out     io.Writer
	fd      int
	tty     bool
	enhance bool
	reader  *Reader

	mu    sync.Mutex
	state *term.State
	raw   bool
}

// Option configures a Terminal.
type Option func(*Terminal)

// WithKeyboardEnhancement controls whether the kitty keyboard flag is
// pushed while in raw mode.
func WithKeyboardEnhancement(enabled bool) Option {
	return func(t *Terminal) {
		t.enhance = enabled
	}
}

// New creates a Terminal reading from in and writing to out.
func New(in *os.File, out io.Writer, opts ...Option) *Terminal {
	fd := int(in.Fd())
	t := &Terminal{
		in:      in,
		out:     out,
		fd:      fd,
		tty:     isatty.IsTerminal(in.Fd()) || isatty.IsCygwinTerminal(in.Fd()),
		enhance: true,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.reader = newReader(&fdSource{fd: fd})
	return t
}

// IsTerminal reports whether the input is an interactive terminal.
func (t *Terminal) IsTerminal() bool {
	return t.tty
}

// IsRaw reports whether raw mode is active.
func (t *Terminal) IsRaw() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.raw
}

// Width returns the terminal width in columns, or 0 when the input is not
// a terminal or its size is unknown.
func (t *Terminal) Width() int {
	if !t.tty {
		return 0
	}
	cols, _, err := term.GetSize(t.fd)
	if err != nil {
		return 0
	}
	return cols
}

// EnterRaw switches the terminal to raw mode and pushes the keyboard
// enhancement flag. Calling it while already raw is a no-op.
func (t *Terminal) EnterRaw() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.raw {
		return nil
	}
	if t.tty {
		state, err := term.MakeRaw(t.fd)
		if err != nil {
			return fmt.Errorf("entering raw mode: %w", err)
		}
		t.state = state
		if t.enhance {
			io.WriteString(t.out, ansi.PushKittyKeyboard(ansi.KittyDisambiguateEscapeCodes))
		}
	}
	t.raw = true
	return nil
}

// ExitRaw pops the keyboard enhancement flag and restores the mode saved by
// EnterRaw. Calling it while not raw is a no-op.
func (t *Terminal) ExitRaw() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.raw {
		return nil
	}
	t.raw = false
	if t.state == nil {
		return nil
	}
	if t.enhance {
		io.WriteString(t.out, ansi.PopKittyKeyboard(1))
	}
	state := t.state
	t.state = nil
	if err := term.Restore(t.fd, state); err != nil {
		return fmt.Errorf("restoring terminal mode: %w", err)
	}
	return nil
}

// Suspend leaves raw mode if it is active and returns a function that
// re-enters it. It is used around child processes, which expect a cooked
// terminal.
func (t *Terminal) Suspend() (resume func() error, err error) {
	if !t.IsRaw() {
		return func() error { return nil }, nil
	}
	if err := t.ExitRaw(); err != nil {
		return nil, err
	}
	return t.EnterRaw, nil
}

// ReadEvent waits up to timeout for a key event.
// It returns ErrTimeout if no input arrived.
func (t *Terminal) ReadEvent(timeout time.Duration) (key.Event, error) {
	return t.reader.ReadEvent(timeout)
}

// Write writes p to the output stream.
func (t *Terminal) Write(p []byte) (int, error) {
	return t.out.Write(p)
}
