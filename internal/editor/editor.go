// Package editor implements the interactive line editor: a key-driven
// state machine that edits a LineBuffer, browses history and returns a
// finished line.
package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/luash/internal/input/key"
	"github.com/dshills/luash/internal/render"
	"github.com/dshills/luash/internal/terminal"
)

// DefaultPollInterval bounds each wait for a key event.
const DefaultPollInterval = 50 * time.Millisecond

// Kind identifies how ReadLine finished.
type Kind int

const (
	// Submitted means the user pressed Enter.
	Submitted Kind = iota
	// Cancelled means the interrupt key discarded the line.
	Cancelled
	// Exit means input ended or the session is shutting down.
	Exit
)

func (k Kind) String() string {
	switch k {
	case Submitted:
		return "submitted"
	case Cancelled:
		return "cancelled"
	case Exit:
		return "exit"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Result is the outcome of ReadLine.
type Result struct {
	Kind Kind
	Text string
}

// Terminal is the input side of the terminal used by the editor.
type Terminal interface {
	EnterRaw() error
	ExitRaw() error
	ReadEvent(timeout time.Duration) (key.Event, error)
}

// History is the log and navigation pointer used by the editor.
type History interface {
	Append(line string)
	Back() (line string, left bool, ok bool)
	Forward() (line string, present bool, ok bool)
	ResetPointer()
}

// Editor reads lines from a terminal.
type Editor struct {
	term     Terminal
	history  History
	renderer *render.Renderer
	logger   *zap.Logger
	poll     time.Duration
}

// Option configures an Editor.
type Option func(*Editor)

// WithLogger sets the logger for undecodable input and similar events.
func WithLogger(l *zap.Logger) Option {
	return func(e *Editor) {
		e.logger = l
	}
}

// WithPollInterval overrides DefaultPollInterval.
func WithPollInterval(d time.Duration) Option {
	return func(e *Editor) {
		e.poll = d
	}
}

// New creates an Editor.
func New(term Terminal, history History, renderer *render.Renderer, opts ...Option) *Editor {
	e := &Editor{
		term:     term,
		history:  history,
		renderer: renderer,
		logger:   zap.NewNop(),
		poll:     DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// session is the state of one ReadLine call.
type session struct {
	buf   *LineBuffer
	stash string
}

// ReadLine enters raw mode, edits a line until it is submitted, cancelled
// or input ends, and restores the terminal before returning. Cancelling
// ctx ends the call with Exit.
func (e *Editor) ReadLine(ctx context.Context) (res Result, err error) {
	if err := e.term.EnterRaw(); err != nil {
		return Result{}, err
	}
	defer func() {
		if rerr := e.term.ExitRaw(); rerr != nil && err == nil {
			err = rerr
		}
	}()

	e.history.ResetPointer()
	s := &session{buf: NewLineBuffer("")}
	if err := e.redraw(s); err != nil {
		return Result{}, err
	}

	for {
		if ctx.Err() != nil {
			return Result{Kind: Exit}, nil
		}

		ev, err := e.term.ReadEvent(e.poll)
		var seqErr *terminal.SeqError
		switch {
		case err == nil:
		case errors.Is(err, terminal.ErrTimeout):
			continue
		case errors.As(err, &seqErr):
			e.logger.Debug("ignoring undecodable input", zap.String("seq", seqErr.Seq))
			continue
		case errors.Is(err, io.EOF):
			return e.finish(Result{Kind: Exit})
		default:
			return Result{}, fmt.Errorf("reading key: %w", err)
		}

		res, done, err := e.handle(s, ev)
		if err != nil {
			return Result{}, err
		}
		if done {
			return res, nil
		}
	}
}

// handle applies one key event. done reports that ReadLine should return res.
func (e *Editor) handle(s *session, ev key.Event) (res Result, done bool, err error) {
	buf := s.buf
	changed := false

	switch {
	case ev.Key == key.KeyEnter:
		text := buf.String()
		buf.End()
		if err := e.redraw(s); err != nil {
			return Result{}, false, err
		}
		e.history.ResetPointer()
		e.history.Append(text)
		res, err := e.finish(Result{Kind: Submitted, Text: text})
		return res, true, err

	case ev.IsCtrl('c'):
		res, err := e.finish(Result{Kind: Cancelled})
		return res, true, err

	case ev.IsCtrl('d'):
		if buf.Len() == 0 {
			res, err := e.finish(Result{Kind: Exit})
			return res, true, err
		}

	case ev.Key == key.KeyUp:
		if line, left, ok := e.history.Back(); ok {
			if left {
				s.stash = buf.String()
			}
			buf.Set(line)
			changed = true
		}

	case ev.Key == key.KeyDown:
		if line, present, ok := e.history.Forward(); ok {
			if present {
				line = s.stash
			}
			buf.Set(line)
			changed = true
		}

	case ev.Key == key.KeyLeft:
		changed = buf.Left()

	case ev.Key == key.KeyRight:
		changed = buf.Right()

	case ev.Key == key.KeyBackspace:
		if buf.Len() == 0 {
			e.history.ResetPointer()
			break
		}
		changed = buf.Backspace()

	case ev.Key == key.KeyDelete:
		if !buf.Delete() {
			e.history.ResetPointer()
			break
		}
		changed = true

	case ev.Key == key.KeyTab:
		// Reserved for completion.

	case ev.IsChar():
		buf.Insert(ev.Rune)
		changed = true
	}

	if changed {
		if err := e.redraw(s); err != nil {
			return Result{}, false, err
		}
	}
	return Result{}, false, nil
}

func (e *Editor) redraw(s *session) error {
	return e.renderer.Render(s.buf.Runes(), s.buf.Offset())
}

// finish moves past the edited line and returns res.
func (e *Editor) finish(res Result) (Result, error) {
	if err := e.renderer.Newline(); err != nil {
		return Result{}, err
	}
	return res, nil
}
