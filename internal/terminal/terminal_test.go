package terminal

import (
	"bytes"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/term"

	"github.com/dshills/luash/internal/input/key"
)

func TestPipeTerminal(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	var out bytes.Buffer
	tm := New(r, &out)
	assert.False(t, tm.IsTerminal())

	require.NoError(t, tm.EnterRaw())
	assert.True(t, tm.IsRaw())
	assert.Empty(t, out.String(), "no escape sequences for a non-terminal")

	_, err = w.Write([]byte("x\x1b[D"))
	require.NoError(t, err)

	ev, err := tm.ReadEvent(time.Second)
	require.NoError(t, err)
	assert.Equal(t, key.MustParse("x"), ev)

	ev, err = tm.ReadEvent(time.Second)
	require.NoError(t, err)
	assert.Equal(t, key.MustParse("Left"), ev)

	_, err = tm.ReadEvent(10 * time.Millisecond)
	assert.True(t, errors.Is(err, ErrTimeout))

	require.NoError(t, tm.ExitRaw())
	assert.False(t, tm.IsRaw())
}

func TestPTYRawMode(t *testing.T) {
	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skipf("pty unavailable: %v", err)
	}
	defer ptmx.Close()
	defer tty.Close()

	var out bytes.Buffer
	tm := New(tty, &out)
	require.True(t, tm.IsTerminal())

	before, err := term.GetState(int(tty.Fd()))
	require.NoError(t, err)

	require.NoError(t, tm.EnterRaw())
	assert.True(t, tm.IsRaw())
	assert.Equal(t, "\x1b[>1u", out.String())

	_, err = ptmx.Write([]byte("\x03"))
	require.NoError(t, err)
	ev, err := tm.ReadEvent(time.Second)
	require.NoError(t, err)
	assert.True(t, ev.IsCtrl('c'), "raw mode delivers ^C as a key, got %v", ev)

	resume, err := tm.Suspend()
	require.NoError(t, err)
	assert.False(t, tm.IsRaw())
	require.NoError(t, resume())
	assert.True(t, tm.IsRaw())

	require.NoError(t, tm.ExitRaw())
	assert.False(t, tm.IsRaw())
	assert.Equal(t, "\x1b[>1u\x1b[<1u\x1b[>1u\x1b[<1u", out.String())

	after, err := term.GetState(int(tty.Fd()))
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestKeyboardEnhancementDisabled(t *testing.T) {
	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skipf("pty unavailable: %v", err)
	}
	defer ptmx.Close()
	defer tty.Close()

	var out bytes.Buffer
	tm := New(tty, &out, WithKeyboardEnhancement(false))
	require.NoError(t, tm.EnterRaw())
	require.NoError(t, tm.ExitRaw())
	assert.Empty(t, out.String())
}

func TestSuspendWhenCooked(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	tm := New(r, &bytes.Buffer{})
	resume, err := tm.Suspend()
	require.NoError(t, err)
	require.NoError(t, resume())
	assert.False(t, tm.IsRaw())
}

func TestWidth(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()
	assert.Equal(t, 0, New(r, &bytes.Buffer{}).Width(), "pipes have no width")

	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skipf("pty unavailable: %v", err)
	}
	defer ptmx.Close()
	defer tty.Close()

	require.NoError(t, pty.Setsize(ptmx, &pty.Winsize{Rows: 24, Cols: 72}))
	assert.Equal(t, 72, New(tty, &bytes.Buffer{}).Width())
}
