// Package render redraws the prompt line.
package render

import (
	"io"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/rivo/uniseg"
)

// Highlighter colours a line of source text.
type Highlighter interface {
	Highlight(text string) string
}

// plain leaves text unchanged.
type plain struct{}

func (plain) Highlight(text string) string { return text }

// Renderer draws the prompt and the edited line. Each Render call redraws
// the whole line from its first row, so the output depends only on the
// state it is given and on the row the previous frame left the cursor on.
type Renderer struct {
	out    io.Writer
	prompt string
	hl     Highlighter
	width  func() int

	// row is the cursor's row and last the frame's final row, both
	// counted from the prompt's row.
	row  int
	last int
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithWidth sets the source of the terminal width in columns. Without
// it, or when it returns 0, the line is assumed not to wrap.
func WithWidth(fn func() int) Option {
	return func(r *Renderer) {
		r.width = fn
	}
}

// New creates a Renderer. A nil highlighter writes text uncoloured.
func New(out io.Writer, prompt string, hl Highlighter, opts ...Option) *Renderer {
	if hl == nil {
		hl = plain{}
	}
	r := &Renderer{out: out, prompt: prompt, hl: hl}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Renderer) columns() int {
	if r.width == nil {
		return 0
	}
	return r.width()
}

// Frame returns the bytes that draw text with the cursor offset runes
// from its end, and records the cursor row for the next frame.
func (r *Renderer) Frame(text []rune, offset int) string {
	var sb strings.Builder
	if r.row > 0 {
		sb.WriteString(ansi.CursorUp(r.row))
	}
	sb.WriteString("\r")
	sb.WriteString(ansi.EraseScreenBelow)
	sb.WriteString(r.prompt)
	sb.WriteString(r.hl.Highlight(string(text)))

	if offset > len(text) {
		offset = len(text)
	}
	tail := uniseg.StringWidth(string(text[len(text)-offset:]))

	cols := r.columns()
	if cols <= 0 {
		if tail > 0 {
			sb.WriteString(ansi.CursorBackward(tail))
		}
		r.row, r.last = 0, 0
		return sb.String()
	}

	end := ansi.StringWidth(r.prompt) + uniseg.StringWidth(string(text))
	if end > 0 && end%cols == 0 {
		// The cursor is parked in the last column; move it onto the next row.
		sb.WriteString("\r\n")
	}
	endRow := end / cols
	r.last = endRow
	if tail == 0 {
		r.row = endRow
		return sb.String()
	}

	pos := end - tail
	row, col := pos/cols, pos%cols
	if up := endRow - row; up > 0 {
		sb.WriteString(ansi.CursorUp(up))
	}
	sb.WriteString("\r")
	if col > 0 {
		sb.WriteString(ansi.CursorForward(col))
	}
	r.row = row
	return sb.String()
}

// Render draws text with the cursor offset runes from its end.
func (r *Renderer) Render(text []rune, offset int) error {
	_, err := io.WriteString(r.out, r.Frame(text, offset))
	return err
}

// Newline moves below the last row of the line. The next frame starts
// there.
func (r *Renderer) Newline() error {
	var sb strings.Builder
	if down := r.last - r.row; down > 0 {
		sb.WriteString(ansi.CursorDown(down))
	}
	sb.WriteString("\r\n")
	r.row, r.last = 0, 0
	_, err := io.WriteString(r.out, sb.String())
	return err
}
