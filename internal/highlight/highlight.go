// Package highlight colours Lua source for display in the line editor.
//
// Lines are tokenized with chroma's Lua lexer and each token is written in
// one of the eight basic terminal colours.
package highlight

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/charmbracelet/x/ansi"
	"github.com/gdamore/tcell/v2"
)

// palette maps the RGB value of each supported colour to its SGR
// foreground code.
var palette = map[int32]int{
	0x000000: 30,
	0xff0000: 31,
	0x00ff00: 32,
	0xffff00: 33,
	0x0000ff: 34,
	0xff00ff: 35,
	0x00ffff: 36,
	0xffffff: 37,
}

// colorAliases names the palette colours by their terminal names where
// those differ from the web names tcell knows.
var colorAliases = map[string]tcell.Color{
	"green":   tcell.ColorLime,
	"magenta": tcell.ColorFuchsia,
	"cyan":    tcell.ColorAqua,
}

// ParseColor resolves a colour name or "#rrggbb" value and checks that it
// belongs to the eight-colour palette.
func ParseColor(name string) (tcell.Color, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	c, ok := colorAliases[name]
	if !ok {
		c = tcell.GetColor(name)
	}
	if c == tcell.ColorDefault {
		return c, fmt.Errorf("unknown colour %q", name)
	}
	if _, ok := palette[c.Hex()]; !ok {
		return c, fmt.Errorf("colour %q (#%06x) is not one of the eight basic colours", name, c.Hex())
	}
	return c, nil
}

// SGR returns the escape sequence selecting c as the foreground colour.
// It panics if c is outside the palette; ParseColor and New reject such
// colours, so reaching the panic is a programming error.
func SGR(c tcell.Color) string {
	code, ok := palette[c.Hex()]
	if !ok {
		panic(fmt.Sprintf("highlight: colour #%06x outside palette", c.Hex()))
	}
	return fmt.Sprintf("\x1b[%dm", code)
}

// Theme maps token class names to colour names.
type Theme map[string]string

// tokenClasses lists the class names a Theme may use.
var tokenClasses = map[string]chroma.TokenType{
	"text":        chroma.Text,
	"keyword":     chroma.Keyword,
	"name":        chroma.Name,
	"builtin":     chroma.NameBuiltin,
	"function":    chroma.NameFunction,
	"string":      chroma.LiteralString,
	"number":      chroma.LiteralNumber,
	"comment":     chroma.Comment,
	"operator":    chroma.Operator,
	"punctuation": chroma.Punctuation,
	"error":       chroma.Error,
}

// DefaultTheme returns the built-in colour assignments.
func DefaultTheme() Theme {
	return Theme{
		"text":        "white",
		"keyword":     "magenta",
		"name":        "white",
		"builtin":     "cyan",
		"function":    "blue",
		"string":      "green",
		"number":      "yellow",
		"comment":     "blue",
		"operator":    "cyan",
		"punctuation": "white",
		"error":       "red",
	}
}

// Classes returns the recognised class names in sorted order.
func Classes() []string {
	out := make([]string, 0, len(tokenClasses))
	for name := range tokenClasses {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Highlighter renders Lua source with ANSI colours.
type Highlighter struct {
	lexer  chroma.Lexer
	colors map[chroma.TokenType]tcell.Color
	def    tcell.Color
}

// New creates a Highlighter. Entries in theme override DefaultTheme.
func New(theme Theme) (*Highlighter, error) {
	lexer := lexers.Get("lua")
	if lexer == nil {
		return nil, fmt.Errorf("lua lexer not available")
	}

	merged := DefaultTheme()
	for k, v := range theme {
		merged[strings.ToLower(k)] = v
	}

	h := &Highlighter{
		lexer:  chroma.Coalesce(lexer),
		colors: make(map[chroma.TokenType]tcell.Color, len(merged)),
	}
	for class, name := range merged {
		tt, ok := tokenClasses[class]
		if !ok {
			return nil, fmt.Errorf("unknown token class %q", class)
		}
		c, err := ParseColor(name)
		if err != nil {
			return nil, fmt.Errorf("theme %s: %w", class, err)
		}
		h.colors[tt] = c
	}
	h.def = h.colors[chroma.Text]
	return h, nil
}

// colorFor looks up the colour of t by exact type, then sub-category,
// then category.
func (h *Highlighter) colorFor(t chroma.TokenType) tcell.Color {
	for _, candidate := range []chroma.TokenType{t, t.SubCategory(), t.Category()} {
		if c, ok := h.colors[candidate]; ok {
			return c
		}
	}
	return h.def
}

// Highlight returns text with every token wrapped in a colour sequence.
// If tokenizing fails the text is returned in the default colour.
func (h *Highlighter) Highlight(text string) string {
	if text == "" {
		return ""
	}

	it, err := h.lexer.Tokenise(nil, text)
	if err != nil {
		return SGR(h.def) + text + ansi.ResetStyle
	}

	var sb strings.Builder
	remaining := len(text)
	for tok := it(); tok != chroma.EOF && remaining > 0; tok = it() {
		value := tok.Value
		// The lexer may append a newline the input did not have.
		if len(value) > remaining {
			value = value[:remaining]
		}
		remaining -= len(value)
		if value == "" {
			continue
		}
		sb.WriteString(SGR(h.colorFor(tok.Type)))
		sb.WriteString(value)
		sb.WriteString(ansi.ResetStyle)
	}
	return sb.String()
}
