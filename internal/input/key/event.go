package key

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Event represents a single key press event.
type Event struct {
	// Key identifies the key pressed.
	Key Key

	// Rune is the character for KeyRune events.
	Rune rune

	// Modifiers contains the active modifier keys.
	Modifiers Modifier
}

// NewRuneEvent creates a key event for a character.
func NewRuneEvent(r rune, mods Modifier) Event {
	return Event{Key: KeyRune, Rune: r, Modifiers: mods}
}

// NewSpecialEvent creates a key event for a special key.
func NewSpecialEvent(k Key, mods Modifier) Event {
	return Event{Key: k, Modifiers: mods}
}

// IsRune returns true if this is a character key event.
func (e Event) IsRune() bool {
	return e.Key == KeyRune && e.Rune != 0
}

// IsModified returns true if Ctrl, Alt or Meta is pressed.
// Shift is part of the character for rune events and is not counted.
func (e Event) IsModified() bool {
	if e.IsRune() {
		return e.Modifiers&(ModCtrl|ModAlt|ModMeta) != 0
	}
	return e.Modifiers != ModNone
}

// IsChar returns true if this is an unmodified printable character.
func (e Event) IsChar() bool {
	return e.IsRune() && !e.IsModified() && unicode.IsPrint(e.Rune)
}

// IsCtrl reports whether the event is Ctrl plus the letter r.
func (e Event) IsCtrl(r rune) bool {
	return e.Key == KeyRune && e.Modifiers.Has(ModCtrl) &&
		unicode.ToLower(e.Rune) == unicode.ToLower(r)
}

// String returns a representation such as "a", "Ctrl+C" or "Alt+Left".
func (e Event) String() string {
	var name string
	switch {
	case e.Key == KeyRune && e.Rune == ' ':
		name = "Space"
	case e.Key == KeyRune:
		name = string(e.Rune)
	default:
		name = e.Key.String()
	}
	mods := e.Modifiers
	if e.IsRune() {
		mods &^= ModShift
	}
	if mods == ModNone {
		return name
	}
	return mods.String() + "+" + name
}

// ErrInvalidSpec is returned by Parse for unrecognized specifications.
var ErrInvalidSpec = errors.New("invalid key specification")

// Parse parses a specification such as "a", "Enter", "Ctrl+C" or "Alt+Left".
func Parse(spec string) (Event, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Event{}, ErrInvalidSpec
	}

	var mods Modifier
	parts := strings.Split(spec, "+")
	if len(parts) > 1 && parts[len(parts)-1] == "" {
		// "Ctrl++" names the plus key.
		parts = append(parts[:len(parts)-2], "+")
	}
	for _, p := range parts[:len(parts)-1] {
		m := ModifierFromName(strings.TrimSpace(p))
		if m == ModNone {
			return Event{}, fmt.Errorf("%w: unknown modifier %q", ErrInvalidSpec, p)
		}
		mods = mods.With(m)
	}

	name := strings.TrimSpace(parts[len(parts)-1])
	if strings.EqualFold(name, "space") {
		return NewRuneEvent(' ', mods), nil
	}
	if k := FromName(name); k != KeyNone {
		return NewSpecialEvent(k, mods), nil
	}
	if utf8.RuneCountInString(name) == 1 {
		r, _ := utf8.DecodeRuneInString(name)
		if mods.Has(ModCtrl) {
			r = unicode.ToLower(r)
		}
		return NewRuneEvent(r, mods), nil
	}
	return Event{}, fmt.Errorf("%w: %q", ErrInvalidSpec, spec)
}

// MustParse is like Parse but panics on error.
func MustParse(spec string) Event {
	e, err := Parse(spec)
	if err != nil {
		panic(err)
	}
	return e
}
