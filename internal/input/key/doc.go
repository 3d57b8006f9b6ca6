// Package key defines the keyboard events produced by the terminal reader
// and consumed by the line editor.
//
//   - Key: a special key or KeyRune for characters
//   - Modifier: Ctrl, Alt, Shift and Meta flags
//   - Event: a single key press
//
// Events can be written as specifications such as "a", "Enter", "Ctrl+C"
// or "Alt+Left" and parsed with Parse.
package key
