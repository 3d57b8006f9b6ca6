package editor

// LineBuffer is the line being composed together with its cursor.
//
// The cursor is stored as an offset counted from the end of the buffer:
// 0 is after the last rune and Len() is before the first. Moving left
// increases the offset. The invariant 0 <= offset <= Len() holds after
// every method call; Index converts the offset to an insertion index.
type LineBuffer struct {
	runes  []rune
	offset int
}

// NewLineBuffer returns a buffer holding s with the cursor at the end.
func NewLineBuffer(s string) *LineBuffer {
	return &LineBuffer{runes: []rune(s)}
}

// String returns the buffer contents.
func (b *LineBuffer) String() string {
	return string(b.runes)
}

// Runes returns the buffer contents. The slice must not be modified.
func (b *LineBuffer) Runes() []rune {
	return b.runes
}

// Len returns the number of runes.
func (b *LineBuffer) Len() int {
	return len(b.runes)
}

// Offset returns the cursor distance from the end.
func (b *LineBuffer) Offset() int {
	return b.offset
}

// Index returns the absolute insertion index, Len() - Offset().
func (b *LineBuffer) Index() int {
	return len(b.runes) - b.offset
}

// Set replaces the contents and moves the cursor to the end.
func (b *LineBuffer) Set(s string) {
	b.runes = []rune(s)
	b.offset = 0
}

// End moves the cursor after the last rune.
func (b *LineBuffer) End() {
	b.offset = 0
}

// Insert inserts r at the cursor. The offset is unchanged, so the cursor
// ends up after the new rune.
func (b *LineBuffer) Insert(r rune) {
	i := b.Index()
	b.runes = append(b.runes, 0)
	copy(b.runes[i+1:], b.runes[i:])
	b.runes[i] = r
}

// Backspace removes the rune before the cursor. It reports false when the
// cursor is at the start.
func (b *LineBuffer) Backspace() bool {
	i := b.Index()
	if i == 0 {
		return false
	}
	b.runes = append(b.runes[:i-1], b.runes[i:]...)
	return true
}

// Delete removes the rune after the cursor and decrements the offset so
// the cursor keeps its index. It reports false at either end of the
// buffer.
func (b *LineBuffer) Delete() bool {
	if b.offset == 0 || b.offset == len(b.runes) {
		return false
	}
	i := b.Index()
	b.runes = append(b.runes[:i], b.runes[i+1:]...)
	b.offset--
	return true
}

// Left moves the cursor one rune toward the start.
func (b *LineBuffer) Left() bool {
	if b.offset >= len(b.runes) {
		return false
	}
	b.offset++
	return true
}

// Right moves the cursor one rune toward the end.
func (b *LineBuffer) Right() bool {
	if b.offset == 0 {
		return false
	}
	b.offset--
	return true
}
