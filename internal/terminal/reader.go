package terminal

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/dshills/luash/internal/input/key"
)

// keySeqTimeout bounds the wait for each byte after the first one of an
// escape sequence. Terminals send whole sequences at once.
var keySeqTimeout = 10 * time.Millisecond

// SeqError reports an escape sequence that could not be decoded.
type SeqError struct {
	Msg string
	Seq string
}

func (e *SeqError) Error() string {
	return fmt.Sprintf("%s: %q", e.Msg, e.Seq)
}

// Reader decodes terminal input bytes into key events.
type Reader struct {
	src byteSource
}

func newReader(src byteSource) *Reader {
	return &Reader{src: src}
}

// ReadEvent waits up to timeout for the next key event. It returns
// ErrTimeout when nothing arrives and a *SeqError for undecodable input.
func (r *Reader) ReadEvent(timeout time.Duration) (key.Event, error) {
	b, err := r.src.readByte(timeout)
	if err != nil {
		return key.Event{}, err
	}

	d := decoder{src: r.src, seq: []byte{b}}
	return d.decode(b)
}

// decoder holds the bytes of the sequence being decoded.
type decoder struct {
	src byteSource
	seq []byte
}

const endOfSeq = -1

// next reads the next byte of the current sequence, or endOfSeq.
func (d *decoder) next() int {
	b, err := d.src.readByte(keySeqTimeout)
	if err != nil {
		return endOfSeq
	}
	d.seq = append(d.seq, b)
	return int(b)
}

func (d *decoder) bad(msg string) error {
	return &SeqError{Msg: msg, Seq: string(d.seq)}
}

func (d *decoder) decode(b byte) (key.Event, error) {
	if b != 0x1b {
		return d.plain(b, key.ModNone)
	}

	r2 := d.next()
	twoESC := false
	if r2 == 0x1b {
		twoESC = true
		r2 = d.next()
	}

	var ev key.Event
	var err error
	switch r2 {
	case endOfSeq:
		return key.NewSpecialEvent(key.KeyEscape, key.ModNone), nil
	case '[':
		ev, err = d.csi()
	case 'O':
		ev, err = d.g3()
	default:
		return d.plain(byte(r2), key.ModAlt)
	}
	if err == nil && twoESC {
		ev.Modifiers |= key.ModAlt
	}
	return ev, err
}

// plain decodes a single byte, or the UTF-8 sequence it starts.
func (d *decoder) plain(b byte, mods key.Modifier) (key.Event, error) {
	if b < utf8.RuneSelf {
		ev := ctrlModify(b)
		ev.Modifiers |= mods
		return ev, nil
	}

	n := utf8Len(b)
	buf := []byte{b}
	for len(buf) < n {
		c := d.next()
		if c == endOfSeq {
			return key.Event{}, d.bad("incomplete UTF-8 sequence")
		}
		buf = append(buf, byte(c))
	}
	r, _ := utf8.DecodeRune(buf)
	if r == utf8.RuneError {
		return key.Event{}, d.bad("invalid UTF-8 sequence")
	}
	return key.NewRuneEvent(r, mods), nil
}

func utf8Len(b byte) int {
	switch {
	case b&0xe0 == 0xc0:
		return 2
	case b&0xf0 == 0xe0:
		return 3
	case b&0xf8 == 0xf0:
		return 4
	default:
		return 1
	}
}

// ctrlModify maps an ASCII byte to its key event. Control bytes become
// Ctrl-modified letters, except the ones with dedicated keys.
func ctrlModify(b byte) key.Event {
	switch b {
	case '\r', '\n':
		return key.NewSpecialEvent(key.KeyEnter, key.ModNone)
	case '\t':
		return key.NewSpecialEvent(key.KeyTab, key.ModNone)
	case 0x7f, 0x08:
		return key.NewSpecialEvent(key.KeyBackspace, key.ModNone)
	case 0x00:
		return key.NewRuneEvent(' ', key.ModCtrl)
	}
	switch {
	case b >= 0x01 && b <= 0x1a:
		return key.NewRuneEvent(rune('a'+b-1), key.ModCtrl)
	case b >= 0x1c && b <= 0x1f:
		return key.NewRuneEvent(rune(b+0x40), key.ModCtrl)
	}
	return key.NewRuneEvent(rune(b), key.ModNone)
}

// g3Seq maps \eO sequences.
var g3Seq = map[int]key.Key{
	'A': key.KeyUp, 'B': key.KeyDown, 'C': key.KeyRight, 'D': key.KeyLeft,
	'H': key.KeyHome, 'F': key.KeyEnd,
	'P': key.KeyF1, 'Q': key.KeyF2, 'R': key.KeyF3, 'S': key.KeyF4,
}

func (d *decoder) g3() (key.Event, error) {
	r := d.next()
	if r == endOfSeq {
		return key.NewRuneEvent('O', key.ModAlt), nil
	}
	k, ok := g3Seq[r]
	if !ok {
		return key.Event{}, d.bad("bad G3")
	}
	return key.NewSpecialEvent(k, key.ModNone), nil
}

// csiSeqByLast maps CSI sequences identified by their final byte, such as
// \e[A for Up or \e[1;5A for Ctrl+Up.
var csiSeqByLast = map[int]key.Event{
	'A': key.NewSpecialEvent(key.KeyUp, key.ModNone),
	'B': key.NewSpecialEvent(key.KeyDown, key.ModNone),
	'C': key.NewSpecialEvent(key.KeyRight, key.ModNone),
	'D': key.NewSpecialEvent(key.KeyLeft, key.ModNone),
	'H': key.NewSpecialEvent(key.KeyHome, key.ModNone),
	'F': key.NewSpecialEvent(key.KeyEnd, key.ModNone),
	'Z': key.NewSpecialEvent(key.KeyTab, key.ModShift),
	// kitty reports F1-F4 this way
	'P': key.NewSpecialEvent(key.KeyF1, key.ModNone),
	'Q': key.NewSpecialEvent(key.KeyF2, key.ModNone),
	'S': key.NewSpecialEvent(key.KeyF4, key.ModNone),
}

// csiSeqTilde maps the first argument of \e[n~ sequences.
var csiSeqTilde = map[int]key.Key{
	1: key.KeyHome, 2: key.KeyInsert, 3: key.KeyDelete, 4: key.KeyEnd,
	5: key.KeyPageUp, 6: key.KeyPageDown, 7: key.KeyHome, 8: key.KeyEnd,
	11: key.KeyF1, 12: key.KeyF2, 13: key.KeyF3, 14: key.KeyF4,
	15: key.KeyF5, 17: key.KeyF6, 18: key.KeyF7, 19: key.KeyF8,
	20: key.KeyF9, 21: key.KeyF10, 23: key.KeyF11, 24: key.KeyF12,
}

// kittyKeys maps the functional key codes of the kitty keyboard protocol
// (\e[code;mods u) that have dedicated keys.
var kittyKeys = map[int]key.Key{
	9: key.KeyTab, 13: key.KeyEnter, 27: key.KeyEscape, 127: key.KeyBackspace,
	8: key.KeyBackspace,
}

func (d *decoder) csi() (key.Event, error) {
	var nums []int
	sub := false
	r := d.next()
	if r == endOfSeq {
		return key.NewRuneEvent('[', key.ModAlt), nil
	}
	for {
		switch {
		case r == ';':
			nums = append(nums, 0)
			sub = false
		case r == ':':
			// Alternate keys and event types are not used.
			sub = true
		case '0' <= r && r <= '9':
			if sub {
				break
			}
			if len(nums) == 0 {
				nums = append(nums, 0)
			}
			nums[len(nums)-1] = nums[len(nums)-1]*10 + r - '0'
		case r == endOfSeq:
			return key.Event{}, d.bad("incomplete CSI")
		default:
			return d.parseCSI(nums, r)
		}
		r = d.next()
	}
}

func (d *decoder) parseCSI(nums []int, last int) (key.Event, error) {
	if ev, ok := csiSeqByLast[last]; ok {
		switch {
		case len(nums) == 0:
			return ev, nil
		case len(nums) == 2 && nums[0] == 1:
			ev.Modifiers |= key.FromXterm(nums[1])
			return ev, nil
		}
		return key.Event{}, d.bad("bad CSI")
	}

	switch last {
	case '~':
		if len(nums) == 1 || len(nums) == 2 {
			if k, ok := csiSeqTilde[nums[0]]; ok {
				ev := key.NewSpecialEvent(k, key.ModNone)
				if len(nums) == 2 {
					ev.Modifiers = key.FromXterm(nums[1])
				}
				return ev, nil
			}
		}
	case 'u':
		if len(nums) == 1 || len(nums) == 2 {
			var mods key.Modifier
			if len(nums) == 2 {
				mods = key.FromXterm(nums[1])
			}
			if k, ok := kittyKeys[nums[0]]; ok {
				return key.NewSpecialEvent(k, mods), nil
			}
			if nums[0] > 0 && nums[0] <= utf8.MaxRune {
				return key.NewRuneEvent(rune(nums[0]), mods), nil
			}
		}
	}
	return key.Event{}, d.bad("bad CSI")
}
