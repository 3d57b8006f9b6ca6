package editor

import (
	"math/rand"
	"testing"
)

func TestLineBufferInsert(t *testing.T) {
	b := NewLineBuffer("")
	for _, r := range "helo" {
		b.Insert(r)
	}
	b.Left()
	b.Insert('l')

	if got := b.String(); got != "hello" {
		t.Errorf("String() = %q, want hello", got)
	}
	if b.Offset() != 1 || b.Index() != 4 {
		t.Errorf("Offset() = %d, Index() = %d; want 1, 4", b.Offset(), b.Index())
	}
}

func TestLineBufferLeftRightBounds(t *testing.T) {
	b := NewLineBuffer("ab")

	if b.Right() {
		t.Error("Right() at end should report no move")
	}
	if !b.Left() || !b.Left() {
		t.Fatal("Left() should move twice")
	}
	if b.Left() {
		t.Error("Left() at start should report no move")
	}
	if b.Offset() != 2 || b.Index() != 0 {
		t.Errorf("Offset() = %d, Index() = %d; want 2, 0", b.Offset(), b.Index())
	}
}

func TestLineBufferOffsetInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	b := NewLineBuffer("")

	for i := 0; i < 2000; i++ {
		switch rng.Intn(6) {
		case 0:
			b.Left()
		case 1:
			b.Right()
		case 2:
			b.Insert(rune('a' + rng.Intn(26)))
		case 3:
			b.Backspace()
		case 4:
			b.Delete()
		case 5:
			if rng.Intn(10) == 0 {
				b.Set("reset")
			}
		}
		if b.Offset() < 0 || b.Offset() > b.Len() {
			t.Fatalf("step %d: offset %d outside [0, %d]", i, b.Offset(), b.Len())
		}
		if b.Index() != b.Len()-b.Offset() {
			t.Fatalf("step %d: Index() = %d, want %d", i, b.Index(), b.Len()-b.Offset())
		}
	}
}

func TestLineBufferInsertBackspaceRoundTrip(t *testing.T) {
	const base = "print(x)"
	for o := 1; o < len(base); o++ {
		b := NewLineBuffer(base)
		for i := 0; i < o; i++ {
			b.Left()
		}
		b.Insert('Z')
		if !b.Backspace() {
			t.Fatalf("offset %d: Backspace() reported no change", o)
		}
		if b.String() != base || b.Offset() != o {
			t.Errorf("offset %d: got %q at offset %d", o, b.String(), b.Offset())
		}
	}
}

func TestLineBufferBackspace(t *testing.T) {
	b := NewLineBuffer("abc")
	b.Left()
	if !b.Backspace() {
		t.Fatal("Backspace() should delete")
	}
	if b.String() != "ac" || b.Offset() != 1 {
		t.Errorf("got %q offset %d, want ac offset 1", b.String(), b.Offset())
	}

	b.Left()
	if b.Backspace() {
		t.Error("Backspace() at start should not delete")
	}
}

func TestLineBufferDelete(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		lefts      int
		wantOK     bool
		want       string
		wantOffset int
	}{
		{"empty", "", 0, false, "", 0},
		{"at end", "abc", 0, false, "abc", 0},
		{"at start", "abc", 3, false, "abc", 3},
		{"middle", "abc", 2, true, "ac", 1},
		{"before last", "abc", 1, true, "ab", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewLineBuffer(tt.text)
			for i := 0; i < tt.lefts; i++ {
				b.Left()
			}
			if ok := b.Delete(); ok != tt.wantOK {
				t.Errorf("Delete() = %v, want %v", ok, tt.wantOK)
			}
			if b.String() != tt.want || b.Offset() != tt.wantOffset {
				t.Errorf("got %q offset %d, want %q offset %d", b.String(), b.Offset(), tt.want, tt.wantOffset)
			}
		})
	}
}

func TestLineBufferSet(t *testing.T) {
	b := NewLineBuffer("abc")
	b.Left()
	b.Set("héllo")
	if b.Len() != 5 || b.Offset() != 0 {
		t.Errorf("Len() = %d, Offset() = %d; want 5, 0", b.Len(), b.Offset())
	}
}
