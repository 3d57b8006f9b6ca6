package key

import "testing"

func TestKeyString(t *testing.T) {
	tests := []struct {
		key  Key
		want string
	}{
		{KeyEnter, "Enter"},
		{KeyLeft, "Left"},
		{KeyF1, "F1"},
		{KeyF12, "F12"},
		{KeyRune, "Rune"},
		{Key(999), "Key(999)"},
	}
	for _, tt := range tests {
		if got := tt.key.String(); got != tt.want {
			t.Errorf("Key(%d).String() = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestFromName(t *testing.T) {
	tests := []struct {
		name string
		want Key
	}{
		{"enter", KeyEnter},
		{"ESC", KeyEscape},
		{"del", KeyDelete},
		{"f5", KeyF5},
		{"f13", KeyNone},
		{"bogus", KeyNone},
	}
	for _, tt := range tests {
		if got := FromName(tt.name); got != tt.want {
			t.Errorf("FromName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestFromXterm(t *testing.T) {
	tests := []struct {
		param int
		want  Modifier
	}{
		{0, ModNone},
		{1, ModNone},
		{2, ModShift},
		{3, ModAlt},
		{5, ModCtrl},
		{6, ModCtrl | ModShift},
		{9, ModMeta},
	}
	for _, tt := range tests {
		if got := FromXterm(tt.param); got != tt.want {
			t.Errorf("FromXterm(%d) = %v, want %v", tt.param, got, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		spec    string
		want    Event
		wantErr bool
	}{
		{spec: "a", want: NewRuneEvent('a', ModNone)},
		{spec: "Enter", want: NewSpecialEvent(KeyEnter, ModNone)},
		{spec: "Ctrl+C", want: NewRuneEvent('c', ModCtrl)},
		{spec: "Alt+Left", want: NewSpecialEvent(KeyLeft, ModAlt)},
		{spec: "Space", want: NewRuneEvent(' ', ModNone)},
		{spec: "Ctrl++", want: NewRuneEvent('+', ModCtrl)},
		{spec: "", wantErr: true},
		{spec: "Hyper+x", wantErr: true},
		{spec: "notakey", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := Parse(tt.spec)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.spec, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Parse(%q) = %#v, want %#v", tt.spec, got, tt.want)
			}
		})
	}
}

func TestEventPredicates(t *testing.T) {
	if !MustParse("a").IsChar() {
		t.Error("'a' should be a char")
	}
	if MustParse("Ctrl+a").IsChar() {
		t.Error("Ctrl+a should not be a char")
	}
	if !NewRuneEvent('A', ModShift).IsChar() {
		t.Error("Shift+A should be a char")
	}
	if !MustParse("Ctrl+C").IsCtrl('c') {
		t.Error("Ctrl+C should match IsCtrl('c')")
	}
	if MustParse("c").IsCtrl('c') {
		t.Error("plain c should not match IsCtrl")
	}
	if MustParse("Enter").IsChar() {
		t.Error("Enter should not be a char")
	}
}

func TestEventString(t *testing.T) {
	tests := []struct {
		ev   Event
		want string
	}{
		{NewRuneEvent('x', ModNone), "x"},
		{NewRuneEvent('X', ModShift), "X"},
		{NewRuneEvent(' ', ModNone), "Space"},
		{NewRuneEvent('c', ModCtrl), "Ctrl+c"},
		{NewSpecialEvent(KeyLeft, ModAlt|ModShift), "Alt+Shift+Left"},
	}
	for _, tt := range tests {
		if got := tt.ev.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
