package raspberry

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	type testCase struct {
		name string
		c    Config
		ok   bool
	}
	var tests = []testCase{
		{"one line", Config{Lines: []int{17}, Terminator: "pullup"}, true},
		{"eight lines", Config{Lines: []int{0, 1, 2, 3, 4, 5, 6, 7}, Terminator: "none"}, true},
		{"no lines", Config{Terminator: "none"}, false},
		{"nine lines", Config{Lines: []int{0, 1, 2, 3, 4, 5, 6, 7, 8}, Terminator: "none"}, false},
		{"negative line", Config{Lines: []int{-1}, Terminator: "none"}, false},
		{"line out of range", Config{Lines: []int{54}, Terminator: "none"}, false},
		{"duplicate line", Config{Lines: []int{17, 27, 17}, Terminator: "pulldown"}, false},
		{"invalid terminator", Config{Lines: []int{17}, Terminator: "floating"}, false},
	}

	for _, test := range tests {
		err := test.c.validate()
		if test.ok && err != nil {
			t.Errorf("%s: unexpected error %v", test.name, err)
		}
		if !test.ok && !errors.Is(err, ErrInvalidParam) {
			t.Errorf("%s: err = %v, want ErrInvalidParam", test.name, err)
		}
	}
}

func TestMask(t *testing.T) {
	if m := (Config{Lines: []int{4}}).Mask(); m != 0x01 {
		t.Errorf("Mask() = %#x, want 0x01", m)
	}
	if m := (Config{Lines: []int{4, 5, 6}}).Mask(); m != 0x07 {
		t.Errorf("Mask() = %#x, want 0x07", m)
	}
	if m := (Config{Lines: []int{0, 1, 2, 3, 4, 5, 6, 7}}).Mask(); m != 0xff {
		t.Errorf("Mask() = %#x, want 0xff", m)
	}
}

func TestPack(t *testing.T) {
	if v := pack([]int{1, 0, 1, 1}); v != 0x0d {
		t.Errorf("pack() = %#x, want 0x0d", v)
	}
	if v := pack(nil); v != 0 {
		t.Errorf("pack(nil) = %#x, want 0", v)
	}
}

func TestOpenEmulator(t *testing.T) {
	b, err := Open(Config{Driver: Emulator, Lines: []int{17, 27}, Terminator: "none", EmulatorHigh: 2, EmulatorLow: 1})
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = b.Close() }()

	want := []byte{0x03, 0x03, 0x00, 0x03}
	for i, w := range want {
		if v := b.Read(); v != w {
			t.Errorf("read %d = %#x, want %#x", i, v, w)
		}
	}
}

func TestOpenInvalid(t *testing.T) {
	if _, err := Open(Config{Driver: "spi", Lines: []int{17}, Terminator: "none"}); !errors.Is(err, ErrInvalidParam) {
		t.Errorf("unknown driver: err = %v, want ErrInvalidParam", err)
	}
	if _, err := Open(Config{Driver: Emulator, Terminator: "none"}); !errors.Is(err, ErrInvalidParam) {
		t.Errorf("no lines: err = %v, want ErrInvalidParam", err)
	}
}
