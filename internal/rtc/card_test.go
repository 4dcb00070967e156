package rtc

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestParseLaserMode(t *testing.T) {
	names := LaserModeNames()
	if len(names) != 7 {
		t.Fatalf("got %d laser modes, want 7", len(names))
	}
	for i, name := range names {
		mode, err := ParseLaserMode(name)
		if err != nil {
			t.Fatalf("ParseLaserMode(%q) error: %v", name, err)
		}
		if mode != LaserMode(i) {
			t.Errorf("ParseLaserMode(%q) = %d, want %d", name, mode, i)
		}
		if mode.String() != name {
			t.Errorf("LaserMode(%d).String() = %q, want %q", i, mode.String(), name)
		}
	}

	for _, bad := range []string{"yag5", "FIBER"} {
		if _, err := ParseLaserMode(bad); err == nil {
			t.Errorf("ParseLaserMode(%q) expected error", bad)
		}
	}
	if got := LaserMode(9).String(); got != "LaserMode(9)" {
		t.Errorf("LaserMode(9).String() = %q", got)
	}
}

func TestHardwareError(t *testing.T) {
	err := error(&HardwareError{Op: "card info", Bits: ErrorNoCard | 1<<20})
	if !errors.Is(err, ErrHardwareQuery) {
		t.Error("expected HardwareError to match ErrHardwareQuery")
	}
	if errors.Is(err, ErrConnectionFailure) {
		t.Error("HardwareError must not match ErrConnectionFailure")
	}
	msg := err.Error()
	if !strings.Contains(msg, "0x00100001") || !strings.Contains(msg, "no connection") {
		t.Errorf("unexpected message %q", msg)
	}

	var hw *HardwareError
	if !errors.As(err, &hw) {
		t.Fatal("errors.As failed")
	}
	if hw.Bits != 0x00100001 {
		t.Errorf("Bits = %s, want 0x00100001", hw.Bits)
	}

	other := &HardwareError{Op: "card info", Bits: 1 << 4}
	if strings.Contains(other.Error(), "no connection") {
		t.Errorf("undocumented bits reinterpreted: %q", other.Error())
	}
}

func TestErrorBits_Has(t *testing.T) {
	b := ErrorBits(0b1011)
	if !b.Has(ErrorNoCard) || !b.Has(0b1010) {
		t.Errorf("%s should have bits 0b0001 and 0b1010", b)
	}
	if b.Has(0b0100) {
		t.Errorf("%s should not have bit 0b0100", b)
	}
}

func TestDriverRegistry(t *testing.T) {
	if !slices.Contains(Drivers(), "sim") {
		t.Fatalf("Drivers() = %v, want sim registered", Drivers())
	}

	card, err := Open("sim")
	if err != nil {
		t.Fatalf("Open(sim) error: %v", err)
	}
	if _, ok := card.(*SimCard); !ok {
		t.Errorf("Open(sim) returned %T", card)
	}
	if _, err := Open("does-not-exist"); err == nil {
		t.Error("Open of an unknown driver should fail")
	}

	mustPanic := func(name string, fn func()) {
		t.Helper()
		defer func() {
			if recover() == nil {
				t.Errorf("%s: expected panic", name)
			}
		}()
		fn()
	}
	mustPanic("duplicate", func() { Register("sim", func() (Card, error) { return nil, nil }) })
	mustPanic("nil opener", func() { Register("nil-opener", nil) })
}
