package core

import "testing"

func TestTimerExtensionTick(t *testing.T) {
	var e TimerExtension
	ticks := 0
	for i := 1; i <= 64; i++ {
		if e.Overflow() {
			ticks++
			if i%16 != 0 {
				t.Errorf("tick on overflow %d", i)
			}
		}
	}
	if ticks != 4 {
		t.Errorf("Expected 4 scheduler ticks in 64 overflows, got %d", ticks)
	}
	if e.High() != 64 {
		t.Errorf("Expected high byte 64, got %d", e.High())
	}
}

func TestTimerExtensionHighByteWraps(t *testing.T) {
	var e TimerExtension
	e.SetHigh(0xFF)
	e.Overflow()
	if got := e.Extend(0x1234, false); got != 0x001234 {
		t.Errorf("Expected 0x001234 after wrap, got %#x", got)
	}
}

func TestTimerExtensionReadCorrection(t *testing.T) {
	tests := []struct {
		name    string
		low     uint16
		flagged bool
		want    uint32
	}{
		{"no overflow", 0x0010, false, 0x050010},
		{"overflow pending, counter wrapped", 0x0010, true, 0x060010},
		{"overflow pending, read before wrap", 0xFFF0, true, 0x05FFF0},
		{"no overflow, high half", 0x9000, false, 0x059000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e TimerExtension
			e.SetHigh(5)
			if got := e.Extend(tt.low, tt.flagged); got != tt.want {
				t.Errorf("Extend(%#x, %v) = %#x, want %#x", tt.low, tt.flagged, got, tt.want)
			}
		})
	}
}

func TestTimerExtensionCompareCountdown(t *testing.T) {
	tests := []struct {
		name    string
		delta   uint32
		matches int // low-word match on which the target is reached
	}{
		{"within one period", 0x100, 1},
		{"exactly one period", 0x10000, 1},
		{"just over one period", 0x10001, 2},
		{"three periods", 0x2FFFF, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e TimerExtension
			now := uint32(0x123456)
			e.Arm((now+tt.delta)&TimerMask, now)
			for i := 1; i <= tt.matches; i++ {
				fired := e.CompareMatch()
				if i < tt.matches && fired {
					t.Fatalf("fired early on match %d", i)
				}
				if i == tt.matches && !fired {
					t.Fatalf("did not fire on match %d", i)
				}
			}
		})
	}
}

func TestElapsed(t *testing.T) {
	tests := []struct {
		t, now uint32
		want   bool
	}{
		{100, 100, true},
		{101, 100, false},
		{99, 100, true},
		{0x000010, 0xFFFFF0, false}, // across the wrap, in the future
		{0xFFFFF0, 0x000010, true},  // across the wrap, in the past
		{100 + 0x7FFFFF, 100, false},
		{100 + 0x800000, 100, true},
	}
	for _, tt := range tests {
		if got := Elapsed(tt.t, tt.now); got != tt.want {
			t.Errorf("Elapsed(%#x, %#x) = %v, want %v", tt.t, tt.now, got, tt.want)
		}
	}
}

func TestTicksMicrosecondConversion(t *testing.T) {
	cfg := ConfigForClock(8)
	if got := cfg.TicksFromUS(20_000); got != 160_000 {
		t.Errorf("Expected 160000 ticks for a 20ms frame, got %d", got)
	}
	// Truncates partial microseconds
	if got := cfg.TicksToUS(1_607); got != 200 {
		t.Errorf("Expected 200us, got %d", got)
	}
}
