package sim

import "goesc/core"

// Bridge is a recording three-phase half bridge. It implements
// core.PhaseDriver on top of a motor model and counts every moment both FETs
// of a phase were on together.
type Bridge struct {
	clock *Timer
	motor Motor

	high [3]bool
	low  [3]bool

	// SampleTicks is the simulated cost of one comparator read
	SampleTicks uint64

	ShootThrough int
	Switches     int
	Samples      uint64
}

// NewBridge creates a bridge on clock sensing motor
func NewBridge(clock *Timer, motor Motor, sampleTicks uint64) *Bridge {
	return &Bridge{clock: clock, motor: motor, SampleTicks: sampleTicks}
}

func (b *Bridge) DriveHigh(p core.Phase) {
	if p > core.PhaseC {
		return
	}
	if b.low[p] {
		b.ShootThrough++
	}
	if !b.high[p] {
		b.Switches++
	}
	b.high[p] = true
}

func (b *Bridge) DriveLow(p core.Phase) {
	if p > core.PhaseC {
		return
	}
	if b.high[p] {
		b.ShootThrough++
	}
	if !b.low[p] {
		b.Switches++
	}
	b.low[p] = true
}

func (b *Bridge) Float(p core.Phase) {
	if p > core.PhaseC {
		return
	}
	b.high[p] = false
	b.low[p] = false
}

func (b *Bridge) AllOff() {
	b.high = [3]bool{}
	b.low = [3]bool{}
}

// SenseEdge reads the motor's comparator after spending SampleTicks
func (b *Bridge) SenseEdge(p core.Phase) bool {
	b.clock.Advance(b.SampleTicks)
	b.Samples++
	if p > core.PhaseC {
		return false
	}
	return b.motor.Comparator(p)
}

// Conducting returns the phases whose high and low FETs are on. ok is false
// unless exactly one high and one low FET on different phases conduct.
func (b *Bridge) Conducting() (high, low core.Phase, ok bool) {
	high, low = core.PhaseNone, core.PhaseNone
	for p := core.PhaseA; p <= core.PhaseC; p++ {
		if b.high[p] {
			if high != core.PhaseNone {
				return high, low, false
			}
			high = p
		}
		if b.low[p] {
			if low != core.PhaseNone {
				return high, low, false
			}
			low = p
		}
	}
	return high, low, high != core.PhaseNone && low != core.PhaseNone && high != low
}

// AllFloating reports whether every FET is off
func (b *Bridge) AllFloating() bool {
	return b.high == [3]bool{} && b.low == [3]bool{}
}

// State renders the bridge as one character per phase: H, L, X (both) or -
func (b *Bridge) State() string {
	out := make([]byte, 3)
	for p := range out {
		switch {
		case b.high[p] && b.low[p]:
			out[p] = 'X'
		case b.high[p]:
			out[p] = 'H'
		case b.low[p]:
			out[p] = 'L'
		default:
			out[p] = '-'
		}
	}
	return string(out)
}

// Lights is a recording core.Indicator
type Lights struct {
	green, red bool
	Toggles    int
}

func (l *Lights) Green(on bool) {
	if on != l.green {
		l.Toggles++
	}
	l.green = on
}

func (l *Lights) Red(on bool) {
	if on != l.red {
		l.Toggles++
	}
	l.red = on
}

// State returns the current light states
func (l *Lights) State() (green, red bool) {
	return l.green, l.red
}
