package core

// PwmMode selects what the PWM overflow interrupt does
type PwmMode uint8

const (
	PwmNop    PwmMode = iota // leave the outputs alone
	PwmOff                   // off half next, then the published on variant
	PwmOn                    // on half next, off time fits 8 bits
	PwmOnHigh                // on half next, off time needs extension periods
)

// String returns the mode name
func (m PwmMode) String() string {
	switch m {
	case PwmNop:
		return "nop"
	case PwmOff:
		return "off"
	case PwmOn:
		return "on"
	case PwmOnHigh:
		return "on_high"
	default:
		return "?"
	}
}

// PwmWaveformGenerator produces the PWM waveform on the current PWM phase
// from the overflow interrupt of an 8-bit cycle timer. Each call to Overflow
// ends one half period and returns the counter preload for the next; a half
// period longer than 256 ticks is built from whole extension periods first.
type PwmWaveformGenerator struct {
	shared   *SharedControlState
	driver   PhaseDriver
	highSide bool

	outputOn  bool  // PWM FET currently switched on
	extension uint8 // whole 256-tick periods left in the current half
}

// NewPwmWaveformGenerator creates a generator driving the PWM side selected
// by highSide
func NewPwmWaveformGenerator(shared *SharedControlState, driver PhaseDriver, highSide bool) *PwmWaveformGenerator {
	return &PwmWaveformGenerator{shared: shared, driver: driver, highSide: highSide}
}

// Overflow is the PWM timer overflow interrupt body. The mode moves between
// PwmOff and the published on variant; an on variant of PwmOff (zero duty)
// parks the output off, and full power parks it on.
func (g *PwmWaveformGenerator) Overflow() uint8 {
	s := g.shared.snapshot()
	if s.mode == PwmNop {
		return 0
	}

	if g.extension > 0 {
		g.extension--
		return 0
	}

	if s.mode == PwmOff {
		if g.outputOn {
			g.switchOff(s.phase)
		}
		g.shared.mode = s.onMode
		if s.onMode == PwmOff {
			return 0
		}
		g.extension = uint8(s.off >> 8)
		return uint8(s.off)
	}

	if !g.outputOn {
		g.switchOn(s.phase)
	}
	if s.fullPower {
		return 0
	}
	g.shared.mode = PwmOff
	g.extension = uint8(s.on >> 8)
	return uint8(s.on)
}

// OutputOn reports whether the PWM FET is on. Callers outside the interrupt
// must hold a critical section.
func (g *PwmWaveformGenerator) OutputOn() bool {
	return g.outputOn
}

func (g *PwmWaveformGenerator) switchOn(p Phase) {
	if p == PhaseNone {
		return
	}
	if g.highSide {
		g.driver.DriveHigh(p)
	} else {
		g.driver.DriveLow(p)
	}
	g.outputOn = true
}

func (g *PwmWaveformGenerator) switchOff(p Phase) {
	if p != PhaseNone {
		g.driver.Float(p)
	}
	g.outputOn = false
}

// ForceOff switches the PWM FET off from the foreground
func (g *PwmWaveformGenerator) ForceOff() {
	state := disableInterrupts()
	g.extension = 0
	g.switchOff(g.shared.pwmPhase)
	restoreInterrupts(state)
}

// movePhase hands the PWM role to p, carrying the current output state over.
// Must be called with interrupts disabled.
func (g *PwmWaveformGenerator) movePhase(p Phase) {
	old := g.shared.pwmPhase
	g.shared.pwmPhase = p
	if old != PhaseNone {
		g.driver.Float(old)
	}
	if g.outputOn {
		g.switchOn(p)
	}
}

// reset drops the PWM phase. Must be called with interrupts disabled.
func (g *PwmWaveformGenerator) reset() {
	g.shared.pwmPhase = PhaseNone
	g.outputOn = false
	g.extension = 0
}
