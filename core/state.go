package core

// SharedControlState holds the words shared between the foreground loop and
// the PWM interrupt. Every access from the foreground goes through a method
// that takes a critical section, so a multi-word update is never observed
// half-written by the interrupt.
type SharedControlState struct {
	onTime    uint16 // complemented low byte, see complementLow
	offTime   uint16
	mode      PwmMode // interrupt state: nop, off or an on variant
	onMode    PwmMode // on variant entered after the next off half
	fullPower bool
	powerOn   bool
	pwmPhase  Phase
}

// dutySnapshot is what the PWM interrupt reads
type dutySnapshot struct {
	on, off   uint16
	mode      PwmMode
	onMode    PwmMode
	fullPower bool
	phase     Phase
}

// complementLow stores the low byte of a duty value as a counter preload for
// an up-counting 8-bit timer; the high byte counts extension periods.
func complementLow(v uint16) uint16 {
	return v&0xFF00 | ^v&0x00FF
}

// PublishDuty updates the PWM on/off times and on variant as one unit. The
// interrupt's own state is left alone: a nop stays nop until the foreground
// re-enables PWM, and a running waveform picks the new variant up at the end
// of its next off half. onMode PwmOff keeps the output off.
func (s *SharedControlState) PublishDuty(on, off uint16, onMode PwmMode, fullPower, powerOn bool) {
	state := disableInterrupts()
	s.onTime = complementLow(on)
	s.offTime = complementLow(off)
	s.onMode = onMode
	s.fullPower = fullPower
	s.powerOn = powerOn
	restoreInterrupts(state)
}

// SetMode changes the PWM interrupt's mode
func (s *SharedControlState) SetMode(m PwmMode) {
	state := disableInterrupts()
	s.mode = m
	restoreInterrupts(state)
}

// Mode returns the PWM interrupt's mode
func (s *SharedControlState) Mode() PwmMode {
	state := disableInterrupts()
	m := s.mode
	restoreInterrupts(state)
	return m
}

// OnMode returns the on variant last published by the duty calculation
func (s *SharedControlState) OnMode() PwmMode {
	state := disableInterrupts()
	m := s.onMode
	restoreInterrupts(state)
	return m
}

// PowerOn reports whether the fixed-side FET should be energized at commutation
func (s *SharedControlState) PowerOn() bool {
	state := disableInterrupts()
	on := s.powerOn
	restoreInterrupts(state)
	return on
}

// SetPowerOn overrides the power flag (used while skipping power after a
// demag timeout)
func (s *SharedControlState) SetPowerOn(on bool) {
	state := disableInterrupts()
	s.powerOn = on
	restoreInterrupts(state)
}

// FullPower reports whether the PWM output is held on permanently
func (s *SharedControlState) FullPower() bool {
	state := disableInterrupts()
	f := s.fullPower
	restoreInterrupts(state)
	return f
}

// Times returns the published on/off preloads
func (s *SharedControlState) Times() (on, off uint16) {
	state := disableInterrupts()
	on, off = s.onTime, s.offTime
	restoreInterrupts(state)
	return on, off
}

// PwmPhase returns the phase currently carrying PWM
func (s *SharedControlState) PwmPhase() Phase {
	state := disableInterrupts()
	p := s.pwmPhase
	restoreInterrupts(state)
	return p
}

// snapshot is called from the PWM interrupt, which already runs with other
// interrupts masked.
func (s *SharedControlState) snapshot() dutySnapshot {
	return dutySnapshot{
		on:        s.onTime,
		off:       s.offTime,
		mode:      s.mode,
		onMode:    s.onMode,
		fullPower: s.fullPower,
		phase:     s.pwmPhase,
	}
}

// StartupState is the startup supervisor's bookkeeping. It is only touched
// from the foreground.
type StartupState struct {
	Starting      bool  // motor is in the open-loop start phase
	Goodies       uint8 // consecutive good six-step cycles
	StartDelay    uint8 // extra delay before looking for a crossing, grows on timeouts
	StartModulate uint8 // start power modulation counter
	StartFail     uint8 // failed start modulation rounds
	PowerSkip     uint8 // commutations left to run unpowered
}
