package core

import "sync/atomic"

// TimerScheduler owns the single commutation alarm. Arming a new target
// replaces the previous one; the pending flag is cleared only by the compare
// interrupt (or immediately, when the target was already missed).
type TimerScheduler struct {
	port    TimerPort
	pending atomic.Bool
	target  uint32

	// poll is called on every iteration of a busy wait
	poll func()
}

// NewTimerScheduler creates a scheduler on top of a timer port
func NewTimerScheduler(port TimerPort) *TimerScheduler {
	return &TimerScheduler{port: port}
}

// SetPollHook installs the function called while busy-waiting
func (s *TimerScheduler) SetPollHook(fn func()) {
	s.poll = fn
}

// Now returns the current 24-bit time
func (s *TimerScheduler) Now() uint32 {
	state := disableInterrupts()
	now := s.port.Now() & TimerMask
	restoreInterrupts(state)
	return now
}

// ArmAbsolute sets the alarm to fire at the 24-bit time t.
// If t has already passed by the time the compare channel is loaded, the
// alarm is left elapsed; that is a normal outcome, not a failure.
func (s *TimerScheduler) ArmAbsolute(t uint32) {
	state := disableInterrupts()
	s.arm(t & TimerMask)
	restoreInterrupts(state)
	s.settle()
}

// ArmAbsoluteFast sets the alarm from the low 16 bits of the target only.
// Valid when the target lies within half a 16-bit period of now, which holds
// whenever the timing predictor reports its fast path.
func (s *TimerScheduler) ArmAbsoluteFast(t uint16) {
	state := disableInterrupts()
	now := s.port.Now()
	d := int16(t - uint16(now))
	s.arm((now + uint32(int32(d))) & TimerMask)
	restoreInterrupts(state)
	s.settle()
}

// ArmRelative sets the alarm delta ticks from now. now is sampled with
// interrupts disabled so it cannot be stale by the time the compare is loaded.
func (s *TimerScheduler) ArmRelative(delta uint32) {
	state := disableInterrupts()
	s.arm((s.port.Now() + delta) & TimerMask)
	restoreInterrupts(state)
	s.settle()
}

// arm must run with interrupts disabled
func (s *TimerScheduler) arm(t uint32) {
	s.port.ClearAlarm()
	s.port.ArmCompare(t)
	s.target = t
	s.pending.Store(true)
}

// settle drops the pending flag when the target was missed while arming;
// the compare channel only matches on equality and would never fire.
func (s *TimerScheduler) settle() {
	if Elapsed(s.target, s.port.Now()&TimerMask) {
		s.pending.Store(false)
	}
}

// Target returns the last armed 24-bit time
func (s *TimerScheduler) Target() uint32 {
	return s.target
}

// Pending reports whether the armed alarm has not fired yet.
// Ports without a compare interrupt are serviced here by polling.
func (s *TimerScheduler) Pending() bool {
	if !s.pending.Load() {
		return false
	}
	if s.port.AlarmPending() {
		s.port.ClearAlarm()
		s.pending.Store(false)
		return false
	}
	return true
}

// WaitForAlarm busy-waits until the alarm fires
func (s *TimerScheduler) WaitForAlarm() {
	for s.Pending() {
		if s.poll != nil {
			s.poll()
		}
	}
}

// DelayMs busy-waits for ms milliseconds using the alarm, in chunks that stay
// well inside the 24-bit range.
func (s *TimerScheduler) DelayMs(ms uint32, ticksPerMs uint32) {
	const chunkMs = 100
	for ms > 0 {
		n := uint32(chunkMs)
		if ms < n {
			n = ms
		}
		s.ArmRelative(n * ticksPerMs)
		s.WaitForAlarm()
		ms -= n
	}
}

// CompareMatch is called from the compare interrupt once the armed 24-bit
// target has been reached
func (s *TimerScheduler) CompareMatch() {
	s.pending.Store(false)
}
