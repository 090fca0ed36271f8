package core

import "sync/atomic"

// TimerExtension widens a free-running 16-bit hardware counter and its
// 16-bit compare channel to the 24 bits commutation timing needs. The high
// byte is advanced by the overflow interrupt; a compare target more than one
// counter period away is reached by counting compare matches down.
//
// Ports built on narrow hardware embed one of these; the rest of the core only
// ever sees 24-bit values.
type TimerExtension struct {
	high    atomic.Uint32 // software high byte of the counter
	cmpHigh atomic.Uint32 // compare matches left before the armed target
}

// Overflow is the counter overflow interrupt body. It returns true on every
// 16th overflow, which is the scheduler tick used by the RC signal watchdog.
func (e *TimerExtension) Overflow() (tick bool) {
	h := e.high.Add(1) & 0xFF
	return h&0x0F == 0
}

// Extend combines a 16-bit counter read with the software high byte.
// overflowFlagged is the hardware overflow flag read in the same critical
// section as low: when it is set and low has already wrapped into its lower
// half, the overflow interrupt has not run yet and the high byte is one behind.
func (e *TimerExtension) Extend(low uint16, overflowFlagged bool) uint32 {
	h := e.high.Load()
	if overflowFlagged && low < 0x8000 {
		h++
	}
	return (h&0xFF)<<16 | uint32(low)
}

// Arm records how many low-word compare matches must pass before the 24-bit
// target is reached, given the 24-bit time now at which the compare register
// was loaded with the target's low word. The first match is at least one tick
// away, so a target exactly n periods ahead is reached on match n-1.
// A target equal to now is left to the caller's elapsed check.
func (e *TimerExtension) Arm(target, now uint32) {
	e.cmpHigh.Store(((target - now - 1) & TimerMask) >> 16)
}

// CompareMatch is the compare interrupt body. It returns true when the armed
// 24-bit target has been reached.
func (e *TimerExtension) CompareMatch() bool {
	n := e.cmpHigh.Load()
	e.cmpHigh.Store((n - 1) & 0xFF)
	return n == 0
}

// High returns the software high byte (for tests and diagnostics)
func (e *TimerExtension) High() uint8 {
	return uint8(e.high.Load())
}

// SetHigh presets the software high byte
func (e *TimerExtension) SetHigh(h uint8) {
	e.high.Store(uint32(h))
}

// TicksFromUS converts microseconds to commutation timer ticks
func (c *Config) TicksFromUS(us uint32) uint32 {
	return us * c.TimerMHz
}

// TicksToUS converts commutation timer ticks to microseconds
func (c *Config) TicksToUS(ticks uint32) uint32 {
	return ticks / c.TimerMHz
}
