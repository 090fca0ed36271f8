package core

// TimerMask limits every commutation timestamp to the 24 bits the timer
// hardware provides.
const TimerMask = 0xFFFFFF

// TimerPort is the commutation clock the core consumes: a free-running 24-bit
// counter plus one compare channel. Implementations that build the counter out
// of a narrower hardware register use TimerExtension to widen it.
type TimerPort interface {
	// Now returns the current counter value (24-bit, wrapping)
	Now() uint32

	// ArmCompare programs the compare channel to match at t (24-bit).
	// A new call replaces any previously armed target.
	ArmCompare(t uint32)

	// AlarmPending reports a compare match that has been flagged by hardware
	// but not yet serviced by an interrupt handler
	AlarmPending() bool

	// ClearAlarm clears a flagged compare match
	ClearAlarm()
}

// Elapsed reports whether the 24-bit time t is at or before now.
// Distances of half the counter range or more count as the past.
func Elapsed(t, now uint32) bool {
	d := (t - now) & TimerMask
	return d == 0 || d >= 0x800000
}
