package core

// PwmPort is the PWM cycle timer. Its overflow interrupt must call
// Controller.PwmInterrupt and load the returned count; the count is an 8-bit
// up-counter preload, so the next overflow happens 256-count ticks later.
type PwmPort interface {
	// EnableInterrupt starts the PWM cycle timer and its overflow interrupt
	EnableInterrupt()

	// DisableInterrupt stops the overflow interrupt and drops a pending one
	DisableInterrupt()
}
