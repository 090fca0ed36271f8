//go:build tinygo

package core

import "runtime/interrupt"

// disableInterrupts disables interrupts and returns the previous state
func disableInterrupts() interrupt.State {
	return interrupt.Disable()
}

// restoreInterrupts restores the interrupt state
func restoreInterrupts(state interrupt.State) {
	interrupt.Restore(state)
}

// InCriticalSection is always false on hardware: interrupts are masked by the
// CPU itself, nothing needs to poll for it.
func InCriticalSection() bool {
	return false
}
