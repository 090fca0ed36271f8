//go:build !tinygo

package core

import "sync/atomic"

// State is a placeholder for interrupt state on regular Go
type State uintptr

// criticalDepth counts nested critical sections so host simulators can hold
// back interrupt delivery while one is open.
var criticalDepth atomic.Int32

// disableInterrupts marks the start of a critical section (no-op on regular Go)
func disableInterrupts() State {
	criticalDepth.Add(1)
	return 0
}

// restoreInterrupts marks the end of a critical section
func restoreInterrupts(state State) {
	criticalDepth.Add(-1)
}

// InCriticalSection reports whether foreground code currently has interrupts
// masked. Simulated hardware defers its interrupt handlers while this is true.
func InCriticalSection() bool {
	return criticalDepth.Load() > 0
}
