package core

// SignalWatchdog tracks whether throttle commands keep arriving. Each valid
// command reloads the timeout; the scheduler tick counts it down. Once it
// reaches zero the signal is lost, and every further tick bumps the beacon
// counter used to pace the lost-model beeps.
type SignalWatchdog struct {
	cfg     *Config
	timeout uint8
	beacon  uint32
}

// NewSignalWatchdog creates a watchdog that starts out expired
func NewSignalWatchdog(cfg *Config) *SignalWatchdog {
	return &SignalWatchdog{cfg: cfg}
}

// Reload restarts the timeout after a valid command while running
func (w *SignalWatchdog) Reload() {
	state := disableInterrupts()
	w.timeout = w.cfg.RcpTot
	w.beacon = 0
	restoreInterrupts(state)
}

// CountUp credits a valid command while arming, saturating at RcTimeoutMax
func (w *SignalWatchdog) CountUp() {
	state := disableInterrupts()
	if w.timeout < w.cfg.RcTimeoutMax {
		w.timeout++
	}
	w.beacon = 0
	restoreInterrupts(state)
}

// Tick is called from the timer interrupt on every scheduler tick
func (w *SignalWatchdog) Tick() {
	if w.timeout > 0 {
		w.timeout--
		return
	}
	w.beacon++
}

// Lost reports whether the command stream has timed out
func (w *SignalWatchdog) Lost() bool {
	state := disableInterrupts()
	lost := w.timeout == 0
	restoreInterrupts(state)
	return lost
}

// Timeout returns the remaining ticks before the signal counts as lost
func (w *SignalWatchdog) Timeout() uint8 {
	state := disableInterrupts()
	t := w.timeout
	restoreInterrupts(state)
	return t
}

// Beacon returns the ticks spent without a signal
func (w *SignalWatchdog) Beacon() uint32 {
	state := disableInterrupts()
	b := w.beacon
	restoreInterrupts(state)
	return b
}
