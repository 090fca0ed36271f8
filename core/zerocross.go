package core

// ZeroCrossWaitEngine waits for the back-EMF zero crossing on the floating
// phase and then for the predicted commutation time.
//
// Sampling uses a confidence counter: samples at the post-crossing level count
// it down, samples at the pre-crossing level push it back up to the filter
// width. Reaching zero confirms the crossing. Every wait is bounded by the
// scheduler alarm; a timeout either drops back into startup or retries once
// with a narrower filter.
type ZeroCrossWaitEngine struct {
	cfg       *Config
	sched     *TimerScheduler
	timing    *TimingPredictor
	duty      *DutyController
	shared    *SharedControlState
	pwm       *PwmWaveformGenerator
	comm      *CommutationStateMachine
	driver    PhaseDriver
	indicator Indicator
	start     *StartupState
	signal    *SignalWatchdog

	edgeHigh   bool
	signalLost bool
}

// WaitForEdge waits for a crossing in the given direction (rising when high
// is true) on the commutation state machine's sense phase, then waits for
// the commutation it schedules.
func (z *ZeroCrossWaitEngine) WaitForEdge(high bool) {
	z.edgeHigh = high
	z.detect()
	z.waitCommutation()
}

// SignalLost reports whether the last commutation found the throttle signal gone
func (z *ZeroCrossWaitEngine) SignalLost() bool {
	return z.signalLost
}

func (z *ZeroCrossWaitEngine) detect() {
	if z.start.PowerSkip < 1 {
		z.waitPwmEnable()
		return
	}
	z.start.PowerSkip--
	RecordEvent(EvtPowerSkip, z.comm.SensePhase(), z.sched.Now(), uint32(z.start.PowerSkip), 0)
	if !z.start.Starting {
		z.waitForEdge0()
		return
	}
	z.sched.ArmRelative(0xFF00)
	z.filterEdge(z.cfg.ZcCheckMin, z.cfg.ZcCheckMin)
}

// waitPwmEnable re-enables PWM after a demag timeout left it in nop
func (z *ZeroCrossWaitEngine) waitPwmEnable() {
	if z.shared.Mode() == PwmNop {
		z.shared.SetMode(PwmOff)
		z.indicator.Red(false)
	}
	z.waitPwmRunning()
}

func (z *ZeroCrossWaitEngine) waitPwmRunning() {
	if z.start.Starting {
		z.waitStartup()
		return
	}

	// Blank the commutation transient, then wait for demag to finish
	z.timing.ArmWindow(z.sched, degBlank)
	z.sched.WaitForAlarm()
	z.timing.ArmWindow(z.sched, degDemag)
	z.waitForDemag()
}

// waitForDemag waits for the freshly released phase to leave the
// post-crossing level its flyback current clamps it to.
func (z *ZeroCrossWaitEngine) waitForDemag() {
	for {
		if !z.sched.Pending() {
			z.demagTimeout()
			return
		}
		if z.sample() != z.edgeHigh {
			break
		}
	}
	z.waitForEdge0()
}

// demagTimeout cuts the PWM output and skips power for one commutation
func (z *ZeroCrossWaitEngine) demagTimeout() {
	z.shared.SetMode(PwmNop)
	z.pwm.ForceOff()
	z.indicator.Red(true)
	z.start.PowerSkip = 1
	RecordEvent(EvtDemagTimeout, z.comm.SensePhase(), z.sched.Now(), 0, 0)
}

func (z *ZeroCrossWaitEngine) waitForEdge0() {
	w := z.timing.FilterWidth()
	if w < z.cfg.ZcCheckFast {
		z.timing.ArmZeroCrossTimeout(z.sched)
	} else {
		z.timing.ArmWindow(z.sched, degZcCheck)
	}
	z.filterEdge(w, w)
}

// waitStartup gives a starting motor a fixed (growing) delay, then a long
// window to find a crossing
func (z *ZeroCrossWaitEngine) waitStartup() {
	t := z.cfg.StartDelay
	if z.start.Goodies >= 2 {
		t = DegreesToTime(z.cfg.StartDelayStep<<8, t, z.start.StartDelay)
	}
	z.sched.ArmRelative(t)
	z.sched.WaitForAlarm()
	z.sched.ArmRelative(z.cfg.TimeoutStart)
	z.filterEdge(z.cfg.StartupZcCheck, z.cfg.StartupZcCheck)
}

// sample reads the comparator for the sense phase, normalized to the low-side
// PWM polarity
func (z *ZeroCrossWaitEngine) sample() bool {
	return z.driver.SenseEdge(z.comm.SensePhase()) != z.cfg.HighSidePWM
}

// filterEdge runs the confidence counter. higher is the width the counter is
// pushed back up to, lower its starting value. The alarm is checked before
// every sample.
func (z *ZeroCrossWaitEngine) filterEdge(higher, lower uint8) {
	for {
		if !z.sched.Pending() {
			if !z.timeout(&higher, &lower) {
				return
			}
			continue
		}
		if z.sample() != z.edgeHigh {
			if lower < higher {
				lower++
			}
			continue
		}
		lower--
		if lower == 0 {
			return
		}
	}
}

// timeout handles an expired detection window. It returns true when the
// filter should keep sampling with the narrowed widths.
func (z *ZeroCrossWaitEngine) timeout(higher, lower *uint8) bool {
	if z.start.Starting {
		z.timeoutStart()
		return false
	}
	if *higher < z.cfg.ZcCheckFast {
		z.indicator.Red(true)
		z.timeoutStart()
		return false
	}
	*higher = z.cfg.ZcCheckFast - 1
	if *lower < *higher {
		*lower = *higher
	}
	z.timing.ArmZeroCrossTimeout(z.sched)
	return true
}

// timeoutStart drops back into startup; a timeout while already starting
// lengthens the start delay
func (z *ZeroCrossWaitEngine) timeoutStart() {
	z.start.Goodies = 0
	if z.start.Starting {
		z.start.StartDelay += z.cfg.StartDelayInc
	}
	z.start.Starting = true
	RecordEvent(EvtZcTimeout, z.comm.SensePhase(), z.sched.Now(), 0, uint32(z.start.StartDelay))
}

// waitCommutation records the crossing, schedules the commutation and waits
// for it
func (z *ZeroCrossWaitEngine) waitCommutation() {
	now := z.sched.Now()
	z.timing.RecordEdge(now)
	z.timing.ScheduleCommutation(z.sched)
	z.duty.Recompute()
	ts := z.timing.State()
	RecordEvent(EvtCommutation, z.comm.SensePhase(), now, ts.Interval, ts.NextCrossing)

	z.sched.WaitForAlarm()

	if z.start.PowerSkip != 0 {
		z.shared.SetPowerOn(false)
	}
	if z.signal.Lost() {
		if !z.signalLost {
			RecordEvent(EvtSignalLost, PhaseNone, z.sched.Now(), z.signal.Beacon(), 0)
		}
		z.signalLost = true
	}
}

// clearSignalLost is called when the supervisor restarts
func (z *ZeroCrossWaitEngine) clearSignalLost() {
	z.signalLost = false
}
