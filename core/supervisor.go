package core

import "errors"

// ErrStartFailed is returned by Run when the motor could not be started and
// the stop hook ended the failure signalling
var ErrStartFailed = errors.New("esc: motor failed to start")

// SupervisorState is the coarse state of the startup supervisor
type SupervisorState uint8

const (
	StateIdle     SupervisorState = iota // waiting for a throttle signal
	StateStarting                        // open-loop start, ramping power
	StateRunning                         // closed-loop commutation
	StateStalled                         // stall penalty delay
	StateFailed                          // start failed, signalling
)

// String returns the state name
func (s SupervisorState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStalled:
		return "stalled"
	case StateFailed:
		return "failed"
	default:
		return "?"
	}
}

// cycleOutcome is what the supervisor does after a six-step cycle
type cycleOutcome uint8

const (
	outcomeContinue cycleOutcome = iota
	outcomeRestart
	outcomeStartOver
	outcomeFailed
	outcomeStop
)

// StartupSupervisor runs the six-step loop and decides after every cycle
// whether to keep ramping, declare the motor running, restart or give up.
type StartupSupervisor struct {
	cfg       *Config
	sched     *TimerScheduler
	duty      *DutyController
	shared    *SharedControlState
	pwm       *PwmWaveformGenerator
	pwmPort   PwmPort
	comm      *CommutationStateMachine
	zc        *ZeroCrossWaitEngine
	signal    *SignalWatchdog
	indicator Indicator
	start     *StartupState

	state    SupervisorState
	restarts uint32
	stop     func() bool
}

// State returns the supervisor state
func (s *StartupSupervisor) State() SupervisorState {
	return s.state
}

// Restarts returns how many times the supervisor went back to idle
func (s *StartupSupervisor) Restarts() uint32 {
	return s.restarts
}

func (s *StartupSupervisor) stopped() bool {
	return s.stop != nil && s.stop()
}

// Run drives the motor until the stop hook asks to return. Without a stop
// hook it only returns on start failure, which never happens on target
// hardware: the failure signalling loops forever there.
func (s *StartupSupervisor) Run() error {
	if !s.RestartControl() {
		return nil
	}
	for {
		var outcome cycleOutcome
		if s.zc.SignalLost() {
			outcome = outcomeRestart
		} else {
			outcome = s.runCycle()
		}

		switch outcome {
		case outcomeStop:
			s.switchPowerOff()
			return nil
		case outcomeRestart:
			if !s.RestartControl() {
				return nil
			}
		case outcomeStartOver:
			s.StartFromRunning()
		case outcomeFailed:
			s.startFailed()
			s.switchPowerOff()
			return ErrStartFailed
		}
	}
}

// runCycle performs six commutations and evaluates the result
func (s *StartupSupervisor) runCycle() cycleOutcome {
	for i := 0; i < 6; i++ {
		s.zc.WaitForEdge(s.comm.ExpectRising())
		if s.zc.SignalLost() {
			s.duty.setCommanded(0)
			return outcomeRestart
		}
		s.comm.Advance()
		if s.stopped() {
			return outcomeStop
		}
	}
	return s.evaluate()
}

// evaluate is the per-cycle decision
func (s *StartupSupervisor) evaluate() cycleOutcome {
	st := s.start
	if !s.shared.PowerOn() && st.Goodies == 0 {
		s.state = StateStalled
		RecordEvent(EvtStall, PhaseNone, s.sched.Now(), s.restarts, 0)
		if IsDebugEnabled() {
			DebugAsync("[ESC] stalled, penalty " + utoa(s.cfg.StallPenaltyMs) + "ms")
		}
		s.switchPowerOff()
		s.sched.DelayMs(s.cfg.StallPenaltyMs, s.cfg.ticksPerMs())
		return outcomeRestart
	}

	sc := s.duty.RateLimited()
	if sc == 0 {
		RecordEvent(EvtStartOver, PhaseNone, s.sched.Now(), 0, 0)
		return outcomeStartOver
	}

	if st.Goodies >= s.cfg.EnoughGoodies {
		s.enterRunning(sc)
		return outcomeContinue
	}

	s.state = StateStarting
	st.Goodies++
	sc += (s.cfg.PowerRange + 47) / 48
	st.StartModulate += s.cfg.StartModInc
	if st.StartModulate == 0 {
		if st.StartFail+s.cfg.StartFailInc == 0 {
			return outcomeFailed
		}
		st.StartFail += s.cfg.StartFailInc
	}

	limit := s.cfg.PwrMaxStart
	if st.StartFail >= s.cfg.StartFailInc && st.StartModulate >= s.cfg.StartModLimit {
		limit = s.cfg.PwrCoolStart
	}
	if sc > limit {
		sc = limit
	}
	s.duty.SetRateLimited(sc)
	return outcomeContinue
}

// enterRunning leaves startup and keeps ramping the rate limit
func (s *StartupSupervisor) enterRunning(sc uint16) {
	st := s.start
	if s.state != StateRunning {
		RecordEvent(EvtRunning, PhaseNone, s.sched.Now(), uint32(sc), 0)
	}
	s.state = StateRunning
	st.Starting = false
	st.StartFail = 0
	st.StartModulate = 0
	s.indicator.Red(false)

	sc += (s.cfg.PowerRange + 31) / 32
	if sc > s.cfg.MaxPower {
		sc = s.cfg.MaxPower
	}
	s.duty.SetRateLimited(sc)
}

// switchPowerOff stops the PWM interrupt and releases every FET
func (s *StartupSupervisor) switchPowerOff() {
	s.pwmPort.DisableInterrupt()
	s.shared.SetMode(PwmNop)
	s.comm.Reset()
}

// RestartControl powers down, waits in idle for a throttle signal and starts
// the motor. Returns false if the stop hook fired while idle.
func (s *StartupSupervisor) RestartControl() bool {
	s.switchPowerOff()
	s.duty.SetTracking(false)
	s.duty.setCommanded(0)
	s.zc.clearSignalLost()
	s.indicator.Green(true)
	s.indicator.Red(false)
	s.state = StateIdle
	s.restarts++
	RecordEvent(EvtRestart, PhaseNone, s.sched.Now(), s.restarts, 0)
	if IsDebugEnabled() {
		DebugAsync("[ESC] restart " + utoa(s.restarts))
	}

	for s.signal.Lost() || s.duty.State().Commanded == 0 {
		if s.stopped() {
			return false
		}
		if s.sched.poll != nil {
			s.sched.poll()
		}
	}

	s.duty.setCommanded(s.cfg.MaxPower / 16)
	s.StartFromRunning()
	return true
}

// StartFromRunning (re)initializes the start sequence with power applied
// through the ramp limit
func (s *StartupSupervisor) StartFromRunning() {
	s.switchPowerOff()
	s.indicator.Green(false)
	s.indicator.Red(false)
	s.duty.SetRateLimited(s.cfg.PwrMinStart)
	s.duty.SetTracking(true)

	st := s.start
	st.Starting = true
	s.zc.waitCommutation()

	st.StartDelay = 0
	st.StartModulate = 0
	st.StartFail = 0
	s.signal.Reload()
	s.zc.clearSignalLost()
	st.PowerSkip = s.cfg.PowerSkipStart
	st.Goodies = s.cfg.EnoughGoodies
	s.state = StateStarting

	s.pwmPort.EnableInterrupt()
}

// startFailed signals the failure by alternating the lights until stopped
func (s *StartupSupervisor) startFailed() {
	s.switchPowerOff()
	s.state = StateFailed
	RecordEvent(EvtStartFailed, PhaseNone, s.sched.Now(), uint32(s.start.StartFail), 0)
	DumpEventRing()

	green := true
	for !s.stopped() {
		s.indicator.Green(green)
		s.indicator.Red(!green)
		green = !green
		s.sched.DelayMs(s.cfg.FailFlashMs, s.cfg.ticksPerMs())
	}
	s.indicator.Green(false)
	s.indicator.Red(false)
}
