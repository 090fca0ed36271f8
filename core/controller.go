package core

// Hardware bundles the ports a board provides to the controller
type Hardware struct {
	Timer     TimerPort
	Phases    PhaseDriver
	Pwm       PwmPort
	Indicator Indicator // optional
}

// Status is a snapshot of the controller for telemetry
type Status struct {
	State       SupervisorState
	Interval    uint32
	Commanded   uint16
	Applied     uint16
	RateLimited uint16
	PwmMode     PwmMode
	PowerOn     bool
	Starting    bool
	Goodies     uint8
	StartDelay  uint8
	Restarts    uint32
	Commutation uint32
	SignalLost  bool
}

// Controller is the composition root of the commutation core. It owns every
// subsystem and exposes the interrupt entry points the board code must call.
type Controller struct {
	cfg    Config
	hw     Hardware
	shared SharedControlState
	start  StartupState

	sched      *TimerScheduler
	timing     *TimingPredictor
	duty       *DutyController
	pwm        *PwmWaveformGenerator
	comm       *CommutationStateMachine
	zc         *ZeroCrossWaitEngine
	signal     *SignalWatchdog
	supervisor *StartupSupervisor
}

// NewController validates cfg and wires the subsystems to hw
func NewController(cfg Config, hw Hardware) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if hw.Timer == nil || hw.Phases == nil || hw.Pwm == nil {
		return nil, errNoHardware
	}
	if hw.Indicator == nil {
		hw.Indicator = nopIndicator{}
	}

	c := &Controller{cfg: cfg, hw: hw}
	c.shared.pwmPhase = PhaseNone
	c.sched = NewTimerScheduler(hw.Timer)
	c.signal = NewSignalWatchdog(&c.cfg)
	c.duty = NewDutyController(&c.cfg, &c.shared, &c.start, c.signal)
	c.timing = NewTimingPredictor(&c.cfg, c.duty)
	c.duty.AttachTiming(c.timing)
	c.pwm = NewPwmWaveformGenerator(&c.shared, hw.Phases, cfg.HighSidePWM)
	c.comm = NewCommutationStateMachine(&c.cfg, hw.Phases, &c.shared, c.pwm)
	c.zc = &ZeroCrossWaitEngine{
		cfg:       &c.cfg,
		sched:     c.sched,
		timing:    c.timing,
		duty:      c.duty,
		shared:    &c.shared,
		pwm:       c.pwm,
		comm:      c.comm,
		driver:    hw.Phases,
		indicator: hw.Indicator,
		start:     &c.start,
		signal:    c.signal,
	}
	c.supervisor = &StartupSupervisor{
		cfg:       &c.cfg,
		sched:     c.sched,
		duty:      c.duty,
		shared:    &c.shared,
		pwm:       c.pwm,
		pwmPort:   hw.Pwm,
		comm:      c.comm,
		zc:        c.zc,
		signal:    c.signal,
		indicator: hw.Indicator,
		start:     &c.start,
	}
	return c, nil
}

// Config returns the controller's configuration
func (c *Controller) Config() Config {
	return c.cfg
}

// SetPollHook installs a function called from every busy wait. Host
// simulations use it to advance virtual time.
func (c *Controller) SetPollHook(fn func()) {
	c.sched.SetPollHook(fn)
}

// SetStopHook installs the predicate Run checks to return
func (c *Controller) SetStopHook(fn func() bool) {
	c.supervisor.stop = fn
}

// Run executes the control loop. See StartupSupervisor.Run.
func (c *Controller) Run() error {
	return c.supervisor.Run()
}

// SetThrottle delivers a decoded throttle command in [0, MaxPower]
func (c *Controller) SetThrottle(v uint16) {
	c.duty.SetThrottle(v)
}

// CompareInterrupt must be called by the timer port once the armed 24-bit
// compare target is reached
func (c *Controller) CompareInterrupt() {
	c.sched.CompareMatch()
}

// SchedulerTick must be called by the timer port every 16 counter overflows
func (c *Controller) SchedulerTick() {
	c.signal.Tick()
}

// PwmInterrupt must be called from the PWM timer overflow interrupt; the
// return value is the counter preload for the next period.
func (c *Controller) PwmInterrupt() uint8 {
	return c.pwm.Overflow()
}

// Now returns the 24-bit commutation time
func (c *Controller) Now() uint32 {
	return c.sched.Now()
}

// Status returns a telemetry snapshot. Only call it from the foreground
// (poll hook) or after Run returned.
func (c *Controller) Status() Status {
	d := c.duty.State()
	return Status{
		State:       c.supervisor.State(),
		Interval:    c.timing.State().Interval,
		Commanded:   d.Commanded,
		Applied:     d.Applied,
		RateLimited: d.RateLimited,
		PwmMode:     c.shared.Mode(),
		PowerOn:     c.shared.PowerOn(),
		Starting:    c.start.Starting,
		Goodies:     c.start.Goodies,
		StartDelay:  c.start.StartDelay,
		Restarts:    c.supervisor.Restarts(),
		Commutation: c.comm.Count(),
		SignalLost:  c.signal.Lost(),
	}
}

// String formats the status for debug output
func (s Status) String() string {
	str := s.State.String() +
		" iv=" + utoa(s.Interval) +
		" duty=" + itoa(int(s.Applied)) + "/" + itoa(int(s.Commanded)) +
		" ramp=" + itoa(int(s.RateLimited)) +
		" pwm=" + s.PwmMode.String() +
		" goodies=" + itoa(int(s.Goodies)) +
		" restarts=" + utoa(s.Restarts)
	if s.SignalLost {
		str += " NOSIG"
	}
	return str
}
