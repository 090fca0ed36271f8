package sim

import (
	"fmt"
	"time"

	"goesc/core"
	"goesc/sim/config"
)

// Rig ties a core.Controller to simulated hardware and runs a scenario
type Rig struct {
	Scenario   *config.Scenario
	Timer      *Timer
	Bridge     *Bridge
	Lights     *Lights
	Motor      Motor
	Controller *core.Controller
	Trace      *Trace

	cfg       core.Config
	endTicks  uint64
	rcPeriod  uint64
	nextRC    uint64
	pollTicks uint64
	visited   []core.SupervisorState
}

// Result summarizes a run
type Result struct {
	Status       core.Status
	Visited      []core.SupervisorState // supervisor states in order of first visit
	ShootThrough int
	Elapsed      time.Duration
	Events       []core.ControlEvent
}

// Reached reports whether the supervisor was ever in state
func (r Result) Reached(state core.SupervisorState) bool {
	for _, s := range r.Visited {
		if s == state {
			return true
		}
	}
	return false
}

// NewRig builds the simulated hardware for s and a controller on top of it
func NewRig(s *config.Scenario) (*Rig, error) {
	r := &Rig{
		Scenario:  s,
		Timer:     &Timer{},
		Lights:    &Lights{},
		cfg:       s.ESC,
		pollTicks: 64,
	}

	switch s.Motor.Model {
	case config.MotorFlywheel:
		r.Motor = NewFlywheel(s.IntervalAt(0))
	case config.MotorInertial:
		m := NewInertial()
		if s.Motor.Inertia > 0 {
			m.Inertia = s.Motor.Inertia
		}
		if s.Motor.Drag > 0 {
			m.Drag = s.Motor.Drag
		}
		if s.Motor.Ke > 0 {
			m.Ke = s.Motor.Ke
		}
		if s.Motor.Kt > 0 {
			m.Kt = s.Motor.Kt
		}
		r.Motor = m
	case config.MotorStalled:
		r.Motor = &Stalled{}
	default:
		return nil, fmt.Errorf("unknown motor model %q", s.Motor.Model)
	}

	r.Bridge = NewBridge(r.Timer, r.Motor, s.Motor.SampleTicks)

	c, err := core.NewController(s.ESC, core.Hardware{
		Timer:     r.Timer,
		Phases:    r.Bridge,
		Pwm:       r.Timer.PwmPort(),
		Indicator: r.Lights,
	})
	if err != nil {
		return nil, fmt.Errorf("create controller: %w", err)
	}
	r.Controller = c

	r.Timer.OnCompare = c.CompareInterrupt
	r.Timer.OnTick = c.SchedulerTick
	r.Timer.OnPwm = c.PwmInterrupt
	r.Timer.OnAdvance = r.service

	r.endTicks = r.ticks(s.Duration)
	r.rcPeriod = r.ticks(s.RCPeriod)
	r.Trace = NewTrace(r.ticks(time.Millisecond))

	c.SetPollHook(r.poll)
	c.SetStopHook(r.done)
	return r, nil
}

func (r *Rig) ticks(d time.Duration) uint64 {
	return uint64(d/time.Microsecond) * uint64(r.cfg.TimerMHz)
}

// Elapsed returns the simulated time
func (r *Rig) Elapsed() time.Duration {
	return time.Duration(r.Timer.Ticks()/uint64(r.cfg.TimerMHz)) * time.Microsecond
}

// poll is the controller's busy-wait hook: time passes
func (r *Rig) poll() {
	r.Timer.Advance(r.pollTicks)
}

func (r *Rig) done() bool {
	return r.Timer.Ticks() >= r.endTicks
}

// service runs after every step of simulated time: it moves the motor, feeds
// throttle commands at the RC frame rate and samples the trace
func (r *Rig) service(now uint64) {
	elapsed := r.Elapsed()
	if fw, ok := r.Motor.(*Flywheel); ok {
		fw.SetInterval(r.Scenario.IntervalAt(elapsed))
	}
	r.Motor.Update(now, r.Bridge)

	if now >= r.nextRC {
		r.nextRC = now + r.rcPeriod
		if v, ok := r.Scenario.ThrottleAt(elapsed); ok {
			r.Controller.SetThrottle(uint16(v * float64(r.cfg.MaxPower)))
		}
	}

	if r.Trace.due(now) {
		st := r.Controller.Status()
		r.note(st.State)
		r.Trace.Samples = append(r.Trace.Samples, Sample{
			T:         elapsed,
			State:     st.State,
			Interval:  st.Interval,
			Commanded: st.Commanded,
			Applied:   st.Applied,
			Motor:     r.motorInterval(),
		})
	}
}

func (r *Rig) motorInterval() float64 {
	switch m := r.Motor.(type) {
	case *Flywheel:
		return m.interval
	case *Inertial:
		return m.Interval()
	}
	return 0
}

func (r *Rig) note(s core.SupervisorState) {
	for _, v := range r.visited {
		if v == s {
			return
		}
	}
	r.visited = append(r.visited, s)
}

// Run executes the scenario. A start failure is reported as the error.
func (r *Rig) Run() (Result, error) {
	core.ClearEventRing()
	err := r.Controller.Run()
	st := r.Controller.Status()
	r.note(st.State)
	res := Result{
		Status:       st,
		Visited:      r.visited,
		ShootThrough: r.Bridge.ShootThrough,
		Elapsed:      r.Elapsed(),
		Events:       core.Events(),
	}
	if r.Scenario.Plot != "" {
		if perr := r.Trace.SavePlot(r.Scenario.Plot); perr != nil && err == nil {
			err = perr
		}
	}
	return res, err
}
