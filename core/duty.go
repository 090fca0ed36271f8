package core

// DutyState is the duty controller's working set, exposed for diagnostics
type DutyState struct {
	Commanded   uint16 // last throttle command
	RateLimited uint16 // ramp limit, grows each good cycle
	TimingLimit uint16 // speed-dependent limit from the timing predictor
	Applied     uint16 // min of the three
	Tracking    bool
}

// DutyController turns the throttle command into PWM on/off times.
// Three limits apply: the command itself, the startup ramp (RateLimited) and
// the speed-dependent timing limit. The result is published to the PWM
// interrupt through SharedControlState.
type DutyController struct {
	cfg    *Config
	shared *SharedControlState
	start  *StartupState
	signal *SignalWatchdog
	timing *TimingPredictor

	commanded   uint16
	rateLimited uint16
	applied     uint16
	tracking    bool
}

// NewDutyController wires a duty controller. timing may be attached later
// with AttachTiming since the two reference each other.
func NewDutyController(cfg *Config, shared *SharedControlState, start *StartupState, signal *SignalWatchdog) *DutyController {
	return &DutyController{
		cfg:    cfg,
		shared: shared,
		start:  start,
		signal: signal,
	}
}

// AttachTiming connects the predictor supplying the timing duty limit
func (d *DutyController) AttachTiming(t *TimingPredictor) {
	d.timing = t
}

// State returns a copy of the controller's working set
func (d *DutyController) State() DutyState {
	return DutyState{
		Commanded:   d.commanded,
		RateLimited: d.rateLimited,
		TimingLimit: d.timingLimit(),
		Applied:     d.applied,
		Tracking:    d.tracking,
	}
}

func (d *DutyController) timingLimit() uint16 {
	if d.timing == nil {
		return d.cfg.MaxPower
	}
	return d.timing.State().DutyLimit
}

// SetTracking enables or disables recomputing duty on every throttle command
func (d *DutyController) SetTracking(on bool) {
	d.tracking = on
}

// RateLimited returns the current ramp limit
func (d *DutyController) RateLimited() uint16 {
	return d.rateLimited
}

// SetRateLimited replaces the ramp limit
func (d *DutyController) SetRateLimited(v uint16) {
	d.rateLimited = v
}

// HalveRateLimit is applied when the interval hits the speed floor
func (d *DutyController) HalveRateLimit() {
	d.rateLimited >>= 1
}

// setCommanded replaces the command without touching the signal watchdog
func (d *DutyController) setCommanded(v uint16) {
	d.commanded = v
}

// SetThrottle stores a new throttle command in [0, MaxPower].
// With tracking on, a command also feeds the signal watchdog and the duty is
// recomputed at once. With tracking off, commands only count towards arming.
func (d *DutyController) SetThrottle(v uint16) {
	if v > d.cfg.MaxPower {
		v = d.cfg.MaxPower
	}
	d.commanded = v
	if !d.tracking {
		if d.signal != nil {
			d.signal.CountUp()
		}
		return
	}
	if d.signal != nil {
		d.signal.Reload()
	}
	d.Recompute()
}

// Recompute derives the PWM on/off times from the three limits. Repeated
// calls with unchanged inputs publish the same values.
func (d *DutyController) Recompute() {
	x := d.commanded
	if tl := d.timingLimit(); x > tl {
		x = tl
	}
	if x > d.rateLimited {
		x = d.rateLimited
	}
	d.applied = x

	// Never let the ramp limit run far ahead of what is actually applied
	ceil := d.cfg.PwrMinStart
	if x > ceil {
		ceil = x
	}
	if ceil <<= 1; ceil < d.rateLimited {
		d.rateLimited = ceil
	}

	off := d.cfg.MaxPower - x
	switch {
	case off == 0:
		d.shared.PublishDuty(x, 0, PwmOn, true, true)
	case x == 0:
		d.shared.PublishDuty(0, off, PwmOff, false, false)
	default:
		on := x
		if d.start != nil && d.start.Starting && d.cfg.halvesStartupPwm() {
			on <<= 1
			off <<= 1
		}
		mode := PwmOn
		if off&0xFF00 != 0 {
			mode = PwmOnHigh
		}
		d.shared.PublishDuty(on, off, mode, false, true)
	}
}
