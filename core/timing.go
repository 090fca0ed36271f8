package core

// FastPathInterval is the commutation interval below which every timing
// quantity for the next commutation fits in 16 bits.
const FastPathInterval = 0x1000

// Angle windows relative to the predicted commutation, over the 120 degree
// span between two zero crossings.
var (
	degBlank   = degreesOf(13, 120) // demag blanking before sampling starts
	degDemag   = degreesOf(42, 120) // give up waiting for demag
	degZcCheck = degreesOf(24, 120) // zero-cross window on the slow path
)

// TimingState is the predictor's view of the rotor
type TimingState struct {
	Interval     uint32 // ticks between the last two zero crossings (clamped)
	NextCrossing uint32 // predicted commutation time, 24-bit
	FastPath     bool
	DutyLimit    uint16
}

// TimingPredictor records zero-cross edges and predicts when to commutate.
type TimingPredictor struct {
	cfg  *Config
	duty *DutyController

	lastEdge     uint32
	lastLastEdge uint32
	state        TimingState
}

// NewTimingPredictor creates a predictor. duty may be nil; when set, its rate
// limit is halved every time the interval hits the speed floor.
func NewTimingPredictor(cfg *Config, duty *DutyController) *TimingPredictor {
	return &TimingPredictor{
		cfg:   cfg,
		duty:  duty,
		state: TimingState{DutyLimit: cfg.MaxPower},
	}
}

// State returns a copy of the current prediction
func (p *TimingPredictor) State() TimingState {
	return p.state
}

// RecordEdge stores a zero-cross time and updates the interval.
// The interval is clamped to [max(IntervalMin, SafetyGovernor), IntervalMax].
// Hitting the lower bound means the motor is outrunning the governor (or the
// edge was noise) and the allowed duty is halved. Returns true in that case.
func (p *TimingPredictor) RecordEdge(now uint32) (floored bool) {
	now &= TimerMask
	prev := p.lastEdge
	p.lastLastEdge = prev
	p.lastEdge = now

	iv := (now - prev) & TimerMask
	if floor := p.cfg.intervalFloor(); iv < floor {
		iv = floor
		floored = true
		if p.duty != nil {
			p.duty.HalveRateLimit()
		}
	} else if iv > p.cfg.IntervalMax {
		iv = p.cfg.IntervalMax
	}

	p.state.Interval = iv
	p.state.FastPath = iv < FastPathInterval
	p.state.DutyLimit = TimingDutyLimit(p.cfg, iv)
	return floored
}

// midpoint of the last two edges
func (p *TimingPredictor) midpoint() uint32 {
	return (p.lastLastEdge + ((p.lastEdge-p.lastLastEdge)&TimerMask)>>1) & TimerMask
}

// PredictNextCrossing returns the commutation time for a timing advance in
// degrees: half way between the last two edges, plus one interval, plus the
// remaining electrical angle scaled to the interval.
func (p *TimingPredictor) PredictNextCrossing(advance uint8) uint32 {
	deg := degreesOf(uint32(advance), 180)
	return DegreesToTime(p.state.Interval, p.midpoint()+p.state.Interval, deg)
}

// PredictNextCrossingFast is the 16-bit form of PredictNextCrossing. Only
// meaningful while State().FastPath is true.
func (p *TimingPredictor) PredictNextCrossingFast(advance uint8) uint16 {
	deg := degreesOf(uint32(advance), 180)
	last := uint16(p.lastEdge)
	ll := uint16(p.lastLastEdge)
	mid := ll + (last-ll)>>1
	iv := uint16(p.state.Interval)
	return DegreesToTimeFast(iv, mid+iv, deg)
}

// ScheduleCommutation predicts the next commutation and arms it on s,
// through the 16-bit path when the interval allows.
func (p *TimingPredictor) ScheduleCommutation(s *TimerScheduler) {
	advance := uint8(30 - p.cfg.MotorAdvance)
	p.state.NextCrossing = p.PredictNextCrossing(advance)
	if p.state.FastPath {
		s.ArmAbsoluteFast(p.PredictNextCrossingFast(advance))
		return
	}
	s.ArmAbsolute(p.state.NextCrossing)
}

// span is the 120 degree window between two crossings
func (p *TimingPredictor) span() uint32 {
	return p.state.Interval << 1
}

// ArmWindow arms s at deg binary degrees of the crossing span past the
// predicted commutation.
func (p *TimingPredictor) ArmWindow(s *TimerScheduler, deg uint8) {
	span := p.span()
	if p.state.FastPath {
		s.ArmAbsoluteFast(DegreesToTimeFast(uint16(span), uint16(p.state.NextCrossing), deg))
		return
	}
	s.ArmAbsolute(DegreesToTime(span, p.state.NextCrossing, deg))
}

// ZeroCrossTimeout is the latest time a crossing is still accepted
func (p *TimingPredictor) ZeroCrossTimeout() uint32 {
	return (p.state.NextCrossing + p.span()<<1) & TimerMask
}

// ArmZeroCrossTimeout arms s at ZeroCrossTimeout
func (p *TimingPredictor) ArmZeroCrossTimeout(s *TimerScheduler) {
	t := p.ZeroCrossTimeout()
	if p.state.FastPath {
		s.ArmAbsoluteFast(uint16(t))
		return
	}
	s.ArmAbsolute(t)
}

// FilterWidth returns the zero-cross filter sample count for the current
// speed, clamped to [ZcCheckMin, ZcCheckMax].
func (p *TimingPredictor) FilterWidth() uint8 {
	q := p.span() >> 10
	switch {
	case q < uint32(p.cfg.ZcCheckMin):
		return p.cfg.ZcCheckMin
	case q > uint32(p.cfg.ZcCheckMax):
		return p.cfg.ZcCheckMax
	}
	return uint8(q)
}

// TimingDutyLimit returns the highest duty allowed at a commutation interval.
// Below DutyLimitInterval (fast rotation) full power is allowed; above it the
// limit falls in inverse proportion to the interval, but never below
// PwrMaxRpm1.
func TimingDutyLimit(cfg *Config, interval uint32) uint16 {
	if interval < cfg.DutyLimitInterval {
		return cfg.MaxPower
	}
	q := DivideRestoring(uint32(cfg.MaxPower)*cfg.DutyLimitInterval, interval)
	if q < uint32(cfg.PwrMaxRpm1) {
		return cfg.PwrMaxRpm1
	}
	if q > uint32(cfg.MaxPower) {
		return cfg.MaxPower
	}
	return uint16(q)
}
