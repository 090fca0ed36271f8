package config

import (
	"fmt"
	"os"
	"time"

	"goesc/core"

	"gopkg.in/yaml.v3"
)

// Motor model names
const (
	MotorFlywheel = "flywheel"
	MotorInertial = "inertial"
	MotorStalled  = "stalled"
)

// Scenario describes one simulator run.
//
// YAML schema:
//
//	duration: 2s
//	motor:
//	  model: flywheel
//	esc:
//	  timer_mhz: 16
//	  motor_advance: 15
//	throttle:
//	  - t: 0s
//	    value: 0.3
//	  - t: 1s
//	    signal: false
//	speed:
//	  - t: 0s
//	    interval: 4000
//
// Any field of core.Config may appear under esc; the rest are derived from
// timer_mhz exactly as core.ConfigForClock does.
type Scenario struct {
	Duration time.Duration      `yaml:"duration"`
	Motor    MotorConfig        `yaml:"motor"`
	ESC      core.Config        `yaml:"-"`
	Throttle []ThrottleKeyframe `yaml:"throttle"`
	Speed    []SpeedKeyframe    `yaml:"speed"`

	// RCPeriod is the throttle command period
	RCPeriod time.Duration `yaml:"rc_period"`

	// Plot is the PNG path for the trace plot, empty for none
	Plot string `yaml:"plot"`
}

// MotorConfig selects and parameterizes the motor model
type MotorConfig struct {
	Model string `yaml:"model"`

	// Inertial model parameters, zero means default
	Inertia float64 `yaml:"inertia"`
	Drag    float64 `yaml:"drag"`
	Ke      float64 `yaml:"ke"`
	Kt      float64 `yaml:"kt"`

	// SampleTicks is the comparator sampling cost in timer ticks
	SampleTicks uint64 `yaml:"sample_ticks"`
}

// ThrottleKeyframe sets the throttle from time T on
type ThrottleKeyframe struct {
	T time.Duration `yaml:"t"`
	// Value is the fraction of full power, 0-1
	Value float64 `yaml:"value"`
	// Signal false stops the command stream
	Signal *bool `yaml:"signal"`
}

// SpeedKeyframe sets the flywheel's commutation interval from time T on
type SpeedKeyframe struct {
	T time.Duration `yaml:"t"`
	// Interval is the duration of 60 electrical degrees in timer ticks, 0 stops the rotor
	Interval float64 `yaml:"interval"`
}

// escOverrides picks the esc section out of the document
type escOverrides struct {
	ESC yaml.Node `yaml:"esc"`
}

// LoadConfig parses a YAML scenario and returns it with defaults applied
func LoadConfig(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}

	var o escOverrides
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("parse esc section: %w", err)
	}
	esc, err := decodeESC(&o.ESC)
	if err != nil {
		return nil, err
	}
	s.ESC = esc

	applyDefaults(&s)

	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadFile reads and parses a YAML scenario file
func LoadFile(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadConfig(b)
}

// decodeESC builds the controller config: timer_mhz first, then every other
// override on top of the constants derived from it
func decodeESC(node *yaml.Node) (core.Config, error) {
	if node.Kind == 0 {
		return core.DefaultConfig(), nil
	}
	var clock struct {
		TimerMHz uint32 `yaml:"timer_mhz"`
	}
	if err := node.Decode(&clock); err != nil {
		return core.Config{}, fmt.Errorf("parse esc.timer_mhz: %w", err)
	}
	if clock.TimerMHz == 0 {
		clock.TimerMHz = core.DefaultTimerMHz
	}
	cfg := core.ConfigForClock(clock.TimerMHz)
	if err := node.Decode(&cfg); err != nil {
		return core.Config{}, fmt.Errorf("parse esc: %w", err)
	}
	return cfg, nil
}

// applyDefaults fills in missing scenario values with sensible defaults
func applyDefaults(s *Scenario) {
	if s.Motor.Model == "" {
		s.Motor.Model = MotorFlywheel
	}
	if s.Motor.SampleTicks == 0 {
		s.Motor.SampleTicks = 8 // ~0.5us comparator read at 16MHz
	}
	if s.RCPeriod == 0 {
		s.RCPeriod = 20 * time.Millisecond // standard 50Hz servo frame
	}

	// Without keyframes: half throttle, continuous signal
	if len(s.Throttle) == 0 {
		s.Throttle = []ThrottleKeyframe{{T: 0, Value: 0.5}}
	}
	for i := range s.Throttle {
		if s.Throttle[i].Signal == nil {
			on := true
			s.Throttle[i].Signal = &on
		}
	}

	if s.Duration == 0 {
		for _, kf := range s.Throttle {
			if kf.T > s.Duration {
				s.Duration = kf.T
			}
		}
		for _, kf := range s.Speed {
			if kf.T > s.Duration {
				s.Duration = kf.T
			}
		}
		s.Duration += time.Second
	}
}

func (s *Scenario) validate() error {
	switch s.Motor.Model {
	case MotorFlywheel, MotorInertial, MotorStalled:
	default:
		return fmt.Errorf("unknown motor model %q", s.Motor.Model)
	}
	for i, kf := range s.Throttle {
		if kf.T < 0 || (i > 0 && kf.T < s.Throttle[i-1].T) {
			return fmt.Errorf("throttle keyframes must be sorted by t (index %d)", i)
		}
		if kf.Value < 0 || kf.Value > 1 {
			return fmt.Errorf("throttle[%d].value must be within 0-1", i)
		}
	}
	for i, kf := range s.Speed {
		if kf.T < 0 || (i > 0 && kf.T < s.Speed[i-1].T) {
			return fmt.Errorf("speed keyframes must be sorted by t (index %d)", i)
		}
		if kf.Interval < 0 {
			return fmt.Errorf("speed[%d].interval must be >= 0", i)
		}
	}
	if err := s.ESC.Validate(); err != nil {
		return fmt.Errorf("esc: %w", err)
	}
	return nil
}

// ThrottleAt returns the throttle fraction and signal presence at elapsed
func (s *Scenario) ThrottleAt(elapsed time.Duration) (float64, bool) {
	value, signal := 0.0, false
	for _, kf := range s.Throttle {
		if kf.T > elapsed {
			break
		}
		value, signal = kf.Value, *kf.Signal
	}
	return value, signal
}

// IntervalAt returns the flywheel interval at elapsed, 0 if no keyframe applies
func (s *Scenario) IntervalAt(elapsed time.Duration) float64 {
	iv := 0.0
	for _, kf := range s.Speed {
		if kf.T > elapsed {
			break
		}
		iv = kf.Interval
	}
	return iv
}

// DefaultScenario returns a flywheel spinning at a steady speed under half
// throttle
func DefaultScenario() *Scenario {
	s := &Scenario{
		Duration: time.Second,
		Motor:    MotorConfig{Model: MotorFlywheel},
		ESC:      core.DefaultConfig(),
		Speed:    []SpeedKeyframe{{T: 0, Interval: 4000}},
	}
	applyDefaults(s)
	return s
}
