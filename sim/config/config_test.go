package config

import (
	"testing"
	"time"

	"goesc/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	s, err := LoadConfig([]byte("duration: 500ms\n"))
	require.NoError(t, err)

	assert.Equal(t, 500*time.Millisecond, s.Duration)
	assert.Equal(t, MotorFlywheel, s.Motor.Model)
	assert.Equal(t, uint64(8), s.Motor.SampleTicks)
	assert.Equal(t, 20*time.Millisecond, s.RCPeriod)
	assert.Equal(t, core.DefaultConfig(), s.ESC)

	require.Len(t, s.Throttle, 1)
	v, sig := s.ThrottleAt(0)
	assert.Equal(t, 0.5, v)
	assert.True(t, sig)
}

func TestLoadConfig_Keyframes(t *testing.T) {
	doc := `
motor:
  model: inertial
throttle:
  - t: 0s
    value: 0.25
  - t: 1s
    signal: false
  - t: 2s
    value: 0.75
speed:
  - t: 0s
    interval: 4000
  - t: 1500ms
    interval: 0
`
	s, err := LoadConfig([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, MotorInertial, s.Motor.Model)
	// Derived from the last keyframe plus a second
	assert.Equal(t, 3*time.Second, s.Duration)

	v, sig := s.ThrottleAt(500 * time.Millisecond)
	assert.Equal(t, 0.25, v)
	assert.True(t, sig)

	_, sig = s.ThrottleAt(1200 * time.Millisecond)
	assert.False(t, sig)

	v, sig = s.ThrottleAt(5 * time.Second)
	assert.Equal(t, 0.75, v)
	assert.True(t, sig)

	assert.Equal(t, 4000.0, s.IntervalAt(time.Second))
	assert.Equal(t, 0.0, s.IntervalAt(2*time.Second))
}

func TestLoadConfig_ESCOverrides(t *testing.T) {
	doc := `
esc:
  timer_mhz: 32
  motor_advance: 20
  reverse: true
`
	s, err := LoadConfig([]byte(doc))
	require.NoError(t, err)

	want := core.ConfigForClock(32)
	want.MotorAdvance = 20
	want.Reverse = true
	assert.Equal(t, want, s.ESC)
	// Derived constants follow the clock
	assert.Equal(t, uint16(1712), s.ESC.PowerRange)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"bad yaml", "duration: [\n"},
		{"unknown motor", "motor:\n  model: warp\n"},
		{"unsorted throttle", "throttle:\n  - t: 1s\n  - t: 0s\n"},
		{"throttle range", "throttle:\n  - t: 0s\n    value: 1.5\n"},
		{"negative interval", "speed:\n  - t: 0s\n    interval: -1\n"},
		{"invalid esc", "esc:\n  motor_advance: 40\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestDefaultScenario(t *testing.T) {
	s := DefaultScenario()
	assert.Equal(t, 4000.0, s.IntervalAt(0))
	assert.NoError(t, s.validate())
}
