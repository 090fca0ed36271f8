package sim

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"goesc/core"
	"goesc/sim/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runScenario(t *testing.T, doc string) (*Rig, Result, error) {
	t.Helper()
	s, err := config.LoadConfig([]byte(doc))
	require.NoError(t, err)
	rig, err := NewRig(s)
	require.NoError(t, err)
	res, err := rig.Run()
	return rig, res, err
}

func TestRig_FlywheelLocksOn(t *testing.T) {
	rig, err := NewRig(config.DefaultScenario())
	require.NoError(t, err)

	res, err := rig.Run()
	require.NoError(t, err)

	assert.True(t, res.Reached(core.StateRunning), "visited %v", res.Visited)
	assert.Zero(t, res.ShootThrough)
	assert.NotZero(t, res.Status.Commutation)
	assert.GreaterOrEqual(t, res.Elapsed, rig.Scenario.Duration)

	first, ok := rig.Trace.FirstIn(core.StateRunning)
	if assert.True(t, ok) {
		assert.Less(t, first, rig.Scenario.Duration)
	}
}

func TestRig_StallPenalty(t *testing.T) {
	_, res, err := runScenario(t, `
duration: 6s
throttle:
  - t: 0s
    value: 0.5
  - t: 300ms
    value: 0
speed:
  - t: 0s
    interval: 4000
  - t: 300ms
    interval: 0
`)
	require.NoError(t, err)

	assert.True(t, res.Reached(core.StateStalled), "visited %v", res.Visited)
	assert.Equal(t, core.StateIdle, res.Status.State)
	assert.Zero(t, res.Status.Commanded)
	assert.Zero(t, res.ShootThrough)
}

func TestRig_SignalLossAndResume(t *testing.T) {
	rig, res, err := runScenario(t, `
duration: 1500ms
throttle:
  - t: 0s
    value: 0.5
  - t: 300ms
    signal: false
  - t: 600ms
    value: 0.5
speed:
  - t: 0s
    interval: 4000
`)
	require.NoError(t, err)

	assert.True(t, res.Reached(core.StateIdle), "visited %v", res.Visited)
	assert.True(t, res.Reached(core.StateRunning), "visited %v", res.Visited)
	assert.GreaterOrEqual(t, res.Status.Restarts, uint32(2))
	assert.Zero(t, res.ShootThrough)

	// The bridge is released while the signal is gone
	idle := false
	for _, s := range rig.Trace.Samples {
		if s.T > 450*time.Millisecond && s.T < 600*time.Millisecond && s.State == core.StateIdle {
			idle = true
		}
	}
	assert.True(t, idle, "expected idle between signal loss and resume")
}

func TestRig_StartFailure(t *testing.T) {
	_, res, err := runScenario(t, `
duration: 3s
motor:
  model: stalled
esc:
  start_mod_inc: 128
  start_fail_inc: 128
  interval_min: 16
`)
	require.ErrorIs(t, err, core.ErrStartFailed)

	assert.True(t, res.Reached(core.StateFailed), "visited %v", res.Visited)
	assert.False(t, res.Reached(core.StateRunning))
	assert.Zero(t, res.ShootThrough)
}

func TestRig_InertialMotor(t *testing.T) {
	_, res, err := runScenario(t, `
duration: 1s
motor:
  model: inertial
throttle:
  - t: 0s
    value: 0.4
`)
	require.NoError(t, err)

	assert.Zero(t, res.ShootThrough)
	assert.NotZero(t, res.Status.Commutation)
}

func TestRig_SavePlot(t *testing.T) {
	dir := t.TempDir()
	s := config.DefaultScenario()
	s.Duration = 200 * time.Millisecond
	s.Plot = filepath.Join(dir, "run.png")

	rig, err := NewRig(s)
	require.NoError(t, err)
	_, err = rig.Run()
	require.NoError(t, err)

	for _, name := range []string{"run.png", "run_interval.png"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.NotZero(t, info.Size())
	}
}

func TestNewRig_UnknownModel(t *testing.T) {
	s := config.DefaultScenario()
	s.Motor.Model = "hydraulic"
	_, err := NewRig(s)
	assert.Error(t, err)
}
