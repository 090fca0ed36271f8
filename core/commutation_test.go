package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCommutationTables(t *testing.T) {
	for name, steps := range map[string]*[6]commutationStep{"forward": &forwardSteps, "reverse": &reverseSteps} {
		t.Run(name, func(t *testing.T) {
			pwmChanges := 0
			for i, s := range steps {
				if s.fixed == s.pwm || s.fixed == s.sense || s.pwm == s.sense {
					t.Errorf("step %d: roles must use three different phases: %+v", i, s)
				}
				prev := steps[(i+5)%6]
				changedFixed := prev.fixed != s.fixed
				changedPwm := prev.pwm != s.pwm
				if changedFixed == changedPwm {
					t.Errorf("step %d: exactly one role must move", i)
				}
				if changedPwm != s.pwmChange {
					t.Errorf("step %d: pwmChange flag is %v but the PWM role moved=%v", i, s.pwmChange, changedPwm)
				}
				// The released phase becomes the sense phase
				released := prev.fixed
				if changedPwm {
					released = prev.pwm
				}
				if released != s.sense {
					t.Errorf("step %d: released %s but senses %s", i, released, s.sense)
				}
				if s.pwmChange {
					pwmChanges++
				}
			}
			if pwmChanges != 3 {
				t.Errorf("Expected 3 PWM moves per cycle, got %d", pwmChanges)
			}
		})
	}
}

func TestCommutationReverseMirrorsForward(t *testing.T) {
	// Forward visits the reverse states backwards
	for i := 0; i < 6; i++ {
		f := forwardSteps[i]
		r := reverseSteps[(10-i)%6]
		if f.fixed != r.fixed || f.pwm != r.pwm {
			t.Errorf("forward step %d (%s,%s) does not mirror reverse (%s,%s)", i, f.fixed, f.pwm, r.fixed, r.pwm)
		}
	}
}

func newTestCommutation(cfg Config) (*CommutationStateMachine, *SharedControlState, *PwmWaveformGenerator, *MockDriver) {
	shared := &SharedControlState{pwmPhase: PhaseNone}
	driver := &MockDriver{}
	pwm := NewPwmWaveformGenerator(shared, driver, cfg.HighSidePWM)
	m := NewCommutationStateMachine(&cfg, driver, shared, pwm)
	return m, shared, pwm, driver
}

func TestCommutationNoShootThrough(t *testing.T) {
	for _, highSide := range []bool{false, true} {
		for _, reverse := range []bool{false, true} {
			cfg := DefaultConfig()
			cfg.HighSidePWM = highSide
			cfg.Reverse = reverse
			m, shared, pwm, driver := newTestCommutation(cfg)
			shared.PublishDuty(100, 100, PwmOn, false, true)
			shared.SetMode(PwmOn)

			for i := 0; i < 60; i++ {
				m.Advance()
				// Toggle PWM a few times between commutations
				for j := 0; j < 3; j++ {
					pwm.Overflow()
				}
			}
			if driver.shootThrough != 0 {
				t.Errorf("highSide=%v reverse=%v: %d shoot-through events", highSide, reverse, driver.shootThrough)
			}
		}
	}
}

func TestCommutationFirstSteps(t *testing.T) {
	cfg := DefaultConfig()
	m, shared, _, driver := newTestCommutation(cfg)
	shared.PublishDuty(100, 100, PwmOn, false, true)
	driver.reset()

	m.Advance() // out of all-off: fixed A, PWM C
	m.Advance() // PWM C -> B

	want := []driverOp{
		{"high", PhaseA},
		{"float", PhaseC},
	}
	if diff := cmp.Diff(want, driver.ops); diff != "" {
		t.Errorf("Unexpected bridge ops (-want +got):\n%s", diff)
	}
	if shared.PwmPhase() != PhaseB {
		t.Errorf("Expected PWM on B, got %s", shared.PwmPhase())
	}
	if m.SensePhase() != PhaseC {
		t.Errorf("Expected to sense C, got %s", m.SensePhase())
	}
	if !m.ExpectRising() {
		t.Error("After a PWM move the released phase rises")
	}
}

func TestCommutationCarriesPwmOutput(t *testing.T) {
	cfg := DefaultConfig()
	m, shared, pwm, driver := newTestCommutation(cfg)
	shared.PublishDuty(100, 100, PwmOn, false, true)
	shared.SetMode(PwmOn)

	m.Advance()
	pwm.Overflow() // PWM C on
	driver.reset()

	m.Advance() // PWM moves to B while on
	want := []driverOp{
		{"float", PhaseC},
		{"low", PhaseB},
	}
	if diff := cmp.Diff(want, driver.ops); diff != "" {
		t.Errorf("Unexpected bridge ops (-want +got):\n%s", diff)
	}
}

func TestCommutationUnpoweredFixedSide(t *testing.T) {
	cfg := DefaultConfig()
	m, shared, _, driver := newTestCommutation(cfg)
	shared.PublishDuty(0, 855, PwmOff, false, false)

	m.Advance()
	if driver.high[PhaseA] {
		t.Error("Fixed side must stay off without power")
	}
	if m.FixedPhase() != PhaseA {
		t.Errorf("Fixed role should still move to A, got %s", m.FixedPhase())
	}
}

func TestCommutationCycleReturns(t *testing.T) {
	cfg := DefaultConfig()
	m, shared, _, _ := newTestCommutation(cfg)
	shared.PublishDuty(100, 100, PwmOn, false, true)

	m.Advance()
	fixed, pwmPhase, sense := m.FixedPhase(), shared.PwmPhase(), m.SensePhase()
	for i := 0; i < 6; i++ {
		m.Advance()
	}
	if m.FixedPhase() != fixed || shared.PwmPhase() != pwmPhase || m.SensePhase() != sense {
		t.Error("Six steps should return to the same state")
	}
	if m.Count() != 7 {
		t.Errorf("Expected 7 steps, got %d", m.Count())
	}

	m.Reset()
	if shared.PwmPhase() != PhaseNone || m.FixedPhase() != PhaseNone {
		t.Error("Reset should return to all-off")
	}
}
