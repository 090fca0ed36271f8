package core

// commutationStep is one transition of the six-step cycle. Each step moves
// either the PWM role or the fixed role to another phase; the remaining phase
// floats and is watched for the next zero crossing.
type commutationStep struct {
	fixed     Phase
	pwm       Phase
	sense     Phase
	pwmChange bool // this step moved the PWM role
}

var (
	reverseSteps = [6]commutationStep{
		{fixed: PhaseB, pwm: PhaseA, sense: PhaseC, pwmChange: true},
		{fixed: PhaseC, pwm: PhaseA, sense: PhaseB},
		{fixed: PhaseC, pwm: PhaseB, sense: PhaseA, pwmChange: true},
		{fixed: PhaseA, pwm: PhaseB, sense: PhaseC},
		{fixed: PhaseA, pwm: PhaseC, sense: PhaseB, pwmChange: true},
		{fixed: PhaseB, pwm: PhaseC, sense: PhaseA},
	}
	forwardSteps = [6]commutationStep{
		{fixed: PhaseA, pwm: PhaseC, sense: PhaseB},
		{fixed: PhaseA, pwm: PhaseB, sense: PhaseC, pwmChange: true},
		{fixed: PhaseC, pwm: PhaseB, sense: PhaseA},
		{fixed: PhaseC, pwm: PhaseA, sense: PhaseB, pwmChange: true},
		{fixed: PhaseB, pwm: PhaseA, sense: PhaseC},
		{fixed: PhaseB, pwm: PhaseC, sense: PhaseA, pwmChange: true},
	}
)

// CommutationStateMachine steps the bridge through the six-step sequence.
// Before the first step all FETs are off.
type CommutationStateMachine struct {
	driver PhaseDriver
	shared *SharedControlState
	pwm    *PwmWaveformGenerator
	steps  *[6]commutationStep

	highSide bool
	index    int
	fixed    Phase
	sense    Phase
	count    uint32
}

// NewCommutationStateMachine creates the state machine for the configured
// rotation direction and PWM side
func NewCommutationStateMachine(cfg *Config, driver PhaseDriver, shared *SharedControlState, pwm *PwmWaveformGenerator) *CommutationStateMachine {
	m := &CommutationStateMachine{
		driver:   driver,
		shared:   shared,
		pwm:      pwm,
		steps:    &forwardSteps,
		highSide: cfg.HighSidePWM,
	}
	if cfg.Reverse {
		m.steps = &reverseSteps
	}
	m.Reset()
	return m
}

// Reset switches every FET off and returns to the start of the sequence
func (m *CommutationStateMachine) Reset() {
	state := disableInterrupts()
	m.pwm.reset()
	m.driver.AllOff()
	restoreInterrupts(state)
	m.index = 0
	m.fixed = PhaseNone
	m.sense = m.steps[5].sense
}

// Advance performs the next commutation step.
//
// Moving the PWM role is done with interrupts disabled so the PWM interrupt
// never drives a phase that has just been released. Moving the fixed role
// needs no masking: the interrupt never touches the fixed side.
func (m *CommutationStateMachine) Advance() {
	step := &m.steps[m.index]

	state := disableInterrupts()
	if step.pwmChange || m.shared.pwmPhase == PhaseNone {
		m.pwm.movePhase(step.pwm)
	}
	restoreInterrupts(state)

	// Out of all-off both roles are taken by the first step
	if !step.pwmChange || m.fixed == PhaseNone {
		if m.fixed != PhaseNone && m.fixed != step.fixed {
			m.driver.Float(m.fixed)
		}
		if m.shared.PowerOn() {
			m.driveFixed(step.fixed)
		}
	}
	m.fixed = step.fixed
	m.sense = step.sense
	m.index = (m.index + 1) % len(m.steps)
	m.count++
}

// the fixed side is the opposite rail to the PWM side
func (m *CommutationStateMachine) driveFixed(p Phase) {
	if m.highSide {
		m.driver.DriveLow(p)
	} else {
		m.driver.DriveHigh(p)
	}
}

// ExpectRising reports the zero-cross direction to wait for before the next
// step. The phase released by the last step was on the PWM side when that step
// moved the PWM role, so its back-EMF rises towards the star point; otherwise
// it falls.
func (m *CommutationStateMachine) ExpectRising() bool {
	prev := (m.index + len(m.steps) - 1) % len(m.steps)
	return m.steps[prev].pwmChange
}

// SensePhase returns the floating phase watched for the next crossing
func (m *CommutationStateMachine) SensePhase() Phase {
	return m.sense
}

// FixedPhase returns the phase currently holding the fixed role
func (m *CommutationStateMachine) FixedPhase() Phase {
	return m.fixed
}

// Count returns the number of steps taken since creation
func (m *CommutationStateMachine) Count() uint32 {
	return m.count
}
