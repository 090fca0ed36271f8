package core

// MockTimer is a polled TimerPort on a manually advanced clock
type MockTimer struct {
	now    uint32
	target uint32
	armed  bool
}

func (m *MockTimer) Now() uint32 { return m.now & TimerMask }

func (m *MockTimer) ArmCompare(t uint32) {
	m.target = t & TimerMask
	m.armed = true
}

func (m *MockTimer) AlarmPending() bool {
	return m.armed && Elapsed(m.target, m.Now())
}

func (m *MockTimer) ClearAlarm() { m.armed = false }

func (m *MockTimer) Advance(n uint32) { m.now = (m.now + n) & TimerMask }

// driverOp is one recorded PhaseDriver call
type driverOp struct {
	Op    string
	Phase Phase
}

// MockDriver records bridge calls and tracks FET states
type MockDriver struct {
	ops          []driverOp
	high, low    [3]bool
	shootThrough int
	comparator   [3]bool
	onSense      func()
}

func (m *MockDriver) DriveHigh(p Phase) {
	m.ops = append(m.ops, driverOp{"high", p})
	if m.low[p] {
		m.shootThrough++
	}
	m.high[p] = true
}

func (m *MockDriver) DriveLow(p Phase) {
	m.ops = append(m.ops, driverOp{"low", p})
	if m.high[p] {
		m.shootThrough++
	}
	m.low[p] = true
}

func (m *MockDriver) Float(p Phase) {
	m.ops = append(m.ops, driverOp{"float", p})
	m.high[p] = false
	m.low[p] = false
}

func (m *MockDriver) AllOff() {
	m.ops = append(m.ops, driverOp{"alloff", PhaseNone})
	m.high = [3]bool{}
	m.low = [3]bool{}
}

func (m *MockDriver) SenseEdge(p Phase) bool {
	if m.onSense != nil {
		m.onSense()
	}
	if p > PhaseC {
		return false
	}
	return m.comparator[p]
}

func (m *MockDriver) reset() { m.ops = nil }

// MockPwm records interrupt enable state
type MockPwm struct {
	enabled bool
}

func (m *MockPwm) EnableInterrupt()  { m.enabled = true }
func (m *MockPwm) DisableInterrupt() { m.enabled = false }

// MockLights records indicator state
type MockLights struct {
	green, red bool
}

func (m *MockLights) Green(on bool) { m.green = on }
func (m *MockLights) Red(on bool)   { m.red = on }

// newMockController wires a controller to mocks; the poll hook advances the
// clock by step ticks
func newMockController(cfg Config, step uint32) (*Controller, *MockTimer, *MockDriver, *MockPwm, *MockLights) {
	timer := &MockTimer{}
	driver := &MockDriver{}
	pwm := &MockPwm{}
	lights := &MockLights{}
	c, err := NewController(cfg, Hardware{Timer: timer, Phases: driver, Pwm: pwm, Indicator: lights})
	if err != nil {
		panic(err)
	}
	c.SetPollHook(func() { timer.Advance(step) })
	driver.onSense = func() { timer.Advance(1) }
	return c, timer, driver, pwm, lights
}
