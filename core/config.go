package core

import "errors"

// DefaultTimerMHz is the commutation timer frequency the defaults are tuned for
const DefaultTimerMHz = 16

// Config holds the compile-time tuning of the controller. All durations are
// in commutation-timer ticks unless the field name says otherwise.
type Config struct {
	TimerMHz uint32 `yaml:"timer_mhz"`

	// PWM resolution. MaxPower is full throttle, one below PowerRange.
	PowerRange   uint16 `yaml:"power_range"`
	MaxPower     uint16 `yaml:"max_power"`
	PwrMinStart  uint16 `yaml:"pwr_min_start"`
	PwrMaxStart  uint16 `yaml:"pwr_max_start"`
	PwrCoolStart uint16 `yaml:"pwr_cool_start"`
	PwrMaxRpm1   uint16 `yaml:"pwr_max_rpm1"`

	// MotorAdvance is the timing advance in electrical degrees (0-30, 30 means no delay)
	MotorAdvance uint8 `yaml:"motor_advance"`

	// Commutation interval limits. IntervalMin is the absolute max-speed floor,
	// SafetyGovernor an optional higher floor.
	IntervalMin       uint32 `yaml:"interval_min"`
	IntervalMax       uint32 `yaml:"interval_max"`
	SafetyGovernor    uint32 `yaml:"safety_governor"`
	DutyLimitInterval uint32 `yaml:"duty_limit_interval"`

	// Zero-cross filter widths, in comparator samples
	ZcCheckMin     uint8 `yaml:"zc_check_min"`
	ZcCheckFast    uint8 `yaml:"zc_check_fast"`
	ZcCheckMax     uint8 `yaml:"zc_check_max"`
	StartupZcCheck uint8 `yaml:"startup_zc_check"`

	// Startup
	TimeoutStart   uint32 `yaml:"timeout_start"`
	StartDelay     uint32 `yaml:"start_delay"`
	StartDelayStep uint32 `yaml:"start_delay_step"`
	StartDelayInc  uint8  `yaml:"start_delay_inc"`
	StartModInc    uint8  `yaml:"start_mod_inc"`
	StartModLimit  uint8  `yaml:"start_mod_limit"`
	StartFailInc   uint8  `yaml:"start_fail_inc"`
	EnoughGoodies  uint8  `yaml:"enough_goodies"`
	PowerSkipStart uint8  `yaml:"power_skip_start"`

	// RC signal watchdog, in scheduler ticks (16 timer overflows)
	RcpTot       uint8 `yaml:"rcp_tot"`
	RcTimeoutMax uint8 `yaml:"rc_timeout_max"`

	StallPenaltyMs uint32 `yaml:"stall_penalty_ms"`
	FailFlashMs    uint32 `yaml:"fail_flash_ms"`

	HighSidePWM bool `yaml:"high_side_pwm"`
	Reverse     bool `yaml:"reverse"`
}

var (
	errConfigPower    = errors.New("config: power levels must satisfy 0 < pwr_min_start <= pwr_max_start <= max_power < power_range")
	errConfigAdvance  = errors.New("config: motor_advance must be within 0-30 degrees")
	errConfigInterval = errors.New("config: interval limits out of range")
	errConfigZc       = errors.New("config: zero-cross check widths must satisfy 0 < min <= fast <= max")
	errConfigTimeout  = errors.New("config: timeout_start does not fit the 24-bit timer")
	errConfigClock    = errors.New("config: timer_mhz must be non-zero")
	errNoHardware     = errors.New("esc: timer, phase driver and PWM ports are required")
)

// DefaultConfig returns the tuning for a 16MHz commutation timer
func DefaultConfig() Config {
	return ConfigForClock(DefaultTimerMHz)
}

// ConfigForClock derives every tick-based constant from the timer frequency
func ConfigForClock(mhz uint32) Config {
	minDuty := 56 * mhz / 16
	powerRange := uint16(800*mhz/16 + minDuty)
	startupCheck := 0xFF * mhz / 16
	if startupCheck > 0xFF {
		startupCheck = 0xFF
	}

	return Config{
		TimerMHz: mhz,

		PowerRange:   powerRange,
		MaxPower:     powerRange - 1,
		PwrMinStart:  powerRange / 6,
		PwrMaxStart:  powerRange / 4,
		PwrCoolStart: powerRange / 24,
		PwrMaxRpm1:   powerRange / 4,

		MotorAdvance: 13,

		IntervalMin:       0x80 * mhz / 4,   // 32us per commutation
		IntervalMax:       0x8000 * mhz / 4, // 8192us per commutation
		DutyLimitInterval: 0x1000 * mhz / 4, // 1024us per commutation

		ZcCheckMin:     3,
		ZcCheckFast:    12,
		ZcCheckMax:     uint8(powerRange / 32),
		StartupZcCheck: uint8(startupCheck),

		TimeoutStart:   48000 * mhz,
		StartDelay:     0,
		StartDelayStep: 8 * mhz,
		StartDelayInc:  15,
		StartModInc:    4,
		StartModLimit:  48,
		StartFailInc:   16,
		EnoughGoodies:  12,
		PowerSkipStart: 6,

		RcpTot:       2,
		RcTimeoutMax: 12,

		StallPenaltyMs: 4000,
		FailFlashMs:    2000,
	}
}

// Validate checks the invariants the fixed-point arithmetic relies on
func (c *Config) Validate() error {
	if c.TimerMHz == 0 {
		return errConfigClock
	}
	if c.PwrMinStart == 0 || c.PwrMinStart > c.PwrMaxStart || c.PwrMaxStart > c.MaxPower ||
		c.PwrCoolStart > c.PwrMaxStart || c.MaxPower >= c.PowerRange {
		return errConfigPower
	}
	if c.MotorAdvance > 30 {
		return errConfigAdvance
	}
	if c.IntervalMin == 0 || c.IntervalMin >= c.IntervalMax || c.IntervalMax > 0x100000 ||
		c.SafetyGovernor >= c.IntervalMax {
		return errConfigInterval
	}
	if c.ZcCheckMin == 0 || c.ZcCheckMin > c.ZcCheckFast || c.ZcCheckFast > c.ZcCheckMax {
		return errConfigZc
	}
	if c.TimeoutStart == 0 || c.TimeoutStart >= 0x800000 {
		return errConfigTimeout
	}
	return nil
}

// intervalFloor is the shortest commutation interval accepted
func (c *Config) intervalFloor() uint32 {
	if c.SafetyGovernor > c.IntervalMin {
		return c.SafetyGovernor
	}
	return c.IntervalMin
}

// halvesStartupPwm reports whether the PWM period is doubled while starting.
// Only worth it at high PWM frequencies (short POWER_RANGE).
func (c *Config) halvesStartupPwm() bool {
	return uint32(c.PowerRange) < 1700*c.TimerMHz/16
}

// ticksPerMs converts the delay hooks' milliseconds to timer ticks
func (c *Config) ticksPerMs() uint32 {
	return c.TimerMHz * 1000
}
