package core

import "testing"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config invalid: %v", err)
	}

	tests := []struct {
		name      string
		got, want uint32
	}{
		{"PowerRange", uint32(cfg.PowerRange), 856},
		{"MaxPower", uint32(cfg.MaxPower), 855},
		{"PwrMinStart", uint32(cfg.PwrMinStart), 142},
		{"PwrMaxStart", uint32(cfg.PwrMaxStart), 214},
		{"PwrCoolStart", uint32(cfg.PwrCoolStart), 35},
		{"ZcCheckMax", uint32(cfg.ZcCheckMax), 26},
		{"TimeoutStart", cfg.TimeoutStart, 768000},
		{"IntervalMin", cfg.IntervalMin, 512},
		{"IntervalMax", cfg.IntervalMax, 131072},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %d, want %d", tt.name, tt.got, tt.want)
		}
	}
}

func TestConfigForClockValid(t *testing.T) {
	for _, mhz := range []uint32{8, 16, 20, 32} {
		cfg := ConfigForClock(mhz)
		if err := cfg.Validate(); err != nil {
			t.Errorf("%dMHz: %v", mhz, err)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"zero clock", func(c *Config) { c.TimerMHz = 0 }, errConfigClock},
		{"min start above max", func(c *Config) { c.PwrMinStart = c.PwrMaxStart + 1 }, errConfigPower},
		{"max power out of range", func(c *Config) { c.MaxPower = c.PowerRange }, errConfigPower},
		{"advance", func(c *Config) { c.MotorAdvance = 31 }, errConfigAdvance},
		{"interval order", func(c *Config) { c.IntervalMin = c.IntervalMax }, errConfigInterval},
		{"interval width", func(c *Config) { c.IntervalMax = 0x200000 }, errConfigInterval},
		{"governor", func(c *Config) { c.SafetyGovernor = c.IntervalMax }, errConfigInterval},
		{"zc order", func(c *Config) { c.ZcCheckFast = c.ZcCheckMax + 1 }, errConfigZc},
		{"timeout", func(c *Config) { c.TimeoutStart = 0x800000 }, errConfigTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			if err := cfg.Validate(); err != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestNewControllerRejects(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MotorAdvance = 40
	if _, err := NewController(cfg, Hardware{Timer: &MockTimer{}, Phases: &MockDriver{}, Pwm: &MockPwm{}}); err == nil {
		t.Error("Expected invalid config to be rejected")
	}
	if _, err := NewController(DefaultConfig(), Hardware{Timer: &MockTimer{}}); err != errNoHardware {
		t.Errorf("Expected errNoHardware, got %v", err)
	}
}
