package core

import (
	"errors"
	"testing"
)

// poweredController returns a controller mid-start with power applied
func poweredController(cfg Config) *Controller {
	c, _, _, _, _ := newMockController(cfg, 1000)
	c.start.Starting = true
	c.shared.PublishDuty(100, 755, PwmOnHigh, false, true)
	c.duty.SetRateLimited(200)
	return c
}

func TestGoodiesThresholdEntersRunning(t *testing.T) {
	cfg := DefaultConfig()
	c := poweredController(cfg)
	c.start.Goodies = cfg.EnoughGoodies - 1

	if out := c.supervisor.evaluate(); out != outcomeContinue {
		t.Fatalf("Expected continue, got %d", out)
	}
	if c.start.Goodies != cfg.EnoughGoodies {
		t.Fatalf("Expected goodies %d, got %d", cfg.EnoughGoodies, c.start.Goodies)
	}
	if !c.start.Starting || c.supervisor.State() != StateStarting {
		t.Fatal("Still starting until the next evaluation")
	}
	// 200 + (856+47)/48, capped at PwrMaxStart
	if got := c.duty.RateLimited(); got != cfg.PwrMaxStart {
		t.Errorf("Expected rate limit %d, got %d", cfg.PwrMaxStart, got)
	}

	c.supervisor.evaluate()
	if c.start.Starting {
		t.Error("Enough goodies should leave startup")
	}
	if c.supervisor.State() != StateRunning {
		t.Errorf("Expected running, got %s", c.supervisor.State())
	}
	if got, want := c.duty.RateLimited(), cfg.PwrMaxStart+(cfg.PowerRange+31)/32; got != want {
		t.Errorf("Expected running ramp to %d, got %d", want, got)
	}
}

func TestRunningRampCapsAtMaxPower(t *testing.T) {
	cfg := DefaultConfig()
	c := poweredController(cfg)
	c.start.Goodies = cfg.EnoughGoodies
	c.duty.SetRateLimited(cfg.MaxPower - 5)

	c.supervisor.evaluate()
	if got := c.duty.RateLimited(); got != cfg.MaxPower {
		t.Errorf("Expected rate limit capped at %d, got %d", cfg.MaxPower, got)
	}
}

func TestStartModulationFails(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StartModInc = 128
	cfg.StartFailInc = 128
	c := poweredController(cfg)

	for i := 1; i <= 3; i++ {
		if out := c.supervisor.evaluate(); out != outcomeContinue {
			t.Fatalf("Evaluation %d: expected continue, got %d", i, out)
		}
	}
	// After a failed modulation round the cool limit applies
	if got := c.duty.RateLimited(); got > cfg.PwrCoolStart {
		t.Errorf("Expected rate limit at most %d, got %d", cfg.PwrCoolStart, got)
	}
	if out := c.supervisor.evaluate(); out != outcomeFailed {
		t.Fatalf("Evaluation 4: expected failure, got %d", out)
	}
}

func TestStallPenalty(t *testing.T) {
	cfg := DefaultConfig()
	c, timer, _, pwm, _ := newMockController(cfg, 1000)
	var elapsed uint64
	c.SetPollHook(func() {
		timer.Advance(1000)
		elapsed += 1000
	})
	c.supervisor.pwmPort.EnableInterrupt()
	c.start.Goodies = 0
	c.shared.PublishDuty(0, cfg.MaxPower, PwmOff, false, false)
	c.duty.SetRateLimited(100)

	if out := c.supervisor.evaluate(); out != outcomeRestart {
		t.Fatalf("Expected restart, got %d", out)
	}
	if c.supervisor.State() != StateStalled {
		t.Errorf("Expected stalled, got %s", c.supervisor.State())
	}
	if want := uint64(cfg.StallPenaltyMs) * uint64(cfg.ticksPerMs()); elapsed < want {
		t.Errorf("Expected a %dms penalty (%d ticks), waited %d", cfg.StallPenaltyMs, want, elapsed)
	}
	if pwm.enabled {
		t.Error("Power should be off during the penalty")
	}
}

func TestRateLimitZeroStartsOver(t *testing.T) {
	c := poweredController(DefaultConfig())
	c.duty.SetRateLimited(0)
	if out := c.supervisor.evaluate(); out != outcomeStartOver {
		t.Errorf("Expected start over, got %d", out)
	}
}

func TestStartFromRunningInitializes(t *testing.T) {
	cfg := DefaultConfig()
	c, _, _, pwm, _ := newMockController(cfg, 100)
	c.start.StartDelay = 45
	c.start.StartFail = 16

	c.supervisor.StartFromRunning()

	st := c.start
	if !st.Starting || st.StartDelay != 0 || st.StartFail != 0 || st.StartModulate != 0 {
		t.Errorf("Start counters not reset: %+v", st)
	}
	if st.PowerSkip != cfg.PowerSkipStart || st.Goodies != cfg.EnoughGoodies {
		t.Errorf("Expected power skip %d and goodies %d, got %+v", cfg.PowerSkipStart, cfg.EnoughGoodies, st)
	}
	if !c.duty.State().Tracking {
		t.Error("Throttle tracking should be on")
	}
	if !pwm.enabled {
		t.Error("PWM interrupt should be running")
	}
	if c.signal.Lost() {
		t.Error("Watchdog should be reloaded")
	}
}

func TestRunIdleWithoutSignal(t *testing.T) {
	c, _, driver, pwm, lights := newMockController(DefaultConfig(), 100)
	polls := 0
	c.SetPollHook(func() { polls++ })
	c.SetStopHook(func() bool { return polls > 50 })

	if err := c.Run(); err != nil {
		t.Fatalf("Run returned %v", err)
	}
	if c.Status().State != StateIdle {
		t.Errorf("Expected idle, got %s", c.Status().State)
	}
	if pwm.enabled || driver.high != [3]bool{} || driver.low != [3]bool{} {
		t.Error("Bridge must be off while idle")
	}
	if !lights.green || lights.red {
		t.Error("Idle shows green only")
	}
}

func TestRunStartFailure(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StartModInc = 128
	cfg.StartFailInc = 128
	cfg.IntervalMin = 16
	c, timer, _, pwm, _ := newMockController(cfg, 100)
	c.SetPollHook(func() {
		timer.Advance(100)
		c.SetThrottle(400)
	})
	c.SetStopHook(func() bool { return c.Status().State == StateFailed })

	err := c.Run()
	if !errors.Is(err, ErrStartFailed) {
		t.Fatalf("Expected ErrStartFailed, got %v", err)
	}
	if pwm.enabled {
		t.Error("Power should be off after a failed start")
	}

	found := false
	for _, evt := range Events() {
		if evt.EventType == EvtStartFailed {
			found = true
		}
	}
	if !found {
		t.Error("Start failure should be in the event ring")
	}
}
