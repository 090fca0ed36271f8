package sim

import "goesc/core"

// Timer simulates the ESC's timer hardware: a free-running 16-bit counter
// with an overflow flag and one compare channel, widened to 24 bits by a
// core.TimerExtension, plus the 8-bit PWM cycle timer on the same clock.
//
// Interrupts are delivered synchronously from Advance. While a core critical
// section is open their flags stay raised and are delivered by the next
// Advance, as on hardware.
type Timer struct {
	ext core.TimerExtension

	ticks   uint64 // absolute ticks since start
	counter uint16
	ovfFlag bool

	cmp     uint16
	cmpFlag bool
	armed   bool

	pwmEnabled bool
	pwmNext    uint64
	pwmFlag    bool

	// Interrupt handlers
	OnCompare func()
	OnTick    func()
	OnPwm     func() uint8

	// OnAdvance is called after every step of simulated time
	OnAdvance func(now uint64)

	Overflows      uint64
	PwmInterrupts  uint64
	DeferredEvents uint64
}

// Ticks returns the simulated time in timer ticks
func (t *Timer) Ticks() uint64 {
	return t.ticks
}

// Advance runs the clock forward by n ticks, raising and delivering
// interrupts at the exact ticks they occur
func (t *Timer) Advance(n uint64) {
	for n > 0 {
		step := uint64(0x10000 - uint32(t.counter))
		if t.armed {
			d := uint64(t.cmp - t.counter)
			if d == 0 {
				d = 0x10000
			}
			if d < step {
				step = d
			}
		}
		if t.pwmEnabled && t.pwmNext > t.ticks {
			if d := t.pwmNext - t.ticks; d < step {
				step = d
			}
		}
		if step > n {
			step = n
		}

		t.ticks += step
		n -= step
		if uint32(t.counter)+uint32(step) >= 0x10000 {
			t.ovfFlag = true
			t.Overflows++
		}
		t.counter += uint16(step)
		if t.armed && t.counter == t.cmp {
			t.cmpFlag = true
		}
		if t.pwmEnabled && t.ticks >= t.pwmNext {
			t.pwmFlag = true
		}

		if t.OnAdvance != nil {
			t.OnAdvance(t.ticks)
		}
		t.deliver()
	}
}

// deliver runs the interrupt handlers for raised flags
func (t *Timer) deliver() {
	if core.InCriticalSection() {
		if t.ovfFlag || t.cmpFlag || t.pwmFlag {
			t.DeferredEvents++
		}
		return
	}
	if t.ovfFlag {
		t.ovfFlag = false
		if t.ext.Overflow() && t.OnTick != nil {
			t.OnTick()
		}
	}
	if t.cmpFlag {
		t.cmpFlag = false
		if t.ext.CompareMatch() {
			t.armed = false
			if t.OnCompare != nil {
				t.OnCompare()
			}
		}
	}
	if t.pwmFlag {
		t.pwmFlag = false
		t.PwmInterrupts++
		var preload uint8
		if t.OnPwm != nil {
			preload = t.OnPwm()
		}
		t.pwmNext = t.ticks + 256 - uint64(preload)
	}
}

// Now implements core.TimerPort
func (t *Timer) Now() uint32 {
	return t.ext.Extend(t.counter, t.ovfFlag)
}

// ArmCompare implements core.TimerPort
func (t *Timer) ArmCompare(target uint32) {
	t.cmp = uint16(target)
	t.ext.Arm(target, t.Now())
	t.cmpFlag = false
	t.armed = true
}

// AlarmPending implements core.TimerPort. The simulated compare always
// interrupts, so there is never anything for the foreground to service.
func (t *Timer) AlarmPending() bool {
	return false
}

// ClearAlarm implements core.TimerPort
func (t *Timer) ClearAlarm() {
	t.cmpFlag = false
}

// PwmPort returns the PWM cycle timer view of t
func (t *Timer) PwmPort() core.PwmPort {
	return pwmPort{t}
}

// PwmEnabled reports whether the PWM overflow interrupt is running
func (t *Timer) PwmEnabled() bool {
	return t.pwmEnabled
}

type pwmPort struct {
	t *Timer
}

func (p pwmPort) EnableInterrupt() {
	if p.t.pwmEnabled {
		return
	}
	p.t.pwmEnabled = true
	p.t.pwmNext = p.t.ticks + 256
}

func (p pwmPort) DisableInterrupt() {
	p.t.pwmEnabled = false
	p.t.pwmFlag = false
}
