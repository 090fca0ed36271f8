//go:build rp2040

package main

import (
	"device/rp"
	"runtime/interrupt"

	"goesc/core"
)

// The commutation clock is the RP2040 1MHz TIMER scaled to the core's tick
// rate, so Now advances in steps of ticksPerUs. ALARM0 belongs to the TinyGo
// runtime; ALARM2 is the commutation compare and ALARM3 the scheduler tick.
const (
	ticksPerUs = core.DefaultTimerMHz

	compareAlarm = 2
	tickAlarm    = 3

	// tickPeriodUs is 16 overflows of a 16-bit counter at the core tick rate
	tickPeriodUs = 16 << 16 / ticksPerUs
)

// alarmTimer implements core.TimerPort on the RP2040 TIMER peripheral
type alarmTimer struct{}

// InitClock enables the compare and scheduler tick alarms. The handlers call
// into esc, which must be set before the first alarm is armed.
func InitClock() *alarmTimer {
	rp.TIMER.INTR.Set(1<<compareAlarm | 1<<tickAlarm)
	rp.TIMER.INTE.SetBits(1<<compareAlarm | 1<<tickAlarm)

	compare := interrupt.New(rp.IRQ_TIMER_IRQ_2, compareISR)
	compare.Enable()
	tick := interrupt.New(rp.IRQ_TIMER_IRQ_3, tickISR)
	tick.Enable()

	rp.TIMER.ALARM3.Set(rp.TIMER.TIMERAWL.Get() + tickPeriodUs)
	return &alarmTimer{}
}

// Now implements core.TimerPort
func (t *alarmTimer) Now() uint32 {
	return (rp.TIMER.TIMERAWL.Get() * ticksPerUs) & core.TimerMask
}

// ArmCompare implements core.TimerPort. Targets are rounded up to the next
// microsecond; a target in the past is armed one microsecond out.
func (t *alarmTimer) ArmCompare(target uint32) {
	raw := rp.TIMER.TIMERAWL.Get()
	d := (target - raw*ticksPerUs) & core.TimerMask
	if d >= 0x800000 {
		d = 0
	}
	us := (d + ticksPerUs - 1) / ticksPerUs
	if us == 0 {
		us = 1
	}
	rp.TIMER.INTR.Set(1 << compareAlarm)
	rp.TIMER.ALARM2.Set(raw + us)
}

// AlarmPending implements core.TimerPort
func (t *alarmTimer) AlarmPending() bool {
	return rp.TIMER.INTR.Get()&(1<<compareAlarm) != 0
}

// ClearAlarm implements core.TimerPort
func (t *alarmTimer) ClearAlarm() {
	rp.TIMER.INTR.Set(1 << compareAlarm)
}

// Uptime returns the raw microsecond counter
func Uptime() uint32 {
	return rp.TIMER.TIMERAWL.Get()
}

func compareISR(interrupt.Interrupt) {
	rp.TIMER.INTR.Set(1 << compareAlarm)
	if esc != nil {
		esc.CompareInterrupt()
	}
}

func tickISR(interrupt.Interrupt) {
	rp.TIMER.INTR.Set(1 << tickAlarm)
	rp.TIMER.ALARM3.Set(rp.TIMER.ALARM3.Get() + tickPeriodUs)
	if esc != nil {
		esc.SchedulerTick()
	}
}
