//go:build linux

package main

import (
	"golang.org/x/sys/unix"

	"goesc/core"
)

// monoClock implements core.TimerPort on CLOCK_MONOTONIC. There is no
// compare interrupt: the scheduler polls AlarmPending in its busy waits.
type monoClock struct {
	mhz    uint64
	baseNs int64
	target uint32
	armed  bool
}

func newMonoClock(mhz uint32) *monoClock {
	c := &monoClock{mhz: uint64(mhz)}
	c.baseNs = c.nanos()
	return c
}

func (c *monoClock) nanos() int64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		panic(err)
	}
	return ts.Nano()
}

// Ticks returns the full-width tick count since start
func (c *monoClock) Ticks() uint64 {
	return uint64(c.nanos()-c.baseNs) * c.mhz / 1000
}

func (c *monoClock) Now() uint32 {
	return uint32(c.Ticks()) & core.TimerMask
}

func (c *monoClock) ArmCompare(t uint32) {
	c.target = t & core.TimerMask
	c.armed = true
}

func (c *monoClock) AlarmPending() bool {
	return c.armed && core.Elapsed(c.target, c.Now())
}

func (c *monoClock) ClearAlarm() {
	c.armed = false
}
