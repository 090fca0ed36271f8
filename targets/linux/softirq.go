//go:build linux

package main

import "goesc/core"

// softIRQ stands in for the PWM overflow and scheduler tick interrupts on a
// board without them. It runs from the control loop's busy waits and from
// every comparator read, and holds back while a critical section is open.
type softIRQ struct {
	clock *monoClock
	esc   *core.Controller

	pwmOn   bool
	pwmNext uint64
	tick    uint64
	rcNext  uint64
	rcEvery uint64

	// feed supplies the next throttle command at the RC frame rate
	feed func() (uint16, bool)

	pwmCount uint64
}

const tickTicks = 16 << 16

func (s *softIRQ) EnableInterrupt() {
	s.pwmOn = true
	s.pwmNext = s.clock.Ticks()
}

func (s *softIRQ) DisableInterrupt() {
	s.pwmOn = false
}

func (s *softIRQ) service() {
	if s.esc == nil || core.InCriticalSection() {
		return
	}
	now := s.clock.Ticks()

	if s.pwmOn && now >= s.pwmNext {
		s.pwmCount++
		preload := s.esc.PwmInterrupt()
		s.pwmNext = now + 256 - uint64(preload)
	}
	if now >= s.tick+tickTicks {
		s.tick += tickTicks
		s.esc.SchedulerTick()
	}
	if s.feed != nil && now >= s.rcNext {
		s.rcNext = now + s.rcEvery
		if v, ok := s.feed(); ok {
			s.esc.SetThrottle(v)
		}
	}
}
