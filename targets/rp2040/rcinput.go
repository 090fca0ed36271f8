//go:build rp2040

package main

import (
	"machine"
	"sync/atomic"
)

const rcPin = machine.GPIO11

// Servo pulse limits in microseconds
const (
	rcStopPulse = 1060 // at or below: stop
	rcFullPulse = 1860 // at or above: full power
	rcMinValid  = 800
	rcMaxValid  = 2200
)

// rcInput measures servo pulse widths in the pin-change interrupt and hands
// them to the foreground. The controller is only fed from the foreground.
type rcInput struct {
	riseAt uint32
	width  atomic.Uint32
	seq    atomic.Uint32
	seen   uint32
}

var rc rcInput

// InitRCInput starts measuring pulses on rcPin
func InitRCInput() error {
	rcPin.Configure(machine.PinConfig{Mode: machine.PinInputPulldown})
	return rcPin.SetInterrupt(machine.PinRising|machine.PinFalling, rcEdge)
}

func rcEdge(p machine.Pin) {
	now := Uptime()
	if p.Get() {
		rc.riseAt = now
		return
	}
	w := now - rc.riseAt
	if w < rcMinValid || w > rcMaxValid {
		return
	}
	rc.width.Store(w)
	rc.seq.Add(1)
}

// next returns the latest pulse width if a new one arrived since the last call
func (r *rcInput) next() (uint32, bool) {
	s := r.seq.Load()
	if s == r.seen {
		return 0, false
	}
	r.seen = s
	return r.width.Load(), true
}

// pulseToThrottle maps a pulse width onto [0, maxPower]
func pulseToThrottle(w uint32, maxPower uint16) uint16 {
	if w <= rcStopPulse {
		return 0
	}
	if w >= rcFullPulse {
		return maxPower
	}
	return uint16((w - rcStopPulse) * uint32(maxPower) / (rcFullPulse - rcStopPulse))
}
