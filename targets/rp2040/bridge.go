//go:build rp2040

package main

import (
	"machine"

	"goesc/core"
)

// Gate driver and comparator wiring
var (
	highPins  = [3]machine.Pin{machine.GPIO2, machine.GPIO3, machine.GPIO4}
	lowPins   = [3]machine.Pin{machine.GPIO5, machine.GPIO6, machine.GPIO7}
	sensePins = [3]machine.Pin{machine.GPIO8, machine.GPIO9, machine.GPIO10}
)

// gpioBridge implements core.PhaseDriver on six gate-driver inputs and three
// back-EMF comparator outputs
type gpioBridge struct{}

// InitBridge configures every gate low before anything else runs
func InitBridge() *gpioBridge {
	for i := range highPins {
		highPins[i].Configure(machine.PinConfig{Mode: machine.PinOutput})
		highPins[i].Low()
		lowPins[i].Configure(machine.PinConfig{Mode: machine.PinOutput})
		lowPins[i].Low()
		sensePins[i].Configure(machine.PinConfig{Mode: machine.PinInput})
	}
	return &gpioBridge{}
}

func (b *gpioBridge) DriveHigh(p core.Phase) {
	if p <= core.PhaseC {
		highPins[p].High()
	}
}

func (b *gpioBridge) DriveLow(p core.Phase) {
	if p <= core.PhaseC {
		lowPins[p].High()
	}
}

func (b *gpioBridge) Float(p core.Phase) {
	if p <= core.PhaseC {
		highPins[p].Low()
		lowPins[p].Low()
	}
}

func (b *gpioBridge) AllOff() {
	for i := range highPins {
		highPins[i].Low()
		lowPins[i].Low()
	}
}

func (b *gpioBridge) SenseEdge(p core.Phase) bool {
	if p > core.PhaseC {
		return false
	}
	return sensePins[p].Get()
}
