//go:build rp2040

package pio

// PIO tone generator for the arming tones and the signal-loss beacon.
// The state machine toggles a piezo pin; pitch comes from the clock divider
// so the program needs no per-cycle delay register.

import (
	"machine"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// Command word: number of square-wave periods minus one.
//
// Program flow:
//  1. Pull the period count into X
//  2. Drive the pin high for 32 cycles, low for 32 cycles
//  3. Repeat until X runs out, then block on the next pull
//
// buildToneProgram creates the tone PIO program using AssemblerV0
func buildToneProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		asm.Pull(false, true).Encode(),        // 0: pull block
		asm.Out(rp2pio.OutDestX, 32).Encode(), // 1: out x, 32 (periods)
		// tone_loop:
		asm.Set(rp2pio.SetDestPins, 1).Delay(31).Encode(), // 2: set pins, 1 [31]
		asm.Set(rp2pio.SetDestPins, 0).Delay(30).Encode(), // 3: set pins, 0 [30]
		asm.Jmp(2, rp2pio.JmpXNZeroDec).Encode(),          // 4: jmp x--, 2
		// .wrap
	}
}

const toneOrigin = 0 // Load at offset 0 for correct jump addresses

// cyclesPerPeriod is the instruction count of one square-wave period
const cyclesPerPeriod = 64

// ToneGenerator plays square-wave tones on one pin from a PIO state machine
type ToneGenerator struct {
	pio    *rp2pio.PIO
	sm     rp2pio.StateMachine
	pin    machine.Pin
	offset uint8
	loaded bool
}

// NewToneGenerator claims state machine smNum of PIO block pioNum
// (0 for PIO0, 1 for PIO1)
func NewToneGenerator(pioNum, smNum uint8) *ToneGenerator {
	var pioHW *rp2pio.PIO
	if pioNum == 0 {
		pioHW = rp2pio.PIO0
	} else {
		pioHW = rp2pio.PIO1
	}
	return &ToneGenerator{
		pio: pioHW,
		sm:  pioHW.StateMachine(smNum),
	}
}

// Init loads the program and configures pin as the tone output
func (g *ToneGenerator) Init(pin machine.Pin) error {
	g.pin = pin
	g.sm.TryClaim()

	offset, err := g.pio.AddProgram(buildToneProgram(), toneOrigin)
	if err != nil {
		return err
	}
	g.offset = offset
	g.loaded = true

	g.pin.Configure(machine.PinConfig{Mode: g.pio.PinMode()})
	g.configure(1000)
	return nil
}

// configure (re)initializes the state machine for a tone frequency in Hz.
// The state machine must be disabled.
func (g *ToneGenerator) configure(hz uint32) {
	div := machine.CPUFrequency() / (cyclesPerPeriod * hz)
	if div > 0xFFFF {
		div = 0xFFFF
	}
	if div == 0 {
		div = 1
	}

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetSetPins(g.pin, 1)
	cfg.SetOutShift(true, false, 32)
	cfg.SetWrap(g.offset+uint8(len(buildToneProgram()))-1, g.offset)
	cfg.SetClkDivIntFrac(uint16(div), 0)

	g.sm.Init(g.offset, cfg)
	g.sm.SetPindirsConsecutive(g.pin, 1, true)
	g.sm.SetPinsConsecutive(g.pin, 1, false)
}

// Play starts a tone of hz for ms milliseconds and returns at once.
// A tone still playing is cut off.
func (g *ToneGenerator) Play(hz, ms uint32) {
	if !g.loaded || hz == 0 || ms == 0 {
		return
	}
	g.sm.SetEnabled(false)
	g.configure(hz)
	g.sm.SetEnabled(true)

	periods := hz * ms / 1000
	if periods == 0 {
		periods = 1
	}
	for g.sm.IsTxFIFOFull() {
	}
	g.sm.TxPut(periods - 1)
}

// Stop silences the output
func (g *ToneGenerator) Stop() {
	if !g.loaded {
		return
	}
	g.sm.SetEnabled(false)
	g.sm.SetPinsConsecutive(g.pin, 1, false)
}
