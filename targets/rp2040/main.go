//go:build rp2040

package main

import (
	"machine"
	"time"

	"goesc/core"
	"goesc/targets/pio"
)

const tonePin = machine.GPIO12

// Beacon timing, in microseconds
const (
	beaconSilence = 3_000_000 // no pulses for this long starts the beacon
	beaconEvery   = 1_000_000
)

// Power-up tones, lowest first
var armingTones = [4]uint32{1568, 1760, 1976, 2093}

var (
	// esc is read by the interrupt handlers
	esc *core.Controller

	maxPower   uint16
	tone       *pio.ToneGenerator
	lastPulse  uint32
	lastBeacon uint32
)

func main() {
	// Gates low before anything else
	phases := InitBridge()

	// CRITICAL: Disable watchdog on boot to clear any previous state
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	core.SetDebugWriter(func(s string) {
		machine.Serial.Write([]byte(s))
		machine.Serial.Write([]byte("\r\n"))
	})
	core.SetDebugEnabled(true)
	core.InitAsyncDebug()

	status := InitStatus()
	tone = pio.NewToneGenerator(0, 0)
	if err := tone.Init(tonePin); err != nil {
		core.DebugPrintln("[ESC] tone generator unavailable: " + err.Error())
	}
	for _, hz := range armingTones {
		tone.Play(hz, 120)
		time.Sleep(150 * time.Millisecond)
	}

	c, err := core.NewController(core.DefaultConfig(), core.Hardware{
		Timer:     InitClock(),
		Phases:    phases,
		Pwm:       InitPwmTimer(),
		Indicator: status,
	})
	if err != nil {
		core.DebugPrintln("[ESC] bad configuration: " + err.Error())
		for {
			status.Red(true)
			time.Sleep(time.Second)
		}
	}
	esc = c
	maxPower = c.Config().MaxPower

	if err := InitRCInput(); err != nil {
		core.DebugPrintln("[ESC] RC input unavailable: " + err.Error())
	}
	lastPulse = Uptime()
	c.SetPollHook(poll)

	core.DebugAsync("[ESC] ready")
	c.Run()
}

// poll runs in every busy wait of the control loop: it forwards RC pulses
// and paces the lost-signal beacon
func poll() {
	now := Uptime()
	if w, ok := rc.next(); ok {
		lastPulse = now
		esc.SetThrottle(pulseToThrottle(w, maxPower))
		return
	}
	if now-lastPulse > beaconSilence && now-lastBeacon > beaconEvery {
		lastBeacon = now
		tone.Play(armingTones[0], 80)
	}
}
