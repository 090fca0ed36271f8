//go:build rp2040

package main

import (
	"image/color"
	"machine"

	"tinygo.org/x/drivers/ws2812"
)

const statusPin = machine.GPIO16

var (
	colorOff   = color.RGBA{}
	colorGreen = color.RGBA{G: 0x20}
	colorRed   = color.RGBA{R: 0x20}
	colorAmber = color.RGBA{R: 0x20, G: 0x10}
)

// pixelStatus implements core.Indicator on a single WS2812 pixel: green,
// red, or amber when both lights are on.
type pixelStatus struct {
	dev        ws2812.Device
	green, red bool
	buf        [1]color.RGBA
}

// InitStatus configures the pixel and switches it off
func InitStatus() *pixelStatus {
	statusPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	s := &pixelStatus{dev: ws2812.New(statusPin)}
	s.show()
	return s
}

func (s *pixelStatus) Green(on bool) {
	if s.green != on {
		s.green = on
		s.show()
	}
}

func (s *pixelStatus) Red(on bool) {
	if s.red != on {
		s.red = on
		s.show()
	}
}

func (s *pixelStatus) show() {
	switch {
	case s.green && s.red:
		s.buf[0] = colorAmber
	case s.green:
		s.buf[0] = colorGreen
	case s.red:
		s.buf[0] = colorRed
	default:
		s.buf[0] = colorOff
	}
	s.dev.WriteColors(s.buf[:])
}
