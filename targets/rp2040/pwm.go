//go:build rp2040

package main

import (
	"device/rp"
	"runtime/interrupt"
)

// The PWM cycle timer is PWM slice 7 used as a bare 8-bit counter: no pins,
// TOP fixed at 255, clocked at the core tick rate. The wrap interrupt loads
// the preload the controller returns into the counter, exactly like reloading
// an 8-bit AVR timer.
const (
	pwmSlice = 7
	pwmTop   = 255

	// 125MHz / 7.8125 = 16MHz (8.4 fixed point)
	pwmDivInt  = 7
	pwmDivFrac = 13
)

// wrapPwm implements core.PwmPort on a PWM slice wrap interrupt
type wrapPwm struct{}

// InitPwmTimer configures the slice, leaving it stopped
func InitPwmTimer() *wrapPwm {
	rp.PWM.CH7_CSR.Set(0)
	rp.PWM.CH7_DIV.Set(pwmDivInt<<4 | pwmDivFrac)
	rp.PWM.CH7_TOP.Set(pwmTop)
	rp.PWM.INTR.Set(1 << pwmSlice)

	irq := interrupt.New(rp.IRQ_PWM_IRQ_WRAP, pwmWrapISR)
	irq.Enable()
	return &wrapPwm{}
}

// EnableInterrupt implements core.PwmPort
func (p *wrapPwm) EnableInterrupt() {
	rp.PWM.CH7_CTR.Set(0)
	rp.PWM.INTR.Set(1 << pwmSlice)
	rp.PWM.INTE.SetBits(1 << pwmSlice)
	rp.PWM.CH7_CSR.SetBits(rp.PWM_CH7_CSR_EN)
}

// DisableInterrupt implements core.PwmPort
func (p *wrapPwm) DisableInterrupt() {
	rp.PWM.INTE.ClearBits(1 << pwmSlice)
	rp.PWM.CH7_CSR.ClearBits(rp.PWM_CH7_CSR_EN)
	rp.PWM.INTR.Set(1 << pwmSlice)
}

func pwmWrapISR(interrupt.Interrupt) {
	rp.PWM.INTR.Set(1 << pwmSlice)
	if esc == nil {
		return
	}
	preload := esc.PwmInterrupt()
	rp.PWM.CH7_CTR.Set(uint32(preload))
}
