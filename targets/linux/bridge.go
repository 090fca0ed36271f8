//go:build linux

package main

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"goesc/core"
)

const consumer = "goesc"

// lineBridge implements core.PhaseDriver on GPIO character device lines.
// Every call first gives the soft interrupts a chance to run, the way a
// hardware interrupt would preempt between two instructions.
type lineBridge struct {
	chip  *gpiocdev.Chip
	high  [3]*gpiocdev.Line
	low   [3]*gpiocdev.Line
	sense [3]*gpiocdev.Line
	irq   *softIRQ
	err   error
}

// bridgePins holds line offsets on the chip
type bridgePins struct {
	High, Low, Sense [3]int
}

func openBridge(chipPath string, pins bridgePins, irq *softIRQ) (*lineBridge, error) {
	chip, err := gpiocdev.NewChip(chipPath, gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", chipPath, err)
	}
	b := &lineBridge{chip: chip, irq: irq}
	for i := 0; i < 3; i++ {
		if b.high[i], err = chip.RequestLine(pins.High[i], gpiocdev.AsOutput(0)); err != nil {
			b.Close()
			return nil, fmt.Errorf("request high-side line %d: %w", pins.High[i], err)
		}
		if b.low[i], err = chip.RequestLine(pins.Low[i], gpiocdev.AsOutput(0)); err != nil {
			b.Close()
			return nil, fmt.Errorf("request low-side line %d: %w", pins.Low[i], err)
		}
		if b.sense[i], err = chip.RequestLine(pins.Sense[i], gpiocdev.AsInput); err != nil {
			b.Close()
			return nil, fmt.Errorf("request comparator line %d: %w", pins.Sense[i], err)
		}
	}
	return b, nil
}

func (b *lineBridge) set(l *gpiocdev.Line, v int) {
	if l == nil {
		return
	}
	if err := l.SetValue(v); err != nil && b.err == nil {
		b.err = err
	}
}

func (b *lineBridge) DriveHigh(p core.Phase) {
	if p <= core.PhaseC {
		b.set(b.high[p], 1)
	}
}

func (b *lineBridge) DriveLow(p core.Phase) {
	if p <= core.PhaseC {
		b.set(b.low[p], 1)
	}
}

func (b *lineBridge) Float(p core.Phase) {
	if p <= core.PhaseC {
		b.set(b.high[p], 0)
		b.set(b.low[p], 0)
	}
}

func (b *lineBridge) AllOff() {
	for i := 0; i < 3; i++ {
		b.set(b.high[i], 0)
		b.set(b.low[i], 0)
	}
}

func (b *lineBridge) SenseEdge(p core.Phase) bool {
	b.irq.service()
	if p > core.PhaseC || b.sense[p] == nil {
		return false
	}
	v, err := b.sense[p].Value()
	if err != nil {
		if b.err == nil {
			b.err = err
		}
		return false
	}
	return v != 0
}

// Err returns the first line error seen
func (b *lineBridge) Err() error {
	return b.err
}

// Close releases every line with the gates off
func (b *lineBridge) Close() error {
	b.AllOff()
	for i := 0; i < 3; i++ {
		for _, l := range []*gpiocdev.Line{b.high[i], b.low[i], b.sense[i]} {
			if l != nil {
				_ = l.Close()
			}
		}
	}
	if b.chip != nil {
		return b.chip.Close()
	}
	return nil
}

// lineLights implements core.Indicator; a negative offset disables a light
type lineLights struct {
	green, red *gpiocdev.Line
}

func openLights(chip *gpiocdev.Chip, green, red int) (*lineLights, error) {
	l := &lineLights{}
	var err error
	if green >= 0 {
		if l.green, err = chip.RequestLine(green, gpiocdev.AsOutput(0)); err != nil {
			return nil, fmt.Errorf("request green line %d: %w", green, err)
		}
	}
	if red >= 0 {
		if l.red, err = chip.RequestLine(red, gpiocdev.AsOutput(0)); err != nil {
			return nil, fmt.Errorf("request red line %d: %w", red, err)
		}
	}
	return l, nil
}

func (l *lineLights) Green(on bool) { setLight(l.green, on) }
func (l *lineLights) Red(on bool)   { setLight(l.red, on) }

func setLight(line *gpiocdev.Line, on bool) {
	if line == nil {
		return
	}
	v := 0
	if on {
		v = 1
	}
	_ = line.SetValue(v)
}

func (l *lineLights) Close() {
	for _, line := range []*gpiocdev.Line{l.green, l.red} {
		if line != nil {
			_ = line.SetValue(0)
			_ = line.Close()
		}
	}
}
