package sim

import (
	"math"

	"goesc/core"
)

// Motor is a back-EMF model behind the bridge
type Motor interface {
	// Comparator returns true while the back-EMF of p is above the star point
	Comparator(p core.Phase) bool

	// Update integrates the model up to now (timer ticks) with the bridge's
	// current drive
	Update(now uint64, b *Bridge)
}

// phaseOffset places the three back-EMF waveforms 120 degrees apart so that a
// rotor turning forward produces crossings in the controller's forward order
var phaseOffset = [3]float64{0, 2 * math.Pi / 3, 4 * math.Pi / 3}

func backEMF(angle float64, p core.Phase) float64 {
	return math.Sin(angle + phaseOffset[p])
}

// Stalled never moves: its comparators never change
type Stalled struct {
	Level bool
}

func (m *Stalled) Comparator(core.Phase) bool { return m.Level }
func (m *Stalled) Update(uint64, *Bridge)     {}

// Flywheel turns at an imposed speed regardless of drive: an ideal back-EMF
// source for checking that the controller locks on.
type Flywheel struct {
	angle    float64
	interval float64
	last     uint64
}

// NewFlywheel creates a flywheel with interval ticks per 60 electrical degrees
func NewFlywheel(interval float64) *Flywheel {
	return &Flywheel{interval: interval, angle: 0.1}
}

// SetInterval changes the speed; 0 stops the rotor
func (m *Flywheel) SetInterval(interval float64) {
	m.interval = interval
}

func (m *Flywheel) Update(now uint64, _ *Bridge) {
	dt := float64(now - m.last)
	m.last = now
	if m.interval > 0 {
		m.angle = math.Mod(m.angle+dt*(math.Pi/3)/m.interval, 2*math.Pi)
	}
}

func (m *Flywheel) Comparator(p core.Phase) bool {
	return backEMF(m.angle, p) > 0
}

// Inertial is a rotor with inertia, viscous drag and a resistive winding
// driven by whichever pair of phases the bridge is conducting through.
type Inertial struct {
	Inertia float64 // torque*tick^2 per radian
	Drag    float64 // torque per rad/tick
	Ke      float64 // back-EMF per rad/tick
	Kt      float64 // torque per unit current
	Bus     float64 // supply voltage
	R       float64 // winding resistance

	angle float64
	omega float64 // rad/tick
	last  uint64
}

// NewInertial returns a rotor whose no-load speed is about 2000 ticks per 60
// electrical degrees on a 16MHz timer
func NewInertial() *Inertial {
	const maxOmega = (math.Pi / 3) / 2000
	return &Inertial{
		Inertia: 1e10,
		Drag:    0.17 / maxOmega,
		Ke:      1 / (math.Sqrt(3) * maxOmega),
		Kt:      1,
		Bus:     1,
		R:       1,
		angle:   0.1,
	}
}

func (m *Inertial) Update(now uint64, b *Bridge) {
	dt := float64(now - m.last)
	m.last = now
	if dt <= 0 {
		return
	}

	var torque float64
	if h, l, ok := b.Conducting(); ok {
		k := backEMF(m.angle, h) - backEMF(m.angle, l)
		if i := (m.Bus - m.Ke*m.omega*k) / m.R; i > 0 {
			torque = m.Kt * i * k
		}
	}
	m.omega += (torque - m.Drag*m.omega) / m.Inertia * dt
	if m.omega < 0 {
		m.omega = 0
	}
	m.angle = math.Mod(m.angle+m.omega*dt, 2*math.Pi)
	if m.angle < 0 {
		m.angle += 2 * math.Pi
	}
}

func (m *Inertial) Comparator(p core.Phase) bool {
	return backEMF(m.angle, p) > 0
}

// Interval returns the current speed as ticks per 60 electrical degrees, 0 at rest
func (m *Inertial) Interval() float64 {
	if m.omega <= 0 {
		return 0
	}
	return (math.Pi / 3) / m.omega
}
