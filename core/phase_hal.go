package core

// Phase identifies one of the three motor phases
type Phase uint8

const (
	PhaseA Phase = iota
	PhaseB
	PhaseC
	PhaseNone
)

// String returns the phase letter
func (p Phase) String() string {
	switch p {
	case PhaseA:
		return "A"
	case PhaseB:
		return "B"
	case PhaseC:
		return "C"
	default:
		return "-"
	}
}

// PhaseDriver is the three-phase half-bridge the core commutates.
// All calls are fire-and-forget hardware writes and may be made from
// interrupt context.
type PhaseDriver interface {
	// DriveHigh switches on the high-side FET of p
	DriveHigh(p Phase)

	// DriveLow switches on the low-side FET of p
	DriveLow(p Phase)

	// Float switches off both FETs of p
	Float(p Phase)

	// AllOff switches off all six FETs
	AllOff()

	// SenseEdge returns the back-EMF comparator output for phase p
	// (true when the phase voltage is above the star point)
	SenseEdge(p Phase) bool
}

// Indicator drives the two status lights. Status only, never read back.
type Indicator interface {
	Green(on bool)
	Red(on bool)
}

// nopIndicator is used when a board has no status lights
type nopIndicator struct{}

func (nopIndicator) Green(bool) {}
func (nopIndicator) Red(bool)   {}
