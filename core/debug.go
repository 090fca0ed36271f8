package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// ControlEvent captures a control-loop event for post-mortem analysis
type ControlEvent struct {
	EventType uint8  // Event type code
	Phase     Phase  // Phase involved, PhaseNone if not applicable
	Clock     uint32 // 24-bit commutation time at event
	Value1    uint32 // Context-dependent value
	Value2    uint32 // Context-dependent value
}

// Event type codes
const (
	EvtCommutation = 1 + iota // Crossing handled, v1=interval v2=next commutation
	EvtZcTimeout              // No crossing in window, v1=goodies v2=start delay
	EvtDemagTimeout           // Demag never settled, power skipped
	EvtPowerSkip              // Unpowered commutation, v1=skips left
	EvtRunning                // Startup complete, v1=rate limit
	EvtStall                  // Motor stalled, restarting
	EvtStartOver              // Rate limit fell to zero
	EvtStartFailed            // Start modulation gave up
	EvtSignalLost             // Throttle commands stopped
	EvtRestart                // Full restart from idle, v1=restart count
)

const (
	EventRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active.
	// Disabled by default; the control loop is timing critical.
	debugEnabled bool = false

	// Event capture ring buffer (non-blocking, for post-mortem)
	eventRing     [EventRingSize]ControlEvent
	eventRingHead uint8        // Next write position
	eventsEnabled bool  = true // Always capture events

	// Async debug output channel
	debugChan chan string
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// InitAsyncDebug starts the async debug output goroutine
// Call this from main() after SetDebugWriter
func InitAsyncDebug() {
	debugChan = make(chan string, 16) // Buffer 16 messages
	go debugOutputWorker()
}

// debugOutputWorker runs in background, drains debug channel
func debugOutputWorker() {
	for msg := range debugChan {
		if debugPrintln != nil {
			debugPrintln(msg)
		}
	}
}

// DebugPrintln writes a debug message using the platform-specific writer
// Blocks if debug is enabled (use DebugAsync for non-blocking)
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// DebugAsync queues a debug message for async output. Without a worker the
// message is written directly.
// Returns immediately even if channel is full (drops message)
func DebugAsync(msg string) {
	if !debugEnabled {
		return
	}
	if debugChan == nil {
		DebugPrintln(msg)
		return
	}
	select {
	case debugChan <- msg:
	default:
		// Channel full, drop message (non-blocking)
	}
}

// RecordEvent captures a control event in the ring buffer.
// Never blocks; safe on the commutation path.
func RecordEvent(eventType uint8, phase Phase, clock, value1, value2 uint32) {
	if !eventsEnabled {
		return
	}
	idx := eventRingHead
	eventRing[idx] = ControlEvent{
		EventType: eventType,
		Phase:     phase,
		Clock:     clock,
		Value1:    value1,
		Value2:    value2,
	}
	eventRingHead = (idx + 1) % EventRingSize
}

// SetEventsEnabled turns event capture on or off
func SetEventsEnabled(enabled bool) {
	eventsEnabled = enabled
}

// Events returns the captured events, oldest first
func Events() []ControlEvent {
	out := make([]ControlEvent, 0, EventRingSize)
	start := eventRingHead
	for i := uint8(0); i < EventRingSize; i++ {
		evt := eventRing[(start+i)%EventRingSize]
		if evt.EventType == 0 {
			continue // Empty slot
		}
		out = append(out, evt)
	}
	return out
}

// EventName returns the dump label of an event type
func EventName(eventType uint8) string {
	switch eventType {
	case EvtCommutation:
		return "COMMUTATE"
	case EvtZcTimeout:
		return "ZC_TIMEOUT"
	case EvtDemagTimeout:
		return "DEMAG_TIMEOUT"
	case EvtPowerSkip:
		return "POWER_SKIP"
	case EvtRunning:
		return "RUNNING"
	case EvtStall:
		return "STALL!"
	case EvtStartOver:
		return "START_OVER"
	case EvtStartFailed:
		return "START_FAILED!"
	case EvtSignalLost:
		return "SIGNAL_LOST"
	case EvtRestart:
		return "RESTART"
	default:
		return "UNKNOWN"
	}
}

// DumpEventRing outputs the event ring buffer (call on shutdown/error)
func DumpEventRing() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[ESC] === Event Ring Dump ===")
	for _, evt := range Events() {
		debugPrintln("[ESC] " + EventName(evt.EventType) +
			" phase=" + evt.Phase.String() +
			" clock=" + utoa(evt.Clock) +
			" v1=" + utoa(evt.Value1) +
			" v2=" + utoa(evt.Value2))
	}
	debugPrintln("[ESC] === End Dump ===")
}

// ClearEventRing clears the event buffer
func ClearEventRing() {
	for i := range eventRing {
		eventRing[i] = ControlEvent{}
	}
	eventRingHead = 0
}
