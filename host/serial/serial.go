package serial

import (
	"bufio"
	"io"
	"strings"
)

// Port represents a serial port interface
// This abstraction allows for different implementations:
// - Native serial (using github.com/tarm/serial)
// - Mock serial (for testing)
type Port interface {
	io.ReadWriteCloser

	// Flush flushes any buffered data
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate (USB CDC ignores this)
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultConfig returns the configuration of the firmware's debug console
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100,
	}
}

// EventPrefix marks lines written by the controller's event ring dump
const EventPrefix = "[ESC]"

// Line is one console line
type Line struct {
	Text  string
	Event bool // line came from the event ring dump
}

// ReadLines splits the console stream into lines and sends them on out.
// tarm/serial reports a read timeout as io.EOF, so with follow set EOF only
// means "no data yet" and reading continues until stop is closed. out is
// closed on return.
func ReadLines(r io.Reader, out chan<- Line, follow bool, stop <-chan struct{}) error {
	defer close(out)
	br := bufio.NewReader(r)
	var partial strings.Builder
	emit := func() {
		text := strings.TrimRight(partial.String(), "\r\n")
		partial.Reset()
		if text != "" {
			out <- Line{Text: text, Event: strings.HasPrefix(text, EventPrefix)}
		}
	}
	for {
		chunk, err := br.ReadString('\n')
		partial.WriteString(chunk)
		switch {
		case err == nil:
			emit()
		case err == io.EOF && follow:
			select {
			case <-stop:
				return nil
			default:
			}
		case err == io.EOF:
			emit()
			return nil
		default:
			return err
		}
	}
}
