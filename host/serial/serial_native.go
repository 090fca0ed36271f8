//go:build !wasm

package serial

import (
	"fmt"
	"time"

	"github.com/tarm/serial"
)

// Console is the controller's debug console on a native serial port
type Console struct {
	port Port
	cfg  *Config
}

// Open opens the console device through tarm/serial
func Open(cfg *Config) (*Console, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Device == "" {
		return nil, fmt.Errorf("no serial device given")
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: time.Duration(cfg.ReadTimeout) * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Device, err)
	}

	c, err := newConsole(port, cfg)
	if err != nil {
		port.Close()
		return nil, err
	}
	return c, nil
}

// newConsole drops whatever the driver buffered before the port was opened,
// so the first line read starts on a line boundary of fresh output.
func newConsole(port Port, cfg *Config) (*Console, error) {
	if err := port.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush %s: %w", cfg.Device, err)
	}
	return &Console{port: port, cfg: cfg}, nil
}

// Device returns the console's device path
func (c *Console) Device() string {
	return c.cfg.Device
}

// Lines follows the console until stop is closed, sending every line on out.
// Read timeouts are not an error. out is closed on return.
func (c *Console) Lines(out chan<- Line, stop <-chan struct{}) error {
	return ReadLines(c.port, out, true, stop)
}

// Read reads raw console bytes
func (c *Console) Read(b []byte) (int, error) {
	return c.port.Read(b)
}

// Write sends raw bytes to the controller
func (c *Console) Write(b []byte) (int, error) {
	return c.port.Write(b)
}

// Close closes the serial port
func (c *Console) Close() error {
	if c.port != nil {
		return c.port.Close()
	}
	return nil
}

// Flush discards data received but not yet read
func (c *Console) Flush() error {
	return c.port.Flush()
}
