package serial

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, input string) []Line {
	t.Helper()
	out := make(chan Line, 16)
	require.NoError(t, ReadLines(strings.NewReader(input), out, false, nil))
	var lines []Line
	for l := range out {
		lines = append(lines, l)
	}
	return lines
}

func TestReadLines(t *testing.T) {
	lines := collect(t, "boot\r\n\r\n[ESC] === Event Ring Dump ===\n[ESC] RESTART phase=- clock=12 v1=1 v2=0\ntail")

	require.Len(t, lines, 4)
	assert.Equal(t, Line{Text: "boot"}, lines[0])
	assert.True(t, lines[1].Event)
	assert.Equal(t, "[ESC] RESTART phase=- clock=12 v1=1 v2=0", lines[2].Text)
	assert.Equal(t, Line{Text: "tail"}, lines[3])
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("device unplugged") }

func TestReadLines_Error(t *testing.T) {
	out := make(chan Line, 1)
	err := ReadLines(failingReader{}, out, true, nil)
	assert.EqualError(t, err, "device unplugged")
	_, open := <-out
	assert.False(t, open)
}

func TestOpen_Validation(t *testing.T) {
	_, err := Open(nil)
	assert.Error(t, err)
	_, err = Open(&Config{})
	assert.Error(t, err)

	cfg := DefaultConfig("/dev/ttyACM0")
	assert.Equal(t, 115200, cfg.Baud)
	assert.Equal(t, 100, cfg.ReadTimeout)
}

// fakePort replays a console capture; reads past the end time out like tarm
type fakePort struct {
	*strings.Reader
	flushes int
	closed  bool
}

func (p *fakePort) Write(b []byte) (int, error) { return len(b), nil }
func (p *fakePort) Close() error                { p.closed = true; return nil }
func (p *fakePort) Flush() error                { p.flushes++; return nil }

func TestConsole_Lines(t *testing.T) {
	port := &fakePort{Reader: strings.NewReader("ready\r\n[ESC] RUNNING phase=- clock=40 v1=300 v2=0\r\npart")}
	c, err := newConsole(port, DefaultConfig("/dev/ttyACM0"))
	require.NoError(t, err)
	assert.Equal(t, 1, port.flushes)
	assert.Equal(t, "/dev/ttyACM0", c.Device())

	stop := make(chan struct{})
	close(stop)
	out := make(chan Line, 4)
	require.NoError(t, c.Lines(out, stop))

	var lines []Line
	for l := range out {
		lines = append(lines, l)
	}
	// A partial line is held back while following
	require.Len(t, lines, 2)
	assert.Equal(t, Line{Text: "ready"}, lines[0])
	assert.True(t, lines[1].Event)

	require.NoError(t, c.Close())
	assert.True(t, port.closed)
}
