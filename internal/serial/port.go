package serial

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	goserial "go.bug.st/serial"
)

// Defaults for the Arduino on the Pi's USB port.
const (
	DefaultDevice  = "/dev/ttyACM0"
	DefaultBaud    = 9600
	DefaultTimeout = 10 * time.Second
)

// Port reads lines from a real serial device.
type Port struct {
	port    goserial.Port
	timeout time.Duration
	pending []byte
	chunk   []byte
}

// Open opens device at the given baud rate (8N1). timeout bounds each ReadLine.
func Open(device string, baud int, timeout time.Duration) (*Port, error) {
	mode := &goserial.Mode{
		BaudRate: baud,
		Parity:   goserial.NoParity,
		StopBits: goserial.OneStopBit,
		DataBits: 8,
	}

	p, err := goserial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", device, err)
	}
	if err := p.SetReadTimeout(timeout); err != nil {
		p.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", device, err)
	}

	return newPort(p, timeout), nil
}

func newPort(p goserial.Port, timeout time.Duration) *Port {
	return &Port{
		port:    p,
		timeout: timeout,
		chunk:   make([]byte, 256),
	}
}

// ReadLine returns the next line. If no terminator arrives within the
// timeout, whatever was received so far is returned (possibly empty).
func (p *Port) ReadLine() (string, error) {
	deadline := time.Now().Add(p.timeout)
	for {
		if i := bytes.IndexByte(p.pending, '\n'); i >= 0 {
			line := string(p.pending[:i])
			p.pending = p.pending[i+1:]
			return strings.TrimRight(line, "\r"), nil
		}

		if !time.Now().Before(deadline) {
			line := string(p.pending)
			p.pending = nil
			return line, nil
		}

		// Read blocks for at most the port timeout; zero bytes means it expired.
		n, err := p.port.Read(p.chunk)
		if err != nil {
			return "", fmt.Errorf("read serial: %w", err)
		}
		p.pending = append(p.pending, p.chunk[:n]...)
	}
}

// Close releases the serial device.
func (p *Port) Close() error {
	return p.port.Close()
}
