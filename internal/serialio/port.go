package serialio

import (
	"fmt"
	"io"

	"github.com/tarm/serial"
)

// DefaultBaud matches the firmware's UART configuration.
const DefaultBaud = 115200

// Port wraps a serial connection to the rig. It exists so the reader can be
// tested against any io.Reader while production code opens real hardware.
type Port struct {
	port *serial.Port
}

// Open opens the rig's serial device. A zero baud falls back to DefaultBaud.
func Open(device string, baud int) (*Port, error) {
	if baud == 0 {
		baud = DefaultBaud
	}
	c := &serial.Config{Name: device, Baud: baud}
	p, err := serial.OpenPort(c)
	if err != nil {
		return nil, fmt.Errorf("serial open %s: %w", device, err)
	}
	return &Port{port: p}, nil
}

// Write sends a command line to the firmware.
func (p *Port) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

// SendCommand writes a single newline-terminated command.
func (p *Port) SendCommand(cmd string) error {
	_, err := p.port.Write([]byte(cmd + "\n"))
	if err != nil {
		return fmt.Errorf("serial write: %w", err)
	}
	return nil
}

func (p *Port) Read(b []byte) (int, error) {
	return p.port.Read(b)
}

func (p *Port) Close() error {
	if p.port == nil {
		return nil
	}
	return p.port.Close()
}

var _ io.ReadWriteCloser = (*Port)(nil)
