// Package driver delivers drive commands to the vehicle's motor controller.
//
// Actuation is fire-and-forget: nothing is read back. Whether real hardware
// is present is decided once at startup through Capabilities.
package driver

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/banshee-data/racecore/internal/command"
	"github.com/banshee-data/racecore/internal/wire"
	"go.bug.st/serial"
)

// ErrWriteFailed wraps failures to deliver a command to the controller.
var ErrWriteFailed = errors.New("driver: write failed")

// Driver issues drive commands.
type Driver interface {
	Drive(d command.Drive) error
	Close() error
}

// Capabilities describes the hardware present on this host.
type Capabilities struct {
	// Hardware is true when a motor controller is attached.
	Hardware bool
	// Port is the controller's serial device.
	Port string
	// Options configures the serial link.
	Options PortOptions
}

// Port is the writable side of a serial link.
type Port interface {
	io.Writer
	io.Closer
}

// Opener opens the serial port at path.
type Opener func(path string, opts PortOptions) (Port, error)

// OpenSerial opens a real serial port.
func OpenSerial(path string, opts PortOptions) (Port, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", path, err)
	}
	return port, nil
}

// New returns a SerialDriver when caps reports hardware, otherwise a
// MockDriver. A nil opener uses OpenSerial.
func New(caps Capabilities, open Opener) (Driver, error) {
	if !caps.Hardware {
		diagf("no hardware, using mock driver")
		return NewMockDriver(), nil
	}
	if caps.Port == "" {
		return nil, errors.New("hardware enabled but no serial port configured")
	}
	if open == nil {
		open = OpenSerial
	}
	port, err := open(caps.Port, caps.Options)
	if err != nil {
		return nil, err
	}
	diagf("serial driver on %s", caps.Port)
	return NewSerialDriver(port), nil
}

// SerialDriver writes length-delimited Drive messages to a serial port.
type SerialDriver struct {
	mu     sync.Mutex
	port   Port
	sent   int
	closed bool
}

// NewSerialDriver wraps an open port.
func NewSerialDriver(port Port) *SerialDriver {
	return &SerialDriver{port: port}
}

// Drive sends d to the controller.
func (s *SerialDriver) Drive(d command.Drive) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("%w: port closed", ErrWriteFailed)
	}
	if err := wire.WriteDelimited(s.port, wire.EncodeDrive(d)); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	s.sent++
	tracef("drive %s", d)
	return nil
}

// Sent returns the number of commands delivered.
func (s *SerialDriver) Sent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent
}

// Close stops the vehicle and closes the port.
func (s *SerialDriver) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := wire.WriteDelimited(s.port, wire.EncodeDrive(command.Stop)); err != nil {
		opsf("failed to send stop before close: %v", err)
	}
	return s.port.Close()
}

// MockDriver records commands in memory.
type MockDriver struct {
	mu     sync.Mutex
	drives []command.Drive
	err    error
	closed bool
}

// NewMockDriver creates an empty MockDriver.
func NewMockDriver() *MockDriver {
	return &MockDriver{}
}

// Drive records d, or returns the error set with FailWith.
func (m *MockDriver) Drive(d command.Drive) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.drives = append(m.drives, d)
	tracef("mock drive %s", d)
	return nil
}

// FailWith makes subsequent Drive calls return err. Pass nil to recover.
func (m *MockDriver) FailWith(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

// Drives returns a copy of every recorded command.
func (m *MockDriver) Drives() []command.Drive {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]command.Drive(nil), m.drives...)
}

// Closed reports whether Close was called.
func (m *MockDriver) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Close marks the driver closed.
func (m *MockDriver) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}
