package driver

import (
	"fmt"
	"strings"

	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the motor controller's link speed.
	DefaultBaudRate = 115200
	// DefaultFraming is eight data bits, no parity, one stop bit.
	DefaultFraming = "8N1"
)

// PortOptions describes the serial link to the motor controller. Framing is
// written the way datasheets do: data bits, parity letter (N, E or O), stop
// bits, as in "8N1" or "7E2".
type PortOptions struct {
	BaudRate int    `json:"baud_rate"`
	Framing  string `json:"framing"`
}

// SerialMode validates the options and returns the mode go.bug.st/serial
// opens a port with. Zero values take the defaults.
func (o PortOptions) SerialMode() (*serial.Mode, error) {
	mode := &serial.Mode{BaudRate: o.BaudRate}
	if mode.BaudRate <= 0 {
		mode.BaudRate = DefaultBaudRate
	}

	framing := strings.ToUpper(strings.TrimSpace(o.Framing))
	if framing == "" {
		framing = DefaultFraming
	}
	if len(framing) != 3 {
		return nil, fmt.Errorf("invalid framing %q: want e.g. 8N1", o.Framing)
	}

	if d := framing[0]; d >= '5' && d <= '8' {
		mode.DataBits = int(d - '0')
	} else {
		return nil, fmt.Errorf("invalid framing %q: data bits must be 5 to 8", o.Framing)
	}

	switch framing[1] {
	case 'N':
		mode.Parity = serial.NoParity
	case 'E':
		mode.Parity = serial.EvenParity
	case 'O':
		mode.Parity = serial.OddParity
	default:
		return nil, fmt.Errorf("invalid framing %q: parity must be N, E or O", o.Framing)
	}

	switch framing[2] {
	case '1':
		mode.StopBits = serial.OneStopBit
	case '2':
		mode.StopBits = serial.TwoStopBits
	default:
		return nil, fmt.Errorf("invalid framing %q: stop bits must be 1 or 2", o.Framing)
	}
	return mode, nil
}
