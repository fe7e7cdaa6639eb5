package wire

import (
	"github.com/banshee-data/racecore/internal/command"
	"google.golang.org/protobuf/encoding/protowire"
)

// Drive fields, as expected by the microcontroller firmware.
const (
	driveSpeed     protowire.Number = 2
	driveCurvature protowire.Number = 3
)

var driveSpec = fieldSpec{
	driveSpeed:     protowire.Fixed32Type,
	driveCurvature: protowire.Fixed32Type,
}

// AppendDrive appends the encoded drive command to b.
func AppendDrive(b []byte, d command.Drive) []byte {
	b = appendFloat(b, driveSpeed, d.Speed)
	return appendFloat(b, driveCurvature, d.Curvature)
}

// EncodeDrive encodes a drive command.
func EncodeDrive(d command.Drive) []byte { return AppendDrive(nil, d) }

// DecodeDrive decodes a drive command.
func DecodeDrive(b []byte) (command.Drive, error) {
	var d command.Drive
	err := walk(b, driveSpec, func(f field) error {
		switch f.num {
		case driveSpeed:
			d.Speed = f.float()
		case driveCurvature:
			d.Curvature = f.float()
		}
		return nil
	})
	return d, err
}

// RemoteCommand fields.
const (
	cmdMode     protowire.Number = 1
	cmdThrottle protowire.Number = 2
	cmdTurn     protowire.Number = 3
)

var commandSpec = fieldSpec{
	cmdMode:     protowire.VarintType,
	cmdThrottle: protowire.Fixed32Type,
	cmdTurn:     protowire.Fixed32Type,
}

// EncodeCommand encodes a remote operator command.
func EncodeCommand(c command.Command) []byte {
	var b []byte
	b = appendVarint(b, cmdMode, uint64(c.Mode))
	b = appendFloat(b, cmdThrottle, c.Throttle)
	return appendFloat(b, cmdTurn, c.Turn)
}

// DecodeCommand decodes a remote operator command. Unknown modes decode as
// Off.
func DecodeCommand(b []byte) (command.Command, error) {
	var c command.Command
	err := walk(b, commandSpec, func(f field) error {
		switch f.num {
		case cmdMode:
			if m := command.Mode(f.u64); f.u64 <= uint64(command.Manual) {
				c.Mode = m
			}
		case cmdThrottle:
			c.Throttle = f.float()
		case cmdTurn:
			c.Turn = f.float()
		}
		return nil
	})
	if err != nil {
		return command.Command{}, err
	}
	return c.Clamped(), nil
}
