package wire

import (
	"fmt"
	"time"

	"github.com/banshee-data/racecore/internal/command"
	"github.com/banshee-data/racecore/internal/geom"
	"github.com/banshee-data/racecore/internal/kinematics"
	"github.com/banshee-data/racecore/internal/planner"
	"github.com/banshee-data/racecore/internal/pointmap"
	"github.com/banshee-data/racecore/internal/telemetry"
	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"
)

// Frame fields.
const (
	frameCycle           protowire.Number = 1
	frameUnixNanos       protowire.Number = 2
	framePose            protowire.Number = 3
	framePath            protowire.Number = 4
	frameMapUpdate       protowire.Number = 5
	frameActualSpeed     protowire.Number = 6
	frameActualCurvature protowire.Number = 7
	frameFPSMean         protowire.Number = 8
	frameCycleMsMean     protowire.Number = 9
	frameCycleMsStddev   protowire.Number = 10
	framePlanExpanded    protowire.Number = 11
	frameNearest         protowire.Number = 12
	frameMode            protowire.Number = 13
	frameCommand         protowire.Number = 14
)

var frameSpec = fieldSpec{
	frameCycle:           protowire.VarintType,
	frameUnixNanos:       protowire.VarintType,
	framePose:            protowire.BytesType,
	framePath:            protowire.BytesType,
	frameMapUpdate:       protowire.BytesType,
	frameActualSpeed:     protowire.Fixed64Type,
	frameActualCurvature: protowire.Fixed64Type,
	frameFPSMean:         protowire.Fixed64Type,
	frameCycleMsMean:     protowire.Fixed64Type,
	frameCycleMsStddev:   protowire.Fixed64Type,
	framePlanExpanded:    protowire.VarintType,
	frameNearest:         protowire.Fixed64Type,
	frameMode:            protowire.VarintType,
	frameCommand:         protowire.BytesType,
}

// Pose, path point and map point share x/y numbering.
const (
	posX         protowire.Number = 1
	posY         protowire.Number = 2
	posHeading   protowire.Number = 3
	posCurvature protowire.Number = 4
	posSpeed     protowire.Number = 5

	pointID   protowire.Number = 1
	pointKind protowire.Number = 2
	pointX    protowire.Number = 3
	pointY    protowire.Number = 4

	updateAdded   protowire.Number = 1
	updateRemoved protowire.Number = 2
)

var poseSpec = fieldSpec{
	posX:         protowire.Fixed64Type,
	posY:         protowire.Fixed64Type,
	posHeading:   protowire.Fixed64Type,
	posCurvature: protowire.Fixed64Type,
	posSpeed:     protowire.Fixed64Type,
}

var pointSpec = fieldSpec{
	pointID:   protowire.BytesType,
	pointKind: protowire.VarintType,
	pointX:    protowire.Fixed64Type,
	pointY:    protowire.Fixed64Type,
}

var updateSpec = fieldSpec{
	updateAdded:   protowire.BytesType,
	updateRemoved: protowire.BytesType,
}

// EncodeFrame encodes a telemetry frame. Point expiry is not transmitted.
func EncodeFrame(f *telemetry.Frame) []byte {
	var b []byte
	b = appendVarint(b, frameCycle, f.Cycle)
	if !f.Time.IsZero() {
		b = appendVarint(b, frameUnixNanos, uint64(f.Time.UnixNano()))
	}
	b = appendMessage(b, framePose, func(b []byte) []byte {
		b = appendDouble(b, posX, f.Pose.Pos.X)
		b = appendDouble(b, posY, f.Pose.Pos.Y)
		b = appendDouble(b, posHeading, f.Pose.Heading)
		b = appendDouble(b, posCurvature, f.Pose.Curvature)
		return appendDouble(b, posSpeed, f.Pose.Speed)
	})
	for _, p := range f.Trajectory.Points {
		b = appendMessage(b, framePath, func(b []byte) []byte {
			b = appendDouble(b, posX, p.Pos.X)
			b = appendDouble(b, posY, p.Pos.Y)
			b = appendDouble(b, posHeading, p.Heading)
			return appendDouble(b, posCurvature, p.Curvature)
		})
	}
	if len(f.Added) > 0 || len(f.Removed) > 0 {
		b = appendMessage(b, frameMapUpdate, func(b []byte) []byte {
			for _, p := range f.Added {
				b = appendMessage(b, updateAdded, func(b []byte) []byte {
					b = appendBytes(b, pointID, p.ID[:])
					b = appendVarint(b, pointKind, uint64(p.Kind))
					b = appendDouble(b, pointX, p.Pos.X)
					return appendDouble(b, pointY, p.Pos.Y)
				})
			}
			for _, id := range f.Removed {
				b = appendBytes(b, updateRemoved, id[:])
			}
			return b
		})
	}

	d := f.Diagnostic
	b = appendDouble(b, frameActualSpeed, d.ActualSpeed)
	b = appendDouble(b, frameActualCurvature, d.ActualCurvature)
	b = appendDouble(b, frameFPSMean, d.FPSMean)
	b = appendDouble(b, frameCycleMsMean, d.CycleMsMean)
	b = appendDouble(b, frameCycleMsStddev, d.CycleMsStddev)
	b = appendVarint(b, framePlanExpanded, uint64(d.PlanExpanded))
	b = appendDouble(b, frameNearest, d.NearestObstacle)
	b = appendVarint(b, frameMode, uint64(d.Mode))
	if d.Command != (command.Drive{}) {
		b = appendMessage(b, frameCommand, func(b []byte) []byte { return AppendDrive(b, d.Command) })
	}
	return b
}

// DecodeFrame decodes a telemetry frame.
func DecodeFrame(b []byte) (*telemetry.Frame, error) {
	f := &telemetry.Frame{}
	err := walk(b, frameSpec, func(fl field) error {
		d := &f.Diagnostic
		switch fl.num {
		case frameCycle:
			f.Cycle = fl.u64
		case frameUnixNanos:
			f.Time = time.Unix(0, int64(fl.u64))
		case framePose:
			pose, err := decodePose(fl.data)
			if err != nil {
				return fmt.Errorf("pose: %w", err)
			}
			f.Pose = pose
		case framePath:
			pose, err := decodePose(fl.data)
			if err != nil {
				return fmt.Errorf("path point: %w", err)
			}
			f.Trajectory.Points = append(f.Trajectory.Points, planner.TrajectoryPoint{
				Pos: pose.Pos, Heading: pose.Heading, Curvature: pose.Curvature,
			})
		case frameMapUpdate:
			if err := decodeMapUpdate(fl.data, f); err != nil {
				return fmt.Errorf("map update: %w", err)
			}
		case frameActualSpeed:
			d.ActualSpeed = fl.double()
		case frameActualCurvature:
			d.ActualCurvature = fl.double()
		case frameFPSMean:
			d.FPSMean = fl.double()
		case frameCycleMsMean:
			d.CycleMsMean = fl.double()
		case frameCycleMsStddev:
			d.CycleMsStddev = fl.double()
		case framePlanExpanded:
			d.PlanExpanded = int(fl.u64)
		case frameNearest:
			d.NearestObstacle = fl.double()
		case frameMode:
			d.Mode = command.Mode(fl.u64)
		case frameCommand:
			cmd, err := DecodeDrive(fl.data)
			if err != nil {
				return fmt.Errorf("command: %w", err)
			}
			d.Command = cmd
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

func decodePose(b []byte) (kinematics.State, error) {
	var s kinematics.State
	err := walk(b, poseSpec, func(f field) error {
		switch f.num {
		case posX:
			s.Pos.X = f.double()
		case posY:
			s.Pos.Y = f.double()
		case posHeading:
			s.Heading = f.double()
		case posCurvature:
			s.Curvature = f.double()
		case posSpeed:
			s.Speed = f.double()
		}
		return nil
	})
	return s, err
}

func decodeMapUpdate(b []byte, f *telemetry.Frame) error {
	return walk(b, updateSpec, func(fl field) error {
		switch fl.num {
		case updateAdded:
			p, err := decodePoint(fl.data)
			if err != nil {
				return err
			}
			f.Added = append(f.Added, p)
		case updateRemoved:
			id, err := uuid.FromBytes(fl.data)
			if err != nil {
				return fmt.Errorf("removed id: %w", err)
			}
			f.Removed = append(f.Removed, id)
		}
		return nil
	})
}

func decodePoint(b []byte) (pointmap.Point, error) {
	var p pointmap.Point
	var pos geom.Position
	err := walk(b, pointSpec, func(f field) error {
		switch f.num {
		case pointID:
			id, err := uuid.FromBytes(f.data)
			if err != nil {
				return fmt.Errorf("point id: %w", err)
			}
			p.ID = id
		case pointKind:
			p.Kind = pointmap.Kind(f.u64)
		case pointX:
			pos.X = f.double()
		case pointY:
			pos.Y = f.double()
		}
		return nil
	})
	p.Pos = pos
	return p, err
}
