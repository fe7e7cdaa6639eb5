package pointmap

import (
	"fmt"
	"time"

	"github.com/banshee-data/racecore/internal/geom"
	"github.com/google/uuid"
)

// Kind classifies a perceived point.
type Kind uint8

const (
	LeftBoundary Kind = iota
	RightBoundary
	Obstacle
	LeftMarker  // pass the marker turning left (counter-clockwise around it)
	RightMarker // pass the marker turning right (clockwise around it)
)

// Kinds lists every valid classification in wire order.
var Kinds = []Kind{LeftBoundary, RightBoundary, Obstacle, LeftMarker, RightMarker}

func (k Kind) String() string {
	switch k {
	case LeftBoundary:
		return "left_boundary"
	case RightBoundary:
		return "right_boundary"
	case Obstacle:
		return "obstacle"
	case LeftMarker:
		return "left_marker"
	case RightMarker:
		return "right_marker"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// IsMarker reports whether k is a direction marker.
func (k Kind) IsMarker() bool { return k == LeftMarker || k == RightMarker }

// PointID identifies a point for its whole lifetime.
type PointID = uuid.UUID

// Point is a single perceived feature. ExpireAt is assigned by the Pruner,
// never by perception.
type Point struct {
	ID       PointID
	Kind     Kind
	Pos      geom.Position
	ExpireAt time.Time
}

// NewPoint creates a point with a fresh random identifier and no expiry.
func NewPoint(kind Kind, pos geom.Position) Point {
	return Point{ID: uuid.New(), Kind: kind, Pos: pos}
}

func (p Point) String() string {
	return fmt.Sprintf("%s %s at %v", p.Kind, p.ID.String()[:8], p.Pos)
}
