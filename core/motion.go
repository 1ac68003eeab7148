package core

import (
	"fmt"

	"github.com/signalsfoundry/orrery/model"
)

// MotionModel writes a body's position for the given time offset.
type MotionModel interface {
	Place(offset TimeOffset, b *model.CelestialBody) error
}

// StationaryMotionModel pins a body to the origin. It serves the central body
// and any orbiting body whose period is unusable.
type StationaryMotionModel struct{}

// Place sets b at the origin with a zero angle.
func (m *StationaryMotionModel) Place(_ TimeOffset, b *model.CelestialBody) error {
	b.Position = model.Coordinates{}
	b.Angle = 0
	return nil
}

// CircularMotionModel puts a body on its circular orbit at the angle reached
// after the offset. It runs once per body; revolution is not animated.
type CircularMotionModel struct{}

// Place computes the frozen orbital position of b.
func (m *CircularMotionModel) Place(offset TimeOffset, b *model.CelestialBody) error {
	angle, err := AngleOf(b.PeriodDays, offset.Days())
	if err != nil {
		return fmt.Errorf("place %q: %w", b.ID, err)
	}
	b.Angle = angle
	b.Position = PositionOf(b.OrbitRadius, angle).Coordinates()
	return nil
}

// NewMotionModel chooses the motion model for b: circular for a body with an
// orbit radius and a usable period, stationary otherwise.
func NewMotionModel(b *model.CelestialBody) MotionModel {
	if b.Orbits() && validPeriod(b.PeriodDays) {
		return &CircularMotionModel{}
	}
	return &StationaryMotionModel{}
}

// Placement records where a body was put at initialization.
type Placement struct {
	ID       string
	Name     string
	Angle    float64
	Position Vec3
	Radius   float64
	// Degenerate is set for an orbiting body that was parked at the centre
	// because its period was unusable.
	Degenerate bool
}

// PlaceBodies runs each body's motion model once and returns the placements in
// catalog order.
func PlaceBodies(offset TimeOffset, bodies []*model.CelestialBody) ([]Placement, error) {
	if _, err := NewTimeOffset(offset.Days()); err != nil {
		return nil, err
	}

	out := make([]Placement, 0, len(bodies))
	for _, b := range bodies {
		if b == nil {
			continue
		}
		if err := NewMotionModel(b).Place(offset, b); err != nil {
			return nil, err
		}
		out = append(out, Placement{
			ID:         b.ID,
			Name:       b.Name,
			Angle:      b.Angle,
			Position:   VecFrom(b.Position),
			Radius:     b.OrbitRadius,
			Degenerate: b.Orbits() && !validPeriod(b.PeriodDays),
		})
	}
	return out, nil
}
