package core

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/signalsfoundry/orrery/model"
)

// ErrInvalidRay reports a pick ray that is missing a part or has no direction.
var ErrInvalidRay = errors.New("invalid pick ray")

// NewRay builds a pick ray from a renderer's origin and direction.
func NewRay(origin, direction *model.Coordinates) (Ray, error) {
	if origin == nil || direction == nil {
		return Ray{}, fmt.Errorf("%w: pick needs origin and direction", ErrInvalidRay)
	}
	o, d := VecFrom(*origin), VecFrom(*direction)
	for _, v := range []float64{o.X, o.Y, o.Z, d.X, d.Y, d.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Ray{}, fmt.Errorf("%w: non-finite component", ErrInvalidRay)
		}
	}
	if d == (Vec3{}) {
		return Ray{}, fmt.Errorf("%w: zero pick direction", ErrInvalidRay)
	}
	return Ray{Origin: o, Direction: d}, nil
}

// Hit is a body under the pointer and its distance from the ray origin.
type Hit struct {
	BodyID   string
	Distance float64
}

// IntersectBodies returns every body the ray passes through, nearest first.
// Bodies are spheres of radius Size at their current position; ties keep
// catalog order. A body whose sphere contains the ray origin is not hit, so a
// camera parked inside the Sun can still pick the planets.
func IntersectBodies(ray Ray, bodies []*model.CelestialBody) []Hit {
	var hits []Hit
	for _, b := range bodies {
		if b == nil {
			continue
		}
		if d, ok := ray.IntersectSphere(VecFrom(b.Position), b.Size); ok {
			hits = append(hits, Hit{BodyID: b.ID, Distance: d})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	return hits
}

// Pick returns the nearest body hit by ray.
func Pick(ray Ray, bodies []*model.CelestialBody) (Hit, bool) {
	hits := IntersectBodies(ray, bodies)
	if len(hits) == 0 {
		return Hit{}, false
	}
	return hits[0], true
}

// Click resolves a pointer click: the nearest body hit is selected and a miss
// clears the selection. It returns the selected ID, or "" on a miss.
func (c *FocusController) Click(ray Ray) (string, error) {
	hit, ok := Pick(ray, c.bodies.ListBodies())
	if !ok {
		c.Deselect()
		return "", nil
	}
	if err := c.SelectBody(hit.BodyID); err != nil {
		return "", err
	}
	return hit.BodyID, nil
}
