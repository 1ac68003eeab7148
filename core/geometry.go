package core

import (
	"math"

	"github.com/signalsfoundry/orrery/model"
)

// Vec3 is a scene-space vector. Y is up; orbits lie in the x-z plane.
type Vec3 struct {
	X, Y, Z float64
}

// VecFrom converts stored body coordinates into a Vec3.
func VecFrom(c model.Coordinates) Vec3 {
	return Vec3{X: c.X, Y: c.Y, Z: c.Z}
}

// Coordinates converts v back to the model representation.
func (v Vec3) Coordinates() model.Coordinates {
	return model.Coordinates{X: v.X, Y: v.Y, Z: v.Z}
}

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Scale returns v * s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// DistanceTo returns the straight-line distance between two points.
func (v Vec3) DistanceTo(other Vec3) float64 {
	return v.Sub(other).Norm()
}

// Normalize returns v scaled to unit length, or the zero vector.
func (v Vec3) Normalize() Vec3 {
	n := v.Norm()
	if n == 0 {
		return Vec3{}
	}
	return v.Scale(1 / n)
}

// Lerp interpolates between a and b. It is written as a·(1−t) + b·t so that
// t=0 yields a and t=1 yields b exactly.
func Lerp(a, b Vec3, t float64) Vec3 {
	s := 1 - t
	return Vec3{
		X: a.X*s + b.X*t,
		Y: a.Y*s + b.Y*t,
		Z: a.Z*s + b.Z*t,
	}
}

// Ray is a half-line used for pointer hit testing.
type Ray struct {
	Origin    Vec3
	Direction Vec3
}

// IntersectSphere returns the distance along r to the nearest point where it
// enters the sphere, and whether it hits at all. Only the outside of a sphere
// is hit: a ray starting inside never reports one.
func (r Ray) IntersectSphere(center Vec3, radius float64) (float64, bool) {
	dir := r.Direction.Normalize()
	if dir == (Vec3{}) || radius <= 0 {
		return 0, false
	}

	// Solve |o + t·d − c|² = r² with |d| = 1.
	oc := r.Origin.Sub(center)
	b := oc.Dot(dir)
	c := oc.Dot(oc) - radius*radius
	if c < 0 {
		return 0, false
	}
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)

	t := -b - sq
	if t < 0 {
		return 0, false
	}
	return t, true
}
