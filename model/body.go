package model

// MaterialKind selects the shading a renderer applies to a body.
type MaterialKind string

const (
	// MaterialBasic is unlit; used for the emissive central body.
	MaterialBasic MaterialKind = "basic"
	// MaterialStandard is lit by the scene's point and directional lights.
	MaterialStandard MaterialKind = "standard"
)

// Coordinates is a point in scene units. Y is "up"; orbits lie in the x-z plane.
type Coordinates struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// CelestialBody is one entry of the viewer's fixed catalog.
//
// Position and Angle are derived: they are written once by a MotionModel at
// initialization and are never re-orbited afterwards.
type CelestialBody struct {
	ID       string
	Name     string
	Texture  string
	Material MaterialKind

	// Size is the sphere radius used for rendering and hit testing.
	Size float64
	// OrbitRadius is the distance from the central body; 0 for the central body.
	OrbitRadius float64
	// PeriodDays is the time for one revolution; 0 for the central body.
	PeriodDays float64
	// Central marks the body every orbit is centred on.
	Central bool

	Position Coordinates
	Angle    float64
}

// Orbits reports whether the body is expected to revolve around the centre.
func (b *CelestialBody) Orbits() bool {
	return !b.Central && b.OrbitRadius > 0
}

// Clone returns a copy of b that shares no state with it.
func (b *CelestialBody) Clone() *CelestialBody {
	c := *b
	return &c
}
