// Package catalog holds the viewer's fixed set of bodies: the central star and
// the eight planets, with the sizes, orbit radii and periods the scene uses.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/signalsfoundry/orrery/model"
)

//go:embed bodies.toml
var defaultCatalog []byte

// ErrInvalidCatalog is returned when catalog data breaks a structural rule.
var ErrInvalidCatalog = errors.New("invalid catalog")

type catalogTOML struct {
	Bodies []bodyTOML `toml:"body"`
}

type bodyTOML struct {
	ID          string  `toml:"id"`
	Name        string  `toml:"name"`
	Texture     string  `toml:"texture"`
	Material    string  `toml:"material"`
	Size        float64 `toml:"size"`
	OrbitRadius float64 `toml:"orbit_radius"`
	PeriodDays  float64 `toml:"period_days"`
	Central     bool    `toml:"central"`
}

// Default returns a fresh copy of the built-in catalog, central body first.
func Default() []*model.CelestialBody {
	bodies, err := Parse(defaultCatalog)
	if err != nil {
		// The embedded file is covered by tests; a failure here is a build defect.
		panic(fmt.Errorf("catalog: embedded catalog: %w", err))
	}
	return bodies
}

// Parse decodes catalog TOML and validates it.
func Parse(data []byte) ([]*model.CelestialBody, error) {
	var payload catalogTOML
	if err := toml.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("catalog: decode failed: %w", err)
	}

	bodies := make([]*model.CelestialBody, 0, len(payload.Bodies))
	for _, b := range payload.Bodies {
		bodies = append(bodies, &model.CelestialBody{
			ID:          strings.TrimSpace(b.ID),
			Name:        b.Name,
			Texture:     b.Texture,
			Material:    materialFromString(b.Material),
			Size:        b.Size,
			OrbitRadius: b.OrbitRadius,
			PeriodDays:  b.PeriodDays,
			Central:     b.Central,
		})
	}
	if err := Validate(bodies); err != nil {
		return nil, err
	}
	return bodies, nil
}

// Validate checks identity and shape rules. A zero period on an orbiting body
// is not rejected here; the motion model parks such a body at the centre.
func Validate(bodies []*model.CelestialBody) error {
	if len(bodies) == 0 {
		return fmt.Errorf("%w: no bodies", ErrInvalidCatalog)
	}

	seen := make(map[string]struct{}, len(bodies))
	central := 0
	for i, b := range bodies {
		if b == nil {
			return fmt.Errorf("%w: body %d is nil", ErrInvalidCatalog, i)
		}
		if b.ID == "" {
			return fmt.Errorf("%w: body %d has empty id", ErrInvalidCatalog, i)
		}
		if _, dup := seen[b.ID]; dup {
			return fmt.Errorf("%w: duplicate body id %q", ErrInvalidCatalog, b.ID)
		}
		seen[b.ID] = struct{}{}

		if b.Name == "" {
			b.Name = b.ID
		}
		if !(b.Size > 0) || math.IsInf(b.Size, 0) {
			return fmt.Errorf("%w: body %q size must be positive", ErrInvalidCatalog, b.ID)
		}
		if b.OrbitRadius < 0 || math.IsNaN(b.OrbitRadius) || math.IsInf(b.OrbitRadius, 0) {
			return fmt.Errorf("%w: body %q orbit radius must be a non-negative number", ErrInvalidCatalog, b.ID)
		}
		if b.PeriodDays < 0 || math.IsNaN(b.PeriodDays) {
			return fmt.Errorf("%w: body %q period must not be negative", ErrInvalidCatalog, b.ID)
		}
		if b.Central {
			central++
			if b.OrbitRadius != 0 {
				return fmt.Errorf("%w: central body %q must have zero orbit radius", ErrInvalidCatalog, b.ID)
			}
		}
	}
	if central != 1 {
		return fmt.Errorf("%w: want exactly one central body, got %d", ErrInvalidCatalog, central)
	}
	return nil
}

// Central returns the catalog's central body, or nil.
func Central(bodies []*model.CelestialBody) *model.CelestialBody {
	for _, b := range bodies {
		if b != nil && b.Central {
			return b
		}
	}
	return nil
}

// materialFromString is tolerant: anything but "basic" renders lit.
func materialFromString(s string) model.MaterialKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "basic", "unlit", "emissive":
		return model.MaterialBasic
	default:
		return model.MaterialStandard
	}
}
