package core

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/signalsfoundry/orrery/model"
)

func pickBodies() []*model.CelestialBody {
	return []*model.CelestialBody{
		{ID: "sun", Size: 20, Central: true},
		{ID: "earth", Size: 4, OrbitRadius: 70, Position: model.Coordinates{X: 70}},
		{ID: "mars", Size: 3.5, OrbitRadius: 80, Position: model.Coordinates{X: 80}},
	}
}

func TestPickNearestWins(t *testing.T) {
	// Looking down -x from beyond mars passes through mars, earth and the sun.
	ray := Ray{Origin: Vec3{X: 200}, Direction: Vec3{X: -1}}
	hits := IntersectBodies(ray, pickBodies())
	if len(hits) != 3 {
		t.Fatalf("hits = %+v, want 3", hits)
	}
	if hits[0].BodyID != "mars" || hits[1].BodyID != "earth" || hits[2].BodyID != "sun" {
		t.Fatalf("hit order = %+v", hits)
	}
	hit, ok := Pick(ray, pickBodies())
	if !ok || hit.BodyID != "mars" {
		t.Fatalf("Pick = %+v, %v; want mars", hit, ok)
	}
	if hit.Distance < 116.5-tol || hit.Distance > 116.5+tol {
		t.Fatalf("distance = %v, want 116.5", hit.Distance)
	}
}

func TestPickMiss(t *testing.T) {
	ray := Ray{Origin: Vec3{Y: 100}, Direction: Vec3{X: 1}}
	if hit, ok := Pick(ray, pickBodies()); ok {
		t.Fatalf("expected miss, got %+v", hit)
	}
}

func TestClickSelectsAndMissDeselects(t *testing.T) {
	f := newFocusFixture(t)

	id, err := f.ctrl.Click(Ray{Origin: Vec3{X: 70, Z: 100}, Direction: Vec3{Z: -1}})
	if err != nil || id != "earth" {
		t.Fatalf("Click = %q, %v; want earth", id, err)
	}
	if f.ctrl.Selected() != "earth" {
		t.Fatalf("selected = %q", f.ctrl.Selected())
	}

	f.tickAt(time.Second)
	id, err = f.ctrl.Click(Ray{Origin: Vec3{Y: 500}, Direction: Vec3{X: 1}})
	if err != nil || id != "" {
		t.Fatalf("miss Click = %q, %v", id, err)
	}
	if f.ctrl.Selected() != "" || len(f.scene.VisibleLabels()) != 0 {
		t.Fatalf("miss did not deselect")
	}
}

func TestClickFromInsideCentralBody(t *testing.T) {
	f := newFocusFixture(t)
	if err := f.ctrl.SelectBody("sun"); err != nil {
		t.Fatalf("SelectBody: %v", err)
	}
	f.tickAt(2 * time.Second)
	cam := f.ctrl.Camera().Position
	if cam != (Vec3{Z: MinDistance}) {
		t.Fatalf("camera = %+v, want (0, 0, %v)", cam, MinDistance)
	}

	toMercury := Ray{Origin: cam, Direction: Vec3{X: 50}.Sub(cam)}
	for _, h := range IntersectBodies(toMercury, f.scene.ListBodies()) {
		if h.BodyID == "sun" {
			t.Fatalf("enclosing sun reported as hit: %+v", h)
		}
	}
	id, err := f.ctrl.Click(toMercury)
	if err != nil || id != "mercury" {
		t.Fatalf("Click = %q, %v; want mercury", id, err)
	}
	if f.ctrl.Selected() != "mercury" {
		t.Fatalf("selected = %q", f.ctrl.Selected())
	}
}

func TestNewRay(t *testing.T) {
	origin := &model.Coordinates{X: 1, Y: 2, Z: 3}
	tests := []struct {
		name      string
		origin    *model.Coordinates
		direction *model.Coordinates
		wantErr   bool
	}{
		{"valid", origin, &model.Coordinates{Z: -1}, false},
		{"no origin", nil, &model.Coordinates{Z: -1}, true},
		{"no direction", origin, nil, true},
		{"zero direction", origin, &model.Coordinates{}, true},
		{"NaN direction", origin, &model.Coordinates{X: math.NaN()}, true},
		{"infinite origin", &model.Coordinates{Y: math.Inf(1)}, &model.Coordinates{Z: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ray, err := NewRay(tt.origin, tt.direction)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRay) {
					t.Fatalf("NewRay error = %v, want ErrInvalidRay", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewRay: %v", err)
			}
			if ray.Origin != (Vec3{X: 1, Y: 2, Z: 3}) || ray.Direction != (Vec3{Z: -1}) {
				t.Fatalf("ray = %+v", ray)
			}
		})
	}
}
