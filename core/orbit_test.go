package core

import (
	"errors"
	"math"
	"testing"
)

const tol = 1e-9

func TestAngleOfScenarios(t *testing.T) {
	tests := []struct {
		name   string
		offset float64
		want   float64
		pos    Vec3
	}{
		{"epoch", 0, 0, Vec3{X: 70}},
		{"half period", 182.5, math.Pi, Vec3{X: -70}},
		{"full period wraps", 365, 0, Vec3{X: 70}},
		{"quarter period", 91.25, math.Pi / 2, Vec3{Z: 70}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			angle, err := AngleOf(365, tt.offset)
			if err != nil {
				t.Fatalf("AngleOf error: %v", err)
			}
			if math.Abs(angle-tt.want) > tol {
				t.Fatalf("angle = %v, want %v", angle, tt.want)
			}
			pos := PositionOf(70, angle)
			if pos.DistanceTo(tt.pos) > tol {
				t.Fatalf("position = %+v, want %+v", pos, tt.pos)
			}
		})
	}
}

func TestAngleOfRangeAndPeriodicity(t *testing.T) {
	periods := []float64{88, 225, 365, 687, 4333, 10759, 30687, 60190}
	offsets := []float64{0, 0.5, 1, 17.25, 364.999, 9131.5, 123456.789}

	for _, p := range periods {
		for _, off := range offsets {
			a, err := AngleOf(p, off)
			if err != nil {
				t.Fatalf("AngleOf(%v, %v): %v", p, off, err)
			}
			if a < 0 || a >= 2*math.Pi {
				t.Fatalf("AngleOf(%v, %v) = %v, outside [0, 2π)", p, off, a)
			}
			for _, k := range []float64{1, 2, 7} {
				b, err := AngleOf(p, off+k*p)
				if err != nil {
					t.Fatalf("AngleOf(%v, %v): %v", p, off+k*p, err)
				}
				// Angles just below 2π and just above 0 are the same point.
				diff := math.Abs(a - b)
				if diff > 2*math.Pi-1e-6 {
					diff = 2*math.Pi - diff
				}
				if diff > 1e-6 {
					t.Fatalf("periodicity broken for P=%v T=%v k=%v: %v vs %v", p, off, k, a, b)
				}
			}
		}
	}
}

func TestAngleOfRejectsDegenerateInputs(t *testing.T) {
	for _, p := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if _, err := AngleOf(p, 10); !errors.Is(err, ErrDegeneratePeriod) {
			t.Errorf("AngleOf(period=%v) error = %v, want ErrDegeneratePeriod", p, err)
		}
	}
	for _, off := range []float64{-1, math.NaN(), math.Inf(1)} {
		if _, err := AngleOf(365, off); !errors.Is(err, ErrInvalidTimeOffset) {
			t.Errorf("AngleOf(offset=%v) error = %v, want ErrInvalidTimeOffset", off, err)
		}
	}
}

func TestPositionOfLiesOnCircle(t *testing.T) {
	for _, r := range []float64{0, 50, 70, 160} {
		for a := 0.0; a < 2*math.Pi; a += 0.37 {
			p := PositionOf(r, a)
			if p.Y != 0 {
				t.Fatalf("PositionOf(%v, %v).Y = %v, want 0", r, a, p.Y)
			}
			if math.Abs(p.X*p.X+p.Z*p.Z-r*r) > 1e-6 {
				t.Fatalf("PositionOf(%v, %v) = %+v not on circle", r, a, p)
			}
		}
	}
}

func TestPositionOfDeterministic(t *testing.T) {
	a, _ := AngleOf(687, 1234.5)
	first := PositionOf(80, a)
	for i := 0; i < 10; i++ {
		b, _ := AngleOf(687, 1234.5)
		if got := PositionOf(80, b); got != first {
			t.Fatalf("run %d = %+v, want %+v", i, got, first)
		}
	}
}

func TestNewTimeOffset(t *testing.T) {
	if off, err := NewTimeOffset(182.5); err != nil || off.Days() != 182.5 {
		t.Fatalf("NewTimeOffset(182.5) = (%v, %v)", off, err)
	}
	for _, bad := range []float64{-0.1, math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := NewTimeOffset(bad); !errors.Is(err, ErrInvalidTimeOffset) {
			t.Errorf("NewTimeOffset(%v) error = %v, want ErrInvalidTimeOffset", bad, err)
		}
	}
}
