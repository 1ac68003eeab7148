package core

import (
	"errors"
	"fmt"
	"math"
)

const twoPi = 2 * math.Pi

var (
	// ErrDegeneratePeriod reports a zero, negative or non-finite orbital period.
	ErrDegeneratePeriod = errors.New("orbital period must be a positive number of days")
	// ErrInvalidTimeOffset reports a time offset that is negative or not a finite number.
	ErrInvalidTimeOffset = errors.New("time offset must be a finite, non-negative number of days")
)

// TimeOffset is the elapsed-days value that seeds every body's angle.
// It is supplied once at startup and never changes.
type TimeOffset float64

// NewTimeOffset validates days and returns it as a TimeOffset.
func NewTimeOffset(days float64) (TimeOffset, error) {
	if math.IsNaN(days) || math.IsInf(days, 0) || days < 0 {
		return 0, fmt.Errorf("%w: got %v", ErrInvalidTimeOffset, days)
	}
	return TimeOffset(days), nil
}

// Days returns the offset as a plain number of days.
func (t TimeOffset) Days() float64 { return float64(t) }

// AngleOf returns the orbital angle in [0, 2π) reached after offsetDays on an
// orbit of periodDays: 2π · (T mod P) / P.
func AngleOf(periodDays, offsetDays float64) (float64, error) {
	if !validPeriod(periodDays) {
		return 0, fmt.Errorf("%w: got %v", ErrDegeneratePeriod, periodDays)
	}
	if math.IsNaN(offsetDays) || math.IsInf(offsetDays, 0) || offsetDays < 0 {
		return 0, fmt.Errorf("%w: got %v", ErrInvalidTimeOffset, offsetDays)
	}

	angle := twoPi * (math.Mod(offsetDays, periodDays) / periodDays)
	if angle >= twoPi {
		// Rounding of a fraction just below 1.
		angle = 0
	}
	return angle, nil
}

// PositionOf places a point at angle on a circle of radius centred at the
// origin in the x-z plane.
func PositionOf(radius, angle float64) Vec3 {
	return Vec3{
		X: radius * math.Cos(angle),
		Y: 0,
		Z: radius * math.Sin(angle),
	}
}

func validPeriod(p float64) bool {
	return p > 0 && !math.IsInf(p, 1)
}
