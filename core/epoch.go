package core

import (
	"fmt"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

// J2000 is the default reference date for date-derived offsets.
var J2000 = time.Date(2000, time.January, 1, 12, 0, 0, 0, time.UTC)

// OffsetFromDate returns the whole and fractional days from epoch to date,
// counted on Julian dates. A date before the epoch is rejected.
func OffsetFromDate(epoch, date time.Time) (TimeOffset, error) {
	days := julianDay(date) - julianDay(epoch)
	off, err := NewTimeOffset(days)
	if err != nil {
		return 0, fmt.Errorf("date %s is before epoch %s: %w",
			date.UTC().Format(time.RFC3339), epoch.UTC().Format(time.RFC3339), err)
	}
	return off, nil
}

func julianDay(t time.Time) float64 {
	t = t.UTC()
	year, month, day := t.Date()
	hour, min, sec := t.Clock()
	return satellite.JDay(year, int(month), day, hour, min, sec)
}
