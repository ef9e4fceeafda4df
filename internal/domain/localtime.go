package domain

import "time"

// US Pacific offsets from UTC, in hours.
const (
	pacificStandardOffset = -8
	pacificDaylightOffset = -7
)

// PacificLocalTime converts a UTC-anchored timestamp into US Pacific civil
// time using the fixed federal rule: daylight saving runs from the second
// Sunday of March 02:00 through the first Sunday of November 02:00, UTC-7
// while active and UTC-8 otherwise.
func PacificLocalTime(t time.Time) time.Time {
	offset := pacificStandardOffset
	if pacificDSTActive(t) {
		offset = pacificDaylightOffset
	}
	return t.UTC().Add(time.Duration(offset) * time.Hour)
}

// pacificDSTActive reports whether daylight saving is in effect at t.
func pacificDSTActive(t time.Time) bool {
	t = t.UTC()
	start := nthSunday(t.Year(), time.March, 2).Add(2 * time.Hour)
	end := nthSunday(t.Year(), time.November, 1).Add(2 * time.Hour)
	return !t.Before(start) && t.Before(end)
}

// nthSunday returns midnight of the nth Sunday of the given month.
func nthSunday(year int, month time.Month, n int) time.Time {
	d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (7 - int(d.Weekday())) % 7
	return d.AddDate(0, 0, offset+(n-1)*7)
}
