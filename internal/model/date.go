package model

import "time"

// Stay dates are calendar dates.  They are carried as time.Time values at
// midnight UTC so that date arithmetic never crosses a DST boundary and the
// value round-trips through DATE columns unchanged.

// Date builds a calendar date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf returns the calendar date of t as observed in loc.
func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return Date(y, m, d)
}

// NightsBetween counts the nights in [checkIn, checkOut).  It is negative
// when checkOut precedes checkIn.
func NightsBetween(checkIn, checkOut time.Time) int {
	a := DateOf(checkIn, time.UTC)
	b := DateOf(checkOut, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// StartOfDay maps a calendar date to its first instant in loc.
func StartOfDay(date time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, s, time.UTC)
}
