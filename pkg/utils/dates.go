package utils

import "time"

const day = 24 * time.Hour

// DateOnly truncates t to midnight UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddDays shifts t by n whole days.
func AddDays(t time.Time, n int) time.Time {
	return t.Add(time.Duration(n) * day)
}

// DaysUntil is the number of days from now to t rounded up, so any part of
// a day counts as a full one. Negative when t is in the past.
func DaysUntil(t, now time.Time) int {
	d := t.Sub(now)
	days := int(d / day)
	if d%day > 0 {
		days++
	}
	return days
}
