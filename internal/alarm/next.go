package alarm

import "time"

// NextDailyFire returns the next instant at hour:minute:00.000 in now's
// location that is strictly after now. The day is advanced on the calendar,
// so the result keeps the same wall-clock time across DST transitions.
func NextDailyFire(now time.Time, hour, minute int) time.Time {
	y, m, d := now.Date()
	at := time.Date(y, m, d, hour, minute, 0, 0, now.Location())
	if !at.After(now) {
		at = time.Date(y, m, d+1, hour, minute, 0, 0, now.Location())
	}
	return at
}
