package alarm

import (
	"testing"
	"time"
)

func TestNextDailyFire(t *testing.T) {
	day := func(d, h, m, s, ns int) time.Time {
		return time.Date(2026, time.May, d, h, m, s, ns, time.UTC)
	}
	tests := []struct {
		name string
		now  time.Time
		hour int
		min  int
		want time.Time
	}{
		{"before target", day(10, 8, 0, 0, 0), 9, 0, day(10, 9, 0, 0, 0)},
		{"equal to target", day(10, 9, 0, 0, 0), 9, 0, day(11, 9, 0, 0, 0)},
		{"after target", day(10, 10, 30, 0, 0), 9, 0, day(11, 9, 0, 0, 0)},
		{"sub-second before", day(10, 8, 59, 59, 999), 9, 0, day(10, 9, 0, 0, 0)},
		{"sub-second after", day(10, 9, 0, 0, 1), 9, 0, day(11, 9, 0, 0, 0)},
		{"midnight", day(10, 23, 59, 0, 0), 0, 0, day(11, 0, 0, 0, 0)},
		{"end of month", time.Date(2026, time.May, 31, 22, 0, 0, 0, time.UTC), 21, 15,
			time.Date(2026, time.June, 1, 21, 15, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextDailyFire(tt.now, tt.hour, tt.min)
			if !got.Equal(tt.want) {
				t.Errorf("NextDailyFire(%v, %d, %d) = %v, want %v", tt.now, tt.hour, tt.min, got, tt.want)
			}
			if !got.After(tt.now) {
				t.Errorf("result %v is not after now %v", got, tt.now)
			}
			if got.Second() != 0 || got.Nanosecond() != 0 {
				t.Errorf("seconds not normalised: %v", got)
			}
		})
	}
}

func loadZone(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Skipf("time zone %s unavailable: %v", name, err)
	}
	return loc
}

func TestNextDailyFire_DST(t *testing.T) {
	ny := loadZone(t, "America/New_York")

	tests := []struct {
		name    string
		now     time.Time
		elapsed time.Duration
	}{
		{"spring forward", time.Date(2026, time.March, 7, 9, 0, 0, 0, ny), 23 * time.Hour},
		{"fall back", time.Date(2026, time.October, 31, 9, 0, 0, 0, ny), 25 * time.Hour},
		{"ordinary day", time.Date(2026, time.July, 1, 9, 0, 0, 0, ny), 24 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextDailyFire(tt.now, 9, 0)
			if got.Hour() != 9 || got.Minute() != 0 {
				t.Errorf("expected 09:00 local, got %s", got.Format("15:04"))
			}
			if d := got.Sub(tt.now); d != tt.elapsed {
				t.Errorf("expected %v between fires, got %v", tt.elapsed, d)
			}
		})
	}
}
