// Package timeutil provides timezone utilities for Tashkent time (UTC+5).
// Timestamps are stored in UTC and converted at the presentation layer,
// since the bot's audience is in Uzbekistan.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"time"
)

// TashkentTZ is the Tashkent timezone (UTC+5, no DST).
var TashkentTZ = time.FixedZone("Asia/Tashkent", 5*60*60)

// Now returns the current time in Tashkent timezone.
func Now() time.Time {
	return time.Now().In(TashkentTZ)
}

// ToTashkent converts a time to Tashkent timezone.
func ToTashkent(t time.Time) time.Time {
	return t.In(TashkentTZ)
}

// StartOfDay returns the start of the day (00:00:00) in Tashkent timezone.
func StartOfDay(t time.Time) time.Time {
	local := ToTashkent(t)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, TashkentTZ)
}

// IsToday checks if the given time is today in Tashkent timezone.
func IsToday(t time.Time) bool {
	now := Now()
	local := ToTashkent(t)
	return local.Year() == now.Year() &&
		local.Month() == now.Month() &&
		local.Day() == now.Day()
}

// FormatDate formats a time as "02.01.2006" in Tashkent timezone.
func FormatDate(t time.Time) string {
	return ToTashkent(t).Format("02.01.2006")
}

// FormatDateTime formats a time as "02.01.2006 15:04" in Tashkent timezone.
func FormatDateTime(t time.Time) string {
	return ToTashkent(t).Format("02.01.2006 15:04")
}

// FormatDuration renders a duration in short form, hours and minutes only.
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h == 0 {
		return fmt.Sprintf("%d min", m)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}
