package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestToTashkent(t *testing.T) {
	utc := time.Date(2026, 3, 15, 20, 30, 0, 0, time.UTC)
	local := ToTashkent(utc)

	// UTC+5 rolls 20:30 into the next day.
	assert.Equal(t, 16, local.Day())
	assert.Equal(t, 1, local.Hour())
	assert.Equal(t, 30, local.Minute())
}

func TestFormatDate(t *testing.T) {
	utc := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "15.03.2026", FormatDate(utc))

	// 21:00 UTC is already the 16th in Tashkent.
	late := time.Date(2026, 3, 15, 21, 0, 0, 0, time.UTC)
	assert.Equal(t, "16.03.2026", FormatDate(late))
}

func TestFormatDateTime(t *testing.T) {
	utc := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)
	assert.Equal(t, "15.03.2026 15:30", FormatDateTime(utc))
}

func TestStartOfDay(t *testing.T) {
	utc := time.Date(2026, 3, 15, 10, 30, 45, 0, time.UTC)
	start := StartOfDay(utc)

	assert.Equal(t, 0, start.Hour())
	assert.Equal(t, 0, start.Minute())
	assert.Equal(t, 15, start.Day())
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "45 min", FormatDuration(45*time.Minute))
	assert.Equal(t, "2h 15m", FormatDuration(2*time.Hour+15*time.Minute))
	assert.Equal(t, "0 min", FormatDuration(20*time.Second))
}
