package timegroup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var base = time.Date(2024, 5, 14, 12, 0, 0, 0, time.Local)

func TestShowDividerFirstMessage(t *testing.T) {
	assert.True(t, ShowDivider(false, time.Time{}, base))
}

func TestShowDividerGapWithinLimit(t *testing.T) {
	assert.False(t, ShowDivider(true, base, base.Add(5*time.Minute)))
	assert.False(t, ShowDivider(true, base, base.Add(10*time.Minute)))
}

func TestShowDividerGapExceedsLimit(t *testing.T) {
	assert.True(t, ShowDivider(true, base, base.Add(11*time.Minute)))
}

func TestShowDividerDayChange(t *testing.T) {
	// Small gap across midnight still forces a divider.
	lateNight := time.Date(2024, 5, 14, 23, 58, 0, 0, time.Local)
	earlyMorning := time.Date(2024, 5, 15, 0, 1, 0, 0, time.Local)
	assert.True(t, ShowDivider(true, lateNight, earlyMorning))

	assert.True(t, ShowDivider(true, base, base.AddDate(0, 0, 1)))
}

func TestLabel(t *testing.T) {
	now := time.Date(2024, 5, 15, 9, 30, 0, 0, time.Local)

	assert.Equal(t, "Today", Label(now.Add(-time.Hour), now))
	assert.Equal(t, "Yesterday", Label(base, now))
	assert.Equal(t, "5/1/2024", Label(time.Date(2024, 5, 1, 8, 0, 0, 0, time.Local), now))
}

func TestFormatTimeShort(t *testing.T) {
	assert.Equal(t, "12:00", FormatTimeShort(base))
}
