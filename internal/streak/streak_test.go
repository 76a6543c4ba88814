package streak

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(t *testing.T, offset int) time.Time {
	t.Helper()
	base := time.Date(2026, 8, 31, 14, 30, 0, 0, time.Local)
	return base.AddDate(0, 0, offset)
}

func TestCurrentEmptySet(t *testing.T) {
	assert.Equal(t, 0, Current(DaySet(nil), day(t, 0)))
}

func TestCurrentConsecutiveRun(t *testing.T) {
	// Today plus the five preceding days with no gap.
	times := []time.Time{}
	for offset := 0; offset >= -5; offset-- {
		times = append(times, day(t, offset))
	}
	assert.Equal(t, 6, Current(DaySet(times), day(t, 0)))
}

func TestCurrentGapTerminates(t *testing.T) {
	// Completions today and two days ago but not yesterday.
	times := []time.Time{day(t, 0), day(t, -2)}
	assert.Equal(t, 1, Current(DaySet(times), day(t, 0)))
}

func TestCurrentNoCompletionToday(t *testing.T) {
	// Yesterday and before do not count without a completion today.
	times := []time.Time{day(t, -1), day(t, -2), day(t, -3)}
	assert.Equal(t, 0, Current(DaySet(times), day(t, 0)))
}

func TestCurrentMultipleCompletionsSameDay(t *testing.T) {
	times := []time.Time{
		day(t, 0),
		day(t, 0).Add(2 * time.Hour),
		day(t, -1),
	}
	assert.Equal(t, 2, Current(DaySet(times), day(t, 0)))
}

func TestCurrentCrossesMonthBoundary(t *testing.T) {
	// Aug 31 back into Aug 28.
	times := []time.Time{day(t, 0), day(t, -1), day(t, -2), day(t, -3)}
	assert.Equal(t, 4, Current(DaySet(times), day(t, 0)))
}
