// Package streak derives consecutive-day completion streaks from task
// completion timestamps.
package streak

import "time"

// DateKey normalises a timestamp to its local calendar date.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// DaySet collects the distinct calendar dates present in the given
// timestamps.
func DaySet(times []time.Time) map[string]struct{} {
	set := make(map[string]struct{}, len(times))
	for _, t := range times {
		set[DateKey(t)] = struct{}{}
	}
	return set
}

// Current counts consecutive calendar days with at least one completion,
// walking backward from today. A day without a completion stops the count,
// so a child with no completion today has a streak of 0: streak credit
// requires same-day activity, there is no yesterday grace period.
//
// The caller supplies completions from a bounded window, so a true streak
// longer than the window is reported at the window size.
func Current(days map[string]struct{}, today time.Time) int {
	count := 0
	for d := today; ; d = d.AddDate(0, 0, -1) {
		if _, ok := days[DateKey(d)]; !ok {
			break
		}
		count++
	}
	return count
}
