package schedule

import (
	"fmt"
	"sort"
)

// Window is a single availability window within one day, expressed in
// minutes since midnight. Start < End for a non-empty window.
type Window struct {
	Start int
	End   int
}

// ExpandWindow produces the start times (minutes since midnight) of
// back-to-back slots of the given duration inside the window. Every start
// satisfies start >= w.Start and start+duration <= w.End. An inverted or
// empty window yields no slots.
func ExpandWindow(w Window, duration int) []int {
	if duration <= 0 || w.End <= w.Start {
		return []int{}
	}

	starts := make([]int, 0, (w.End-w.Start)/duration)
	for cur := w.Start; cur+duration <= w.End; cur += duration {
		starts = append(starts, cur)
	}

	return starts
}

// ExpandWindows expands each window independently, then sorts the combined
// starts ascending and collapses duplicate start times coming from
// overlapping windows.
func ExpandWindows(windows []Window, duration int) []int {
	var starts []int
	for _, w := range windows {
		starts = append(starts, ExpandWindow(w, duration)...)
	}

	sort.Ints(starts)

	deduped := starts[:0]
	for i, s := range starts {
		if i > 0 && s == starts[i-1] {
			continue
		}
		deduped = append(deduped, s)
	}

	return deduped
}

// MinuteOfDay converts wall-clock hours and minutes to minutes since
// midnight.
func MinuteOfDay(hour, minute int) int {
	return hour*60 + minute
}

// FormatMinute renders minutes since midnight as "HH:MM".
func FormatMinute(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// ParseMinute parses "HH:MM" into minutes since midnight.
func ParseMinute(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q: out of range", s)
	}

	return MinuteOfDay(h, m), nil
}
