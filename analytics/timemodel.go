package analytics

import (
	"strconv"
	"strings"

	"prodstat/database"
)

// BreakWindow is one optional break inside a shift, both ends as
// "HH:MM" times of day. Breaks are assumed not to cross midnight.
type BreakWindow struct {
	Start string
	End   string
}

const minutesPerDay = 24 * 60

// minuteOfDay parses an "HH:MM" time of day into minutes since midnight.
func minuteOfDay(s string) (int, bool) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// LoadingTimeSeconds converts a shift definition into the total seconds
// available for work: the work window (wrapping past midnight when the
// end precedes the start) minus all complete break windows. Break pairs
// with a missing or unparseable side are ignored entirely rather than
// partially counted. The result never goes below zero.
func LoadingTimeSeconds(workStart, workEnd string, breaks []BreakWindow) int {
	start, ok := minuteOfDay(workStart)
	if !ok {
		return 0
	}
	end, ok := minuteOfDay(workEnd)
	if !ok {
		return 0
	}

	if end < start {
		// Overnight shift: the end belongs to the next day.
		end += minutesPerDay
	}
	work := end - start

	breakTotal := 0
	for _, b := range breaks {
		bs, okS := minuteOfDay(b.Start)
		be, okE := minuteOfDay(b.End)
		if !okS || !okE {
			continue
		}
		if be > bs {
			breakTotal += be - bs
		}
	}

	minutes := work - breakTotal
	if minutes < 0 {
		minutes = 0
	}
	return minutes * 60
}

// ShiftLoadingTime derives the loading time for a shift record from its
// work window and break fields. Used when the shift is created or edited;
// afterwards the stored value is authoritative.
func ShiftLoadingTime(s database.Shift) int {
	return LoadingTimeSeconds(s.WorkStart, s.WorkEnd, shiftBreaks(s))
}

func shiftBreaks(s database.Shift) []BreakWindow {
	return []BreakWindow{
		{Start: s.Break1Start, End: s.Break1End},
		{Start: s.Break2Start, End: s.Break2End},
		{Start: s.Break3Start, End: s.Break3End},
	}
}
