package calendar

import "time"

type wallClock struct {
	hour   int
	minute int
}

// Posting-time pools are timezone-local wall-clock times.
var postingTimes = map[string][]wallClock{
	PlatformInstagram: {{12, 0}, {18, 30}, {21, 0}},
	PlatformTikTok:    {{14, 0}, {20, 0}},
}

var defaultPostingTimes = []wallClock{{12, 0}, {18, 0}}

// maxSlotsPerDay caps posting density: short horizons get one post per day,
// longer ones two.
func maxSlotsPerDay(totalSlots int) int {
	if totalSlots <= 14 {
		return 1
	}
	return 2
}

// AssignScheduledAt maps each brief slot index to a concrete timestamp.
// Slots are consumed in the given order, each taking the current day's next
// available time from its platform's pool; the day advances once maxPerDay
// slots have been placed. Greedy, single pass, no reordering.
func AssignScheduledAt(slots []BriefSlot, weekStart time.Time, loc *time.Location) map[int]string {
	if loc == nil {
		loc = time.UTC
	}
	maxPerDay := maxSlotsPerDay(len(slots))

	day := time.Date(weekStart.Year(), weekStart.Month(), weekStart.Day(), 0, 0, 0, 0, loc)
	placedOnDay := 0
	platformOnDay := make(map[string]int)

	out := make(map[int]string, len(slots))
	for _, slot := range slots {
		pool := postingTimes[slot.Platform]
		if len(pool) == 0 {
			pool = defaultPostingTimes
		}
		tick := pool[platformOnDay[slot.Platform]%len(pool)]
		ts := time.Date(day.Year(), day.Month(), day.Day(), tick.hour, tick.minute, 0, 0, loc)
		out[slot.SlotIndex] = ts.Format(time.RFC3339)

		platformOnDay[slot.Platform]++
		placedOnDay++
		if placedOnDay >= maxPerDay {
			day = day.AddDate(0, 0, 1)
			placedOnDay = 0
			platformOnDay = make(map[string]int)
		}
	}
	return out
}

// NextWeekStart returns the next Monday after now in the given timezone.
func NextWeekStart(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	offset := (int(time.Monday) - int(day.Weekday()) + 7) % 7
	if offset == 0 {
		offset = 7
	}
	return day.AddDate(0, 0, offset)
}
