package progress

import "time"

const (
	// RolloverHour is the local hour before which the logical day is still
	// the previous calendar date.
	RolloverHour = 6
	// MaxStreakLookback bounds the backwards walk.
	MaxStreakLookback = 365
)

type Streak struct {
	Current int      `json:"current"`
	Dates   []string `json:"dates"`
}

// LogicalToday returns noon of the logical current day in now's location.
// Noon keeps AddDate stepping clear of DST gaps at midnight.
func LogicalToday(now time.Time) time.Time {
	if now.Hour() < RolloverHour {
		now = now.AddDate(0, 0, -1)
	}
	y, m, d := now.Date()
	return time.Date(y, m, d, 12, 0, 0, 0, now.Location())
}

// CalculateStreak walks back from the logical today counting consecutive
// qualifying days. A missing today is skipped once; any other gap ends the walk.
func CalculateStreak(completions map[string]DayCompletions, now time.Time) Streak {
	result := Streak{Dates: []string{}}
	if len(completions) == 0 {
		return result
	}

	day := LogicalToday(now)
	for i := 0; i < MaxStreakLookback; i++ {
		key := day.Format(DateLayout)
		if dc, ok := completions[key]; ok && dc.Qualifies() {
			result.Current++
			result.Dates = append(result.Dates, key)
		} else if i != 0 {
			break
		}
		day = day.AddDate(0, 0, -1)
	}

	return result
}
