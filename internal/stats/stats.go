package stats

import (
	"time"

	"glowRoutineAPI/internal/progress"
)

type DaysStat struct {
	Period        string `json:"period"` // "week", "month", "year", "all_time"
	DaysCompleted int    `json:"days_completed"`
	TotalDays     int    `json:"total_days"`
}

type UserStats struct {
	TodayStatus        bool `json:"today_status"`
	DaysThisWeek       int  `json:"days_this_week"`
	DaysThisMonth      int  `json:"days_this_month"`
	DaysThisYear       int  `json:"days_this_year"`
	TotalDaysCompleted int  `json:"total_days_completed"`
	TotalCompletions   int  `json:"total_completions"`
	CurrentStreak      int  `json:"current_streak"`
	LongestStreak      int  `json:"longest_streak"`
	AchievementsCount  int  `json:"achievements_count"`
}

// Periods counts qualifying days in the week (from Monday), month and year
// containing today, plus all time. Days after today are ignored.
func Periods(completions map[string]progress.DayCompletions, today time.Time) []*DaysStat {
	weekStart := today.AddDate(0, 0, -((int(today.Weekday()) + 6) % 7))
	monthStart := time.Date(today.Year(), today.Month(), 1, 12, 0, 0, 0, today.Location())
	yearStart := time.Date(today.Year(), time.January, 1, 12, 0, 0, 0, today.Location())

	daysInMonth := monthStart.AddDate(0, 1, -1).Day()
	daysInYear := 365
	if y := today.Year(); y%4 == 0 && (y%100 != 0 || y%400 == 0) {
		daysInYear = 366
	}

	week := &DaysStat{Period: "week", TotalDays: 7}
	month := &DaysStat{Period: "month", TotalDays: daysInMonth}
	year := &DaysStat{Period: "year", TotalDays: daysInYear}
	allTime := &DaysStat{Period: "all_time", TotalDays: len(completions)}

	todayStr := today.Format(progress.DateLayout)
	weekStr := weekStart.Format(progress.DateLayout)
	monthStr := monthStart.Format(progress.DateLayout)
	yearStr := yearStart.Format(progress.DateLayout)

	for date, day := range completions {
		if !day.Qualifies() {
			continue
		}
		allTime.DaysCompleted++
		if date > todayStr {
			continue
		}
		// YYYY-MM-DD strings order chronologically
		if date >= weekStr {
			week.DaysCompleted++
		}
		if date >= monthStr {
			month.DaysCompleted++
		}
		if date >= yearStr {
			year.DaysCompleted++
		}
	}

	return []*DaysStat{week, month, year, allTime}
}
