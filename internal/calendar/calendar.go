package calendar

import (
	"fmt"
	"time"

	"glowRoutineAPI/internal/progress"
)

type CalendarDay struct {
	Date      string `json:"date"`
	Morning   bool   `json:"morning"`
	Night     bool   `json:"night"`
	Completed bool   `json:"completed"`
	IsToday   bool   `json:"is_today"`
}

type CalendarResponse struct {
	Year          int            `json:"year"`
	Month         int            `json:"month"`
	CompletedDays int            `json:"completed_days"`
	PerfectDays   int            `json:"perfect_days"`
	Days          []*CalendarDay `json:"days"`
}

// Build lays out every day of the month with its slot completions. today is
// the caller's logical date.
func Build(completions map[string]progress.DayCompletions, year, month int, today time.Time) (*CalendarResponse, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("invalid month %d", month)
	}
	if year < 1970 || year > 9999 {
		return nil, fmt.Errorf("invalid year %d", year)
	}

	startDate := time.Date(year, time.Month(month), 1, 12, 0, 0, 0, time.UTC)
	endDate := startDate.AddDate(0, 1, -1)
	todayStr := today.Format(progress.DateLayout)

	resp := &CalendarResponse{Year: year, Month: month}
	for d := startDate; !d.After(endDate); d = d.AddDate(0, 0, 1) {
		dateStr := d.Format(progress.DateLayout)
		entry := completions[dateStr]
		day := &CalendarDay{
			Date:      dateStr,
			Morning:   entry.IsCompleted(progress.SlotMorning),
			Night:     entry.IsCompleted(progress.SlotNight),
			Completed: entry.Qualifies(),
			IsToday:   dateStr == todayStr,
		}
		if day.Completed {
			resp.CompletedDays++
		}
		if day.Morning && day.Night {
			resp.PerfectDays++
		}
		resp.Days = append(resp.Days, day)
	}

	return resp, nil
}
