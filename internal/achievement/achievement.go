package achievement

import (
	"sort"
	"time"

	"glowRoutineAPI/internal/progress"
)

type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

type CriteriaType string

const (
	CriteriaStreak      CriteriaType = "streak"
	CriteriaTotalDays   CriteriaType = "total_days"
	CriteriaPerfectWeek CriteriaType = "perfect_week"
	CriteriaMorning     CriteriaType = "morning_routines"
	CriteriaNight       CriteriaType = "night_routines"
)

type Achievement struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Description   string       `json:"description"`
	Icon          string       `json:"icon"`
	Rarity        Rarity       `json:"rarity"`
	CriteriaType  CriteriaType `json:"criteria_type"`
	CriteriaValue int          `json:"criteria_value"`
}

type AchievementWithStatus struct {
	Achievement
	Unlocked bool `json:"unlocked"`
	Progress int  `json:"progress"`
}

type Reward struct {
	Icon   string `json:"icon"`
	Name   string `json:"name"`
	Rarity Rarity `json:"rarity"`
}

type Challenge struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Target      int    `json:"target"`
	Current     int    `json:"current"`
	Reward      Reward `json:"reward"`
}

type UserStats struct {
	CurrentStreak      int `json:"current_streak"`
	LongestStreak      int `json:"longest_streak"`
	TotalDaysCompleted int `json:"total_days_completed"`
	PerfectWeeks       int `json:"perfect_weeks"`
	MorningRoutines    int `json:"morning_routines"`
	NightRoutines      int `json:"night_routines"`
}

var Catalog = []Achievement{
	{ID: "first-day", Name: "First Day", Description: "Complete your first routine", Icon: "✨", Rarity: RarityCommon, CriteriaType: CriteriaTotalDays, CriteriaValue: 1},
	{ID: "three-days", Name: "Consistency", Description: "Complete 3 days in a row", Icon: "🌟", Rarity: RarityCommon, CriteriaType: CriteriaStreak, CriteriaValue: 3},
	{ID: "morning-person", Name: "Early Bird", Description: "Complete 5 morning routines", Icon: "🌅", Rarity: RarityCommon, CriteriaType: CriteriaMorning, CriteriaValue: 5},
	{ID: "night-owl", Name: "Night Owl", Description: "Complete 5 night routines", Icon: "🌙", Rarity: RarityCommon, CriteriaType: CriteriaNight, CriteriaValue: 5},
	{ID: "week-warrior", Name: "Week Warrior", Description: "Complete 7 days in a row", Icon: "🔥", Rarity: RarityRare, CriteriaType: CriteriaStreak, CriteriaValue: 7},
	{ID: "two-weeks", Name: "Perfect Fortnight", Description: "Complete 15 days in a row", Icon: "💪", Rarity: RarityRare, CriteriaType: CriteriaStreak, CriteriaValue: 15},
	{ID: "perfect-week", Name: "Flawless Week", Description: "Complete morning and night for a whole week", Icon: "⭐", Rarity: RarityRare, CriteriaType: CriteriaPerfectWeek, CriteriaValue: 1},
	{ID: "dedicated", Name: "Dedicated", Description: "Complete routines on 20 days", Icon: "🎯", Rarity: RarityRare, CriteriaType: CriteriaTotalDays, CriteriaValue: 20},
	{ID: "monthly-master", Name: "Monthly Master", Description: "Complete 30 days in a row", Icon: "👑", Rarity: RarityEpic, CriteriaType: CriteriaStreak, CriteriaValue: 30},
	{ID: "habit-former", Name: "Habit Former", Description: "Complete routines on 50 days", Icon: "🏅", Rarity: RarityEpic, CriteriaType: CriteriaTotalDays, CriteriaValue: 50},
	{ID: "century-club", Name: "Century Club", Description: "Complete 100 days in a row", Icon: "💎", Rarity: RarityLegendary, CriteriaType: CriteriaStreak, CriteriaValue: 100},
	{ID: "skincare-legend", Name: "Skincare Legend", Description: "Complete routines on 100 days", Icon: "🌈", Rarity: RarityLegendary, CriteriaType: CriteriaTotalDays, CriteriaValue: 100},
}

var Challenges = []Challenge{
	{ID: "challenge-3-days", Title: "3-day streak", Description: "Complete your routine 3 days in a row", Icon: "🌟", Target: 3, Reward: Reward{Icon: "✨", Name: "Common", Rarity: RarityCommon}},
	{ID: "challenge-7-days", Title: "7-day streak", Description: "Complete your routine 7 days in a row", Icon: "🔥", Target: 7, Reward: Reward{Icon: "⭐", Name: "Rare", Rarity: RarityRare}},
	{ID: "challenge-15-days", Title: "15-day streak", Description: "Complete your routine 15 days in a row", Icon: "💪", Target: 15, Reward: Reward{Icon: "👑", Name: "Epic", Rarity: RarityEpic}},
	{ID: "challenge-30-days", Title: "30-day streak", Description: "Complete your routine 30 days in a row", Icon: "👑", Target: 30, Reward: Reward{Icon: "💎", Name: "Legendary", Rarity: RarityLegendary}},
	{ID: "challenge-100-days", Title: "100-day streak", Description: "Complete your routine 100 days in a row", Icon: "💎", Target: 100, Reward: Reward{Icon: "🌈", Name: "Legendary", Rarity: RarityLegendary}},
}

func (s UserStats) value(c CriteriaType) int {
	switch c {
	case CriteriaStreak:
		return s.CurrentStreak
	case CriteriaTotalDays:
		return s.TotalDaysCompleted
	case CriteriaPerfectWeek:
		return s.PerfectWeeks
	case CriteriaMorning:
		return s.MorningRoutines
	case CriteriaNight:
		return s.NightRoutines
	}
	return 0
}

func (a Achievement) UnlockedBy(s UserStats) bool {
	return s.value(a.CriteriaType) >= a.CriteriaValue
}

// StatsFromProgress derives achievement stats from a progress document.
func StatsFromProgress(p *progress.ProgressData) UserStats {
	stats := UserStats{
		CurrentStreak: p.CurrentStreak,
		LongestStreak: p.LongestStreak,
	}

	for _, day := range p.Completions {
		if day.Qualifies() {
			stats.TotalDaysCompleted++
		}
		if day.IsCompleted(progress.SlotMorning) {
			stats.MorningRoutines++
		}
		if day.IsCompleted(progress.SlotNight) {
			stats.NightRoutines++
		}
	}
	stats.PerfectWeeks = perfectWeeks(p.Completions)

	return stats
}

// perfectWeeks counts Monday-Sunday weeks in which every day has both
// slots completed.
func perfectWeeks(completions map[string]progress.DayCompletions) int {
	full := make(map[string]int)
	for date, day := range completions {
		if !day.IsCompleted(progress.SlotMorning) || !day.IsCompleted(progress.SlotNight) {
			continue
		}
		t, err := progress.ParseDate(date)
		if err != nil {
			continue
		}
		full[weekStart(t).Format(progress.DateLayout)]++
	}

	count := 0
	for _, days := range full {
		if days == 7 {
			count++
		}
	}
	return count
}

func weekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}

func Unlocked(s UserStats) []Achievement {
	var out []Achievement
	for _, a := range Catalog {
		if a.UnlockedBy(s) {
			out = append(out, a)
		}
	}
	return out
}

// CheckNew returns achievements satisfied by s that are not in previous.
func CheckNew(s UserStats, previous []string) []Achievement {
	seen := make(map[string]bool, len(previous))
	for _, id := range previous {
		seen[id] = true
	}
	var out []Achievement
	for _, a := range Unlocked(s) {
		if !seen[a.ID] {
			out = append(out, a)
		}
	}
	return out
}

func IDs(list []Achievement) []string {
	ids := make([]string, 0, len(list))
	for _, a := range list {
		ids = append(ids, a.ID)
	}
	return ids
}

// WithStatus lists the whole catalog, unlocked entries first.
func WithStatus(s UserStats) []*AchievementWithStatus {
	out := make([]*AchievementWithStatus, 0, len(Catalog))
	for _, a := range Catalog {
		out = append(out, &AchievementWithStatus{
			Achievement: a,
			Unlocked:    a.UnlockedBy(s),
			Progress:    min(s.value(a.CriteriaType), a.CriteriaValue),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Unlocked != out[j].Unlocked {
			return out[i].Unlocked
		}
		return out[i].CriteriaValue < out[j].CriteriaValue
	})
	return out
}

// CurrentChallenge returns the first streak challenge not yet reached, or the
// last one when all are done.
func CurrentChallenge(currentStreak int) Challenge {
	sorted := append([]Challenge(nil), Challenges...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Target < sorted[j].Target })

	for _, c := range sorted {
		if currentStreak < c.Target {
			c.Current = currentStreak
			return c
		}
	}
	last := sorted[len(sorted)-1]
	last.Current = currentStreak
	return last
}
