package progress

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used as the completions map key.
const DateLayout = "2006-01-02"

type Slot string

const (
	SlotMorning Slot = "morning"
	SlotNight   Slot = "night"
)

func (s Slot) Valid() bool {
	return s == SlotMorning || s == SlotNight
}

type CompletionRecord struct {
	Completed bool  `json:"completed" firestore:"completed"`
	Timestamp int64 `json:"timestamp" firestore:"timestamp"`
}

type DayCompletions struct {
	Morning *CompletionRecord `json:"morning,omitempty" firestore:"morning,omitempty"`
	Night   *CompletionRecord `json:"night,omitempty" firestore:"night,omitempty"`
}

// Get returns the record stored for slot, or nil when the slot was never written.
func (d DayCompletions) Get(slot Slot) *CompletionRecord {
	switch slot {
	case SlotMorning:
		return d.Morning
	case SlotNight:
		return d.Night
	}
	return nil
}

func (d *DayCompletions) Set(slot Slot, rec CompletionRecord) {
	switch slot {
	case SlotMorning:
		d.Morning = &rec
	case SlotNight:
		d.Night = &rec
	}
}

func (d DayCompletions) IsCompleted(slot Slot) bool {
	rec := d.Get(slot)
	return rec != nil && rec.Completed
}

// Qualifies reports whether at least one slot of the day is completed.
func (d DayCompletions) Qualifies() bool {
	return d.IsCompleted(SlotMorning) || d.IsCompleted(SlotNight)
}

type ProgressData struct {
	CurrentStreak     int                       `json:"currentStreak" firestore:"currentStreak"`
	LongestStreak     int                       `json:"longestStreak" firestore:"longestStreak"`
	TotalCompletions  int                       `json:"totalCompletions" firestore:"totalCompletions"`
	LastCompletedDate string                    `json:"lastCompletedDate" firestore:"lastCompletedDate"`
	Completions       map[string]DayCompletions `json:"completions" firestore:"completions"`
}

// New returns the zeroed document a user starts with.
func New() *ProgressData {
	return &ProgressData{
		Completions: make(map[string]DayCompletions),
	}
}

func (p *ProgressData) IsCompleted(date string, slot Slot) bool {
	day, ok := p.Completions[date]
	if !ok {
		return false
	}
	return day.IsCompleted(slot)
}

// Complete marks slot on date as done at ts. It reports whether the slot
// flipped from not-completed, which is the only case that counts toward
// TotalCompletions.
func (p *ProgressData) Complete(date string, slot Slot, ts int64) bool {
	if p.Completions == nil {
		p.Completions = make(map[string]DayCompletions)
	}
	day := p.Completions[date]
	was := day.IsCompleted(slot)
	day.Set(slot, CompletionRecord{Completed: true, Timestamp: ts})
	p.Completions[date] = day
	if !was {
		p.TotalCompletions++
	}
	return !was
}

// Uncomplete writes a tombstone for a completed slot. Slots that are not
// completed are left untouched and false is returned.
func (p *ProgressData) Uncomplete(date string, slot Slot, ts int64) bool {
	if !p.IsCompleted(date, slot) {
		return false
	}
	day := p.Completions[date]
	day.Set(slot, CompletionRecord{Completed: false, Timestamp: ts})
	p.Completions[date] = day
	p.TotalCompletions--
	if p.TotalCompletions < 0 {
		p.TotalCompletions = 0
	}
	return true
}

// Recompute refreshes CurrentStreak from the completion map. LongestStreak is
// only raised when raiseLongest is set; removals keep the historical peak.
func (p *ProgressData) Recompute(now time.Time, raiseLongest bool) Streak {
	streak := CalculateStreak(p.Completions, now)
	p.CurrentStreak = streak.Current
	if raiseLongest && streak.Current > p.LongestStreak {
		p.LongestStreak = streak.Current
	}
	return streak
}

// Clone returns a deep copy so callers can diff before/after a mutation.
func (p *ProgressData) Clone() *ProgressData {
	out := *p
	out.Completions = make(map[string]DayCompletions, len(p.Completions))
	for date, day := range p.Completions {
		var cp DayCompletions
		if day.Morning != nil {
			m := *day.Morning
			cp.Morning = &m
		}
		if day.Night != nil {
			n := *day.Night
			cp.Night = &n
		}
		out.Completions[date] = cp
	}
	return &out
}

// ParseDate validates a YYYY-MM-DD calendar date.
func ParseDate(date string) (time.Time, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", date)
	}
	return t, nil
}

func ParseSlot(s string) (Slot, error) {
	slot := Slot(s)
	if !slot.Valid() {
		return "", fmt.Errorf("invalid slot %q, expected morning or night", s)
	}
	return slot, nil
}
