package routine

import (
	"fmt"
	"time"
)

type Type string

const (
	TypeDay   Type = "day"
	TypeNight Type = "night"
	TypeBoth  Type = "both"
)

type Frequency string

const (
	FrequencyDaily     Frequency = "daily"
	FrequencyAlternate Frequency = "alternate"
	FrequencyCustom    Frequency = "custom"
)

type Product struct {
	ID          string    `json:"id" firestore:"id"`
	Step        int       `json:"step" firestore:"step"`
	Title       string    `json:"title" firestore:"title"`
	AccessCode  string    `json:"accessCode" firestore:"accessCode"`
	Function    string    `json:"function" firestore:"function"`
	Usage       string    `json:"usage" firestore:"usage"`
	Image       string    `json:"image" firestore:"image"`
	RoutineType Type      `json:"routineType" firestore:"routineType"`
	Frequency   Frequency `json:"frequency,omitempty" firestore:"frequency,omitempty"`
	DaysOfWeek  []string  `json:"daysOfWeek,omitempty" firestore:"daysOfWeek,omitempty"`
	Enabled     bool      `json:"enabled" firestore:"enabled"`
}

// RoutineData is the per-user routine document. Nightly routines are keyed
// by English weekday name.
type RoutineData struct {
	DailyRoutine    []Product            `json:"dailyRoutine" firestore:"dailyRoutine"`
	NightlyRoutines map[string][]Product `json:"nightlyRoutines" firestore:"nightlyRoutines"`
	LastUpdated     int64                `json:"lastUpdated" firestore:"lastUpdated"`
}

// Weekdays lists the nightly routine keys, Monday first.
var Weekdays = []string{
	time.Monday.String(),
	time.Tuesday.String(),
	time.Wednesday.String(),
	time.Thursday.String(),
	time.Friday.String(),
	time.Saturday.String(),
	time.Sunday.String(),
}

func NewEmpty(now time.Time) *RoutineData {
	nightly := make(map[string][]Product, len(Weekdays))
	for _, day := range Weekdays {
		nightly[day] = []Product{}
	}
	return &RoutineData{
		DailyRoutine:    []Product{},
		NightlyRoutines: nightly,
		LastUpdated:     now.UnixMilli(),
	}
}

// HasProducts reports whether the user already configured any product.
func (d *RoutineData) HasProducts() bool {
	if d == nil {
		return false
	}
	if len(d.DailyRoutine) > 0 {
		return true
	}
	for _, products := range d.NightlyRoutines {
		if len(products) > 0 {
			return true
		}
	}
	return false
}

// ForNight returns the enabled products scheduled for the given weekday.
func (d *RoutineData) ForNight(day time.Weekday) []Product {
	var out []Product
	for _, p := range d.NightlyRoutines[day.String()] {
		if p.Enabled {
			out = append(out, p)
		}
	}
	return out
}

func (d *RoutineData) Validate() error {
	for i, p := range d.DailyRoutine {
		if err := p.validate(); err != nil {
			return fmt.Errorf("daily routine product %d: %w", i, err)
		}
	}
	valid := make(map[string]bool, len(Weekdays))
	for _, day := range Weekdays {
		valid[day] = true
	}
	for day, products := range d.NightlyRoutines {
		if !valid[day] {
			return fmt.Errorf("unknown weekday %q in nightly routines", day)
		}
		for i, p := range products {
			if err := p.validate(); err != nil {
				return fmt.Errorf("%s night product %d: %w", day, i, err)
			}
		}
	}
	return nil
}

func (p Product) validate() error {
	if p.Title == "" {
		return fmt.Errorf("title is required")
	}
	switch p.RoutineType {
	case TypeDay, TypeNight, TypeBoth:
	default:
		return fmt.Errorf("invalid routine type %q", p.RoutineType)
	}
	switch p.Frequency {
	case "", FrequencyDaily, FrequencyAlternate, FrequencyCustom:
	default:
		return fmt.Errorf("invalid frequency %q", p.Frequency)
	}
	return nil
}
