package routine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Template is a product from the built-in catalog, before it gets assigned
// to a user's routine.
type Template struct {
	Step       int    `json:"step"`
	Title      string `json:"title"`
	AccessCode string `json:"accessCode"`
	Function   string `json:"function"`
	Usage      string `json:"usage"`
	Image      string `json:"image"`
}

var cleanser = Template{
	Step:       1,
	Title:      "DEEP CLEANSING MODULE",
	AccessCode: "BYOMA Creamy Jelly Cleanser",
	Function:   "Gentle cleanse that respects the skin barrier and lifts impurities built up overnight.",
	Usage:      "Massage one pump onto damp skin. Rinse with water.",
	Image:      "/images/limpiador.png",
}

var nightCleanser = Template{
	Step:       1,
	Title:      "DEEP CLEANSING MODULE",
	AccessCode: "BYOMA Creamy Jelly Cleanser",
	Function:   "Deep cleanse that removes any remaining residue for a complete purification.",
	Usage:      "Apply to damp skin. Massage into a lather and rinse with water.",
	Image:      "/images/limpiador.png",
}

var nightRepair = Template{
	Step:       3,
	Title:      "NIGHT REPAIR UNIT",
	AccessCode: "The Ordinary Natural Moisturizing Factors + HA",
	Function:   "Seals every active in and provides lasting nourishment. Final step for optimal regeneration.",
	Usage:      "Apply a generous amount to face and neck.",
	Image:      "/images/crema_ordinary.webp",
}

var dailyTemplates = []Template{
	cleanser,
	{
		Step:       2,
		Title:      "CELLULAR BOOST MODULE",
		AccessCode: "BYOMA Hydrating Serum",
		Function:   "Delivers deep hydration and reinforces the skin barrier ahead of the day.",
		Usage:      "Apply 3-4 drops to clean, dry skin. Press gently until absorbed.",
		Image:      "/images/serumByoma.png",
	},
	{
		Step:       3,
		Title:      "SEAL AND COMFORT MODULE",
		AccessCode: "BYOMA Moisturizing Gel Cream",
		Function:   "Locks in the serum and adds a protective layer that keeps skin hydrated.",
		Usage:      "Apply an almond-sized amount to face and neck. Massage until absorbed.",
		Image:      "/images/cremaByoma.png",
	},
	{
		Step:       4,
		Title:      "ACTIVE DEFENSE MODULE",
		AccessCode: "Caudalie Vinosun Fluid SPF50+",
		Function:   "Essential UV defense that shields the skin from sun damage.",
		Usage:      "LAST STEP. Apply generously to face and neck.",
		Image:      "/images/sol.png",
	},
}

var nightWithLacticTemplates = []Template{
	nightCleanser,
	{
		Step:       2,
		Title:      "NIGHT REGENERATION MODULE",
		AccessCode: "The Ordinary Lactic Acid 5% + HA",
		Function:   "(Alternate nights, 2-3 times a week.) Gently micro-exfoliates to boost cell renewal, texture and glow.",
		Usage:      "Apply 2-3 drops. Let it absorb before the next step.",
		Image:      "/images/latico.png",
	},
	nightRepair,
}

var nightWithoutLacticTemplates = []Template{
	nightCleanser,
	{
		Step:       2,
		Title:      "CELLULAR BOOST MODULE",
		AccessCode: "The Ordinary Hyaluronic Acid 2% + B5",
		Function:   "Binds water in the skin for intense, lasting hydration during overnight repair.",
		Usage:      "Apply a few drops to face and neck.",
		Image:      "/images/ordinary_hialuronico.webp",
	},
	nightRepair,
}

// lacticNights get the exfoliating routine; every other night gets the
// hydrating one.
var lacticNights = map[string]bool{
	time.Wednesday.String(): true,
	time.Sunday.String():    true,
}

func DailyTemplates() []Template {
	return append([]Template(nil), dailyTemplates...)
}

func NightWithLacticTemplates() []Template {
	return append([]Template(nil), nightWithLacticTemplates...)
}

func NightWithoutLacticTemplates() []Template {
	return append([]Template(nil), nightWithoutLacticTemplates...)
}

func IsLacticNight(day time.Weekday) bool {
	return lacticNights[day.String()]
}

// Catalog groups the built-in product templates for clients that render the
// routine guide.
type Catalog struct {
	Daily              []Template `json:"dailyRoutine"`
	NightWithLactic    []Template `json:"nightlyRoutineWithLactic"`
	NightWithoutLactic []Template `json:"nightlyRoutineWithoutLactic"`
	LacticNights       []string   `json:"lacticNights"`
}

func DefaultCatalog() Catalog {
	var nights []string
	for _, day := range Weekdays {
		if lacticNights[day] {
			nights = append(nights, day)
		}
	}
	return Catalog{
		Daily:              DailyTemplates(),
		NightWithLactic:    NightWithLacticTemplates(),
		NightWithoutLactic: NightWithoutLacticTemplates(),
		LacticNights:       nights,
	}
}

// Defaults builds the routine document a new user is seeded with.
func Defaults(now time.Time) *RoutineData {
	data := &RoutineData{
		DailyRoutine:    make([]Product, 0, len(dailyTemplates)),
		NightlyRoutines: make(map[string][]Product, len(Weekdays)),
		LastUpdated:     now.UnixMilli(),
	}

	for _, tpl := range dailyTemplates {
		data.DailyRoutine = append(data.DailyRoutine, tpl.product("day", TypeDay, FrequencyDaily, nil))
	}

	for _, day := range Weekdays {
		templates := nightWithoutLacticTemplates
		if lacticNights[day] {
			templates = nightWithLacticTemplates
		}
		products := make([]Product, 0, len(templates))
		for _, tpl := range templates {
			products = append(products, tpl.product(fmt.Sprintf("night-%s", day), TypeNight, FrequencyCustom, []string{day}))
		}
		data.NightlyRoutines[day] = products
	}

	return data
}

func (t Template) product(prefix string, rt Type, freq Frequency, days []string) Product {
	return Product{
		ID:          fmt.Sprintf("%s-%d-%s", prefix, t.Step, uuid.NewString()),
		Step:        t.Step,
		Title:       t.Title,
		AccessCode:  t.AccessCode,
		Function:    t.Function,
		Usage:       t.Usage,
		Image:       t.Image,
		RoutineType: rt,
		Frequency:   freq,
		DaysOfWeek:  days,
		Enabled:     true,
	}
}
