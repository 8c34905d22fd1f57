package nutrition

import (
	"math"

	"guthealth-planner/internal/profile"
)

// MealSlot is one of the four meal occasions in a day. The ordinal sequence is
// fixed; navigation across slots wraps around.
type MealSlot string

const (
	SlotBreakfast MealSlot = "breakfast"
	SlotLunch     MealSlot = "lunch"
	SlotDinner    MealSlot = "dinner"
	SlotSnack     MealSlot = "snack"
)

// SlotOrder is the fixed cyclic ordering of meal slots.
var SlotOrder = []MealSlot{SlotBreakfast, SlotLunch, SlotDinner, SlotSnack}

// NextSlot returns the slot after s in the fixed cyclic order.
func NextSlot(s MealSlot) MealSlot {
	for i, slot := range SlotOrder {
		if slot == s {
			return SlotOrder[(i+1)%len(SlotOrder)]
		}
	}
	return SlotBreakfast
}

// ParseSlot maps a user-supplied name to a MealSlot.
func ParseSlot(name string) (MealSlot, bool) {
	for _, slot := range SlotOrder {
		if string(slot) == name {
			return slot, true
		}
	}
	return "", false
}

// PrevSlot returns the slot before s in the fixed cyclic order.
func PrevSlot(s MealSlot) MealSlot {
	for i, slot := range SlotOrder {
		if slot == s {
			return SlotOrder[(i-1+len(SlotOrder))%len(SlotOrder)]
		}
	}
	return SlotBreakfast
}

// Targets is a daily or per-slot energy and macro budget. All fields are
// non-negative. Derived from the profile, never stored as source of truth.
type Targets struct {
	Kcal        int `json:"kcal"`
	ProteinG    int `json:"protein_g"`
	FatG        int `json:"fat_g"`
	CarbG       int `json:"carb_g"`
	FiberG      int `json:"fiber_g"`
	VegetablesG int `json:"vegetables_g"`
	FruitG      int `json:"fruit_g"`
}

// activityMultipliers maps activity levels to their TDEE multiplier.
// This is the single source of truth for valid activity levels.
var activityMultipliers = map[profile.ActivityLevel]float64{
	profile.ActivitySedentary:  1.2,
	profile.ActivityLight:      1.375,
	profile.ActivityModerate:   1.55,
	profile.ActivityActive:     1.725,
	profile.ActivityVeryActive: 1.9,
}

// goalModifiers maps a primary goal to an additive kcal adjustment. Lookup is
// by exact string match; unrecognized or custom goals get a neutral 0 delta.
var goalModifiers = map[string]float64{
	"healthy weight loss":      -400,
	"more energy":              100,
	"reduce bloating":          0,
	"improve digestion":        0,
	"post-antibiotic recovery": 0,
	"lower cholesterol":        0,
}

// Macro split: protein 25%, fat 30%, carbs 45% of target kcal.
const (
	proteinRatio = 0.25
	fatRatio     = 0.30
	carbRatio    = 0.45
)

// slotRatios splits the daily budget across meal slots. Must sum to 1.00.
var slotRatios = map[MealSlot]float64{
	SlotBreakfast: 0.25,
	SlotLunch:     0.35,
	SlotDinner:    0.25,
	SlotSnack:     0.15,
}

// DailyTargets derives a daily energy and macro budget from a profile.
//
// BMR uses Mifflin-St Jeor. The formula only defines offsets for male (+5)
// and female (-161); for sex "other" this engine deliberately applies the
// female offset, the lower of the two, so energy needs are never
// overestimated for an unspecified sex. This is an explicit policy, not a
// fallthrough.
//
// The function is pure and total: it performs no validation (that is the
// caller's responsibility, see profile.Validate) and never fails for any
// numerically-valid profile.
func DailyTargets(p *profile.Profile) Targets {
	bmr := 10*p.WeightKG + 6.25*p.HeightCM - 5*float64(p.AgeYears)
	if p.Sex == profile.SexMale {
		bmr += 5
	} else {
		bmr -= 161 // female and other
	}

	mult, ok := activityMultipliers[p.ActivityLevel]
	if !ok {
		mult = activityMultipliers[profile.ActivitySedentary]
	}
	tdee := bmr * mult

	kcal := int(math.Round(tdee + goalModifiers[p.PrimaryGoal]))
	fkcal := float64(kcal)

	return Targets{
		Kcal:     kcal,
		ProteinG: int(math.Round(fkcal * proteinRatio / 4)),
		FatG:     int(math.Round(fkcal * fatRatio / 9)),
		CarbG:    int(math.Round(fkcal * carbRatio / 4)),
		// 14g of fiber per 1000 kcal
		FiberG: int(math.Round(fkcal / 1000 * 14)),
		// ~400g vegetables and ~200g fruit on a 2000 kcal reference diet
		VegetablesG: int(math.Round(fkcal / 2000 * 400)),
		FruitG:      int(math.Round(fkcal / 2000 * 200)),
	}
}

// SplitByMealSlot splits a daily budget into per-slot budgets using the fixed
// slot ratios. Every field is scaled and rounded independently, so a slot's
// macros may not exactly re-derive its own kcal; that rounding drift is
// accepted and must not be "fixed" by recomputing macros from slot kcal.
func SplitByMealSlot(daily Targets) map[MealSlot]Targets {
	out := make(map[MealSlot]Targets, len(slotRatios))
	for slot, r := range slotRatios {
		out[slot] = Targets{
			Kcal:        int(math.Round(float64(daily.Kcal) * r)),
			ProteinG:    int(math.Round(float64(daily.ProteinG) * r)),
			FatG:        int(math.Round(float64(daily.FatG) * r)),
			CarbG:       int(math.Round(float64(daily.CarbG) * r)),
			FiberG:      int(math.Round(float64(daily.FiberG) * r)),
			VegetablesG: int(math.Round(float64(daily.VegetablesG) * r)),
			FruitG:      int(math.Round(float64(daily.FruitG) * r)),
		}
	}
	return out
}
