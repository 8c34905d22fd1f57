package nutrition

import (
	"testing"

	"guthealth-planner/internal/profile"
)

func baseProfile() *profile.Profile {
	return &profile.Profile{
		Sex:           profile.SexMale,
		AgeYears:      30,
		HeightCM:      175,
		WeightKG:      70,
		ActivityLevel: profile.ActivityModerate,
		PrimaryGoal:   "more energy",
	}
}

// Known worked example: male, 30y, 175cm, 70kg, moderate, "more energy".
// BMR = 700 + 1093.75 - 150 + 5 = 1648.75; TDEE = 1648.75*1.55 = 2555.56;
// +100 goal delta => 2656 kcal.
func TestDailyTargets_WorkedExample(t *testing.T) {
	got := DailyTargets(baseProfile())

	want := Targets{
		Kcal:        2656,
		ProteinG:    166,
		FatG:        89,
		CarbG:       299,
		FiberG:      37,
		VegetablesG: 531,
		FruitG:      266,
	}
	if got != want {
		t.Errorf("DailyTargets() = %+v, want %+v", got, want)
	}
}

func TestDailyTargets_Deterministic(t *testing.T) {
	p := baseProfile()
	first := DailyTargets(p)
	for i := 0; i < 5; i++ {
		if again := DailyTargets(p); again != first {
			t.Fatalf("DailyTargets not deterministic: run %d got %+v, want %+v", i, again, first)
		}
	}
}

func TestDailyTargets_SexOffsets(t *testing.T) {
	cases := []struct {
		name     string
		sex      profile.Sex
		wantKcal int
	}{
		// female: BMR = 1648.75 - 166 = 1482.75; TDEE = 2298.26; +100 => 2398
		{"male", profile.SexMale, 2656},
		{"female", profile.SexFemale, 2398},
		// "other" uses the female offset by policy
		{"other", profile.SexOther, 2398},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := baseProfile()
			p.Sex = tc.sex
			if got := DailyTargets(p); got.Kcal != tc.wantKcal {
				t.Errorf("kcal = %d, want %d", got.Kcal, tc.wantKcal)
			}
		})
	}
}

func TestDailyTargets_UnknownGoalIsNeutral(t *testing.T) {
	p := baseProfile()
	p.PrimaryGoal = "become a wizard"
	got := DailyTargets(p)

	neutral := baseProfile()
	neutral.PrimaryGoal = "improve digestion" // known goal with 0 delta
	want := DailyTargets(neutral)

	if got != want {
		t.Errorf("unknown goal should get a 0 kcal delta: got %+v, want %+v", got, want)
	}
}

func TestDailyTargets_MacroKcalInvariant(t *testing.T) {
	// kcal ≈ protein*4 + fat*9 + carb*4 within rounding tolerance
	// (each macro is rounded independently: ±1 kcal per macro's rounding,
	// scaled by its kcal-per-gram factor).
	profiles := []*profile.Profile{
		baseProfile(),
		{Sex: profile.SexFemale, AgeYears: 45, HeightCM: 160, WeightKG: 55, ActivityLevel: profile.ActivityLight, PrimaryGoal: "healthy weight loss"},
		{Sex: profile.SexOther, AgeYears: 22, HeightCM: 190, WeightKG: 95, ActivityLevel: profile.ActivityVeryActive},
	}

	for _, p := range profiles {
		got := DailyTargets(p)
		sum := got.ProteinG*4 + got.FatG*9 + got.CarbG*4
		diff := got.Kcal - sum
		if diff < 0 {
			diff = -diff
		}
		// 2+4.5+2 kcal worst-case rounding across the three macros
		if diff > 9 {
			t.Errorf("macro sum %d too far from kcal %d (diff %d) for %+v", sum, got.Kcal, diff, p)
		}
	}
}

func TestSplitByMealSlot_Ratios(t *testing.T) {
	daily := DailyTargets(baseProfile())
	slots := SplitByMealSlot(daily)

	if len(slots) != 4 {
		t.Fatalf("expected 4 slots, got %d", len(slots))
	}

	// breakfast 25% of 2656 = 664, lunch 35% = 930 (929.6 rounds to 930),
	// dinner 25% = 664, snack 15% = 398 (398.4 rounds down)
	wantKcal := map[MealSlot]int{
		SlotBreakfast: 664,
		SlotLunch:     930,
		SlotDinner:    664,
		SlotSnack:     398,
	}
	for slot, want := range wantKcal {
		if got := slots[slot].Kcal; got != want {
			t.Errorf("%s kcal = %d, want %d", slot, got, want)
		}
	}
}

func TestSplitByMealSlot_KcalSumTolerance(t *testing.T) {
	// Σ slot.kcal stays within ±4 kcal of daily.kcal (rounding across 4 slots).
	for _, daily := range []Targets{
		DailyTargets(baseProfile()),
		{Kcal: 1999, ProteinG: 125, FatG: 67, CarbG: 225, FiberG: 28, VegetablesG: 400, FruitG: 200},
		{Kcal: 1, ProteinG: 1, FatG: 1, CarbG: 1, FiberG: 1, VegetablesG: 1, FruitG: 1},
	} {
		slots := SplitByMealSlot(daily)
		sum := 0
		for _, tgt := range slots {
			sum += tgt.Kcal
		}
		diff := sum - daily.Kcal
		if diff < 0 {
			diff = -diff
		}
		if diff > 4 {
			t.Errorf("slot kcal sum %d deviates from daily %d by %d", sum, daily.Kcal, diff)
		}
	}
}

func TestSplitByMealSlot_FieldsScaledIndependently(t *testing.T) {
	// Slot macros are scaled from the daily macros, never re-derived from the
	// slot's own kcal.
	daily := Targets{Kcal: 2000, ProteinG: 125, FatG: 67, CarbG: 225, FiberG: 28, VegetablesG: 400, FruitG: 200}
	slots := SplitByMealSlot(daily)

	lunch := slots[SlotLunch]
	want := Targets{Kcal: 700, ProteinG: 44, FatG: 23, CarbG: 79, FiberG: 10, VegetablesG: 140, FruitG: 70}
	if lunch != want {
		t.Errorf("lunch = %+v, want %+v", lunch, want)
	}
}

func TestSlotNavigation_Cyclic(t *testing.T) {
	if got := NextSlot(SlotSnack); got != SlotBreakfast {
		t.Errorf("NextSlot(snack) = %s, want breakfast", got)
	}
	if got := PrevSlot(SlotBreakfast); got != SlotSnack {
		t.Errorf("PrevSlot(breakfast) = %s, want snack", got)
	}
	if got := NextSlot(SlotBreakfast); got != SlotLunch {
		t.Errorf("NextSlot(breakfast) = %s, want lunch", got)
	}
}
