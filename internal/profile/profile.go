package profile

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Sex is the biological sex used by the BMR formula.
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
	SexOther  Sex = "other"
)

// ActivityLevel is one of five ordinal activity tiers.
type ActivityLevel string

const (
	ActivitySedentary  ActivityLevel = "sedentary"
	ActivityLight      ActivityLevel = "light"
	ActivityModerate   ActivityLevel = "moderate"
	ActivityActive     ActivityLevel = "active"
	ActivityVeryActive ActivityLevel = "very_active"
)

// Profile is a user's biometric and dietary profile. It is immutable for the
// duration of a planning session; targets are recomputed from it on demand.
type Profile struct {
	ID                   int64           `json:"id,omitempty"`
	Sex                  Sex             `json:"sex"`
	AgeYears             int             `json:"age_years"`
	HeightCM             float64         `json:"height_cm"`
	WeightKG             float64         `json:"weight_kg"`
	ActivityLevel        ActivityLevel   `json:"activity_level"`
	PrimaryGoal          string          `json:"primary_goal"`
	HealthConditions     map[string]bool `json:"health_conditions"`
	DietaryRestrictions  map[string]bool `json:"dietary_restrictions"`
	AvoidIngredients     []string        `json:"avoid_ingredients"`
	PreferredIngredients []string        `json:"preferred_ingredients"`
	PersonalNote         string          `json:"personal_note,omitempty"`
}

// ErrInvalidProfile is returned by Validate for non-finite or out-of-range
// biometric input. The target calculator itself does not validate; callers
// are expected to gate on Validate before computing.
var ErrInvalidProfile = errors.New("invalid profile")

var validActivityLevels = map[ActivityLevel]struct{}{
	ActivitySedentary:  {},
	ActivityLight:      {},
	ActivityModerate:   {},
	ActivityActive:     {},
	ActivityVeryActive: {},
}

// Validate checks the biometric fields for plausibility.
func (p *Profile) Validate() error {
	switch p.Sex {
	case SexMale, SexFemale, SexOther:
	default:
		return fmt.Errorf("%w: unknown sex %q", ErrInvalidProfile, p.Sex)
	}
	if p.AgeYears <= 0 || p.AgeYears > 130 {
		return fmt.Errorf("%w: implausible age %d", ErrInvalidProfile, p.AgeYears)
	}
	if !isFinitePositive(p.HeightCM) {
		return fmt.Errorf("%w: height_cm must be a finite positive number", ErrInvalidProfile)
	}
	if !isFinitePositive(p.WeightKG) {
		return fmt.Errorf("%w: weight_kg must be a finite positive number", ErrInvalidProfile)
	}
	if _, ok := validActivityLevels[p.ActivityLevel]; !ok {
		return fmt.Errorf("%w: unknown activity level %q", ErrInvalidProfile, p.ActivityLevel)
	}
	return nil
}

// ActiveConditions returns the names of the health-condition flags set to true.
func (p *Profile) ActiveConditions() []string {
	return activeFlags(p.HealthConditions)
}

// ActiveRestrictions returns the names of the dietary-restriction flags set to true.
func (p *Profile) ActiveRestrictions() []string {
	return activeFlags(p.DietaryRestrictions)
}

// activeFlags returns set flag names sorted, so prompts stay stable across runs.
func activeFlags(flags map[string]bool) []string {
	var out []string
	for name, on := range flags {
		if on {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func isFinitePositive(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
