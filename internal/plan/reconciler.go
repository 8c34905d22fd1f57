package plan

import (
	"context"
	"fmt"
	"log"
	"sync"

	"guthealth-planner/internal/nutrition"
	"guthealth-planner/internal/profile"
)

// Reconciler manages the suggestion list for the currently selected
// (day, meal slot) pair. It enforces the size and uniqueness invariants and
// delegates all content generation to the external suggestion provider.
//
// All operations are serialized with a mutex held for the full operation,
// provider call included. The interaction model implies one outstanding
// request per slot; overlapping calls (a rapid double-click) therefore queue
// and the last response wins, rather than appending concurrently.
type Reconciler struct {
	mu sync.Mutex

	runID    string
	provider SuggestionProvider
	store    Snapshotter // may be nil; saves are best-effort either way

	profile     *profile.Profile
	slotTargets map[nutrition.MealSlot]nutrition.Targets
	note        string

	day   int
	slot  nutrition.MealSlot
	items []SuggestionMeal
}

// NewReconciler creates a reconciler for one planning session. The run id is
// explicit session context, supplied by the caller rather than read from any
// ambient storage. The reconciler starts at day 1, breakfast, with an empty
// list.
func NewReconciler(runID string, provider SuggestionProvider, store Snapshotter, p *profile.Profile, slotTargets map[nutrition.MealSlot]nutrition.Targets) *Reconciler {
	return &Reconciler{
		runID:       runID,
		provider:    provider,
		store:       store,
		profile:     p,
		slotTargets: slotTargets,
		note:        p.PersonalNote,
		day:         1,
		slot:        nutrition.SlotBreakfast,
	}
}

// RunID returns the identifier of the plan run this reconciler serves.
func (r *Reconciler) RunID() string {
	return r.runID
}

// Day returns the currently selected day number.
func (r *Reconciler) Day() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.day
}

// Slot returns the currently selected meal slot.
func (r *Reconciler) Slot() nutrition.MealSlot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.slot
}

// Phase returns the phase for the currently selected day.
func (r *Reconciler) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return PhaseForDay(r.day)
}

// Items returns a copy of the current suggestion list.
func (r *Reconciler) Items() []SuggestionMeal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyItems(r.items)
}

// SlotTargets returns the target budget for the currently selected slot.
func (r *Reconciler) SlotTargets() nutrition.Targets {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.slotTargets[r.slot]
}

// SetPersonalNote replaces the free-text note sent with every request.
func (r *Reconciler) SetPersonalNote(note string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.note = note
}

// SelectDay switches to a new day. The suggestion list resets to empty
// unconditionally; suggestions for other (day, slot) pairs are not retained
// in memory. The phase, and with it the dietary ruleset attached to the next
// request, can change silently even when the slot targets do not.
func (r *Reconciler) SelectDay(day int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if day == r.day {
		return
	}
	r.day = day
	r.items = nil
}

// SelectSlot switches to a new meal slot, resetting the list to empty.
func (r *Reconciler) SelectSlot(slot nutrition.MealSlot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if slot == r.slot {
		return
	}
	r.slot = slot
	r.items = nil
}

// SuggestForSlot requests a fresh suggestion list for the current slot. The
// result size is determined by the provider. The previous list, if any, is
// only replaced when the call succeeds.
func (r *Reconciler) SuggestForSlot(ctx context.Context) ([]SuggestionMeal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.regenerateLocked(ctx, "suggest")
}

// RegenerateSlot discards the current list and requests a fresh full-slot
// suggestion.
func (r *Reconciler) RegenerateSlot(ctx context.Context) ([]SuggestionMeal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.regenerateLocked(ctx, "regenerate")
}

func (r *Reconciler) regenerateLocked(ctx context.Context, op string) ([]SuggestionMeal, error) {
	// The slot passes through EMPTY: the old list is discarded up front, so a
	// failed call leaves the slot empty rather than showing stale suggestions.
	r.items = nil

	fresh, err := r.callProvider(ctx, op, nil, 0)
	if err != nil {
		return nil, err
	}
	r.items = fresh
	r.persistLocked(ctx)
	return copyItems(r.items), nil
}

// RerollItem replaces the item at index with exactly one new suggestion,
// excluding every current title. On any provider failure the list is left
// unchanged in both length and content.
func (r *Reconciler) RerollItem(ctx context.Context, index int) ([]SuggestionMeal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.items) == 0 {
		return nil, ErrEmptySlot
	}
	if index < 0 || index >= len(r.items) {
		return nil, fmt.Errorf("%w: %d (slot has %d items)", ErrIndexOutOfRange, index, len(r.items))
	}

	fresh, err := r.callProvider(ctx, "reroll", r.excludeTitlesLocked(), 1)
	if err != nil {
		return nil, err
	}

	r.items[index] = fresh[0]
	r.persistLocked(ctx)
	return copyItems(r.items), nil
}

// AddItem appends exactly one new suggestion, excluding every current title.
// At the 3-item ceiling this is a no-op reported as ErrSlotFull.
func (r *Reconciler) AddItem(ctx context.Context) ([]SuggestionMeal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.items) == 0 {
		return nil, ErrEmptySlot
	}
	if len(r.items) >= maxItemsPerSlot {
		return copyItems(r.items), ErrSlotFull
	}

	fresh, err := r.callProvider(ctx, "add", r.excludeTitlesLocked(), 1)
	if err != nil {
		return nil, err
	}

	r.items = append(r.items, fresh[0])
	r.persistLocked(ctx)
	return copyItems(r.items), nil
}

// PinItem inserts a caller-supplied dish, such as an imported recipe, into
// the current slot without consulting the provider. The 3-item ceiling
// applies as in AddItem; pinning into an empty slot is allowed.
func (r *Reconciler) PinItem(ctx context.Context, meal SuggestionMeal) ([]SuggestionMeal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if meal.RecipeName == "" {
		return nil, fmt.Errorf("cannot pin a dish without a recipe name")
	}
	if len(r.items) >= maxItemsPerSlot {
		return copyItems(r.items), ErrSlotFull
	}

	r.items = append(r.items, meal)
	r.persistLocked(ctx)
	return copyItems(r.items), nil
}

// AttachImage attaches a later-arriving image URL to an existing item. The
// list length and the exclusion set are unaffected.
func (r *Reconciler) AttachImage(ctx context.Context, index int, imageURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if index < 0 || index >= len(r.items) {
		return fmt.Errorf("%w: %d (slot has %d items)", ErrIndexOutOfRange, index, len(r.items))
	}
	r.items[index].ImageURL = imageURL
	r.persistLocked(ctx)
	return nil
}

const maxItemsPerSlot = 3

// callProvider issues one suggestion request tagged with the phase derived
// from the current day. Empty results count as provider failures; the
// reconciler never invents substitute items.
func (r *Reconciler) callProvider(ctx context.Context, op string, exclude []string, maxItems int) ([]SuggestionMeal, error) {
	req := SuggestionRequest{
		RunID:         r.runID,
		DayNumber:     r.day,
		MealSlot:      r.slot,
		Phase:         PhaseForDay(r.day),
		Targets:       r.slotTargets[r.slot],
		Profile:       summarize(r.profile),
		ExcludeTitles: exclude,
		MaxItems:      maxItems,
		PersonalNote:  r.note,
	}

	meals, err := r.provider.Suggest(ctx, req)
	if err != nil {
		return nil, &ProviderError{Op: op, Err: err}
	}
	if len(meals) == 0 {
		return nil, &ProviderError{Op: op, Err: fmt.Errorf("provider returned no meals")}
	}
	return meals, nil
}

// excludeTitlesLocked computes the exclusion set from the current list: the
// exact set of non-empty recipe names at call time. The provider is asked not
// to repeat them but is not trusted to comply; a duplicate that arrives
// anyway is accepted as-is.
func (r *Reconciler) excludeTitlesLocked() []string {
	var titles []string
	for _, it := range r.items {
		if it.RecipeName != "" {
			titles = append(titles, it.RecipeName)
		}
	}
	return titles
}

// persistLocked attempts a best-effort snapshot save. Failures are logged and
// never block or roll back the in-memory change that triggered them.
func (r *Reconciler) persistLocked(ctx context.Context) {
	if r.store == nil {
		return
	}
	snap := Snapshot{
		RunID:    r.runID,
		DayIndex: r.day,
		Phase:    PhaseForDay(r.day),
		MealSlot: r.slot,
		Items:    copyItems(r.items),
	}
	if err := r.store.Save(ctx, snap); err != nil {
		log.Printf("Warning: failed to save plan snapshot (run %s day %d %s): %v", r.runID, r.day, r.slot, err)
	}
}

func summarize(p *profile.Profile) ProfileSummary {
	return ProfileSummary{
		Sex:                 string(p.Sex),
		AgeYears:            p.AgeYears,
		HeightCM:            p.HeightCM,
		WeightKG:            p.WeightKG,
		Goal:                p.PrimaryGoal,
		Conditions:          p.ActiveConditions(),
		DietaryRestrictions: p.ActiveRestrictions(),
		AvoidIngredients:    p.AvoidIngredients,
	}
}

func copyItems(items []SuggestionMeal) []SuggestionMeal {
	if items == nil {
		return nil
	}
	out := make([]SuggestionMeal, len(items))
	copy(out, items)
	return out
}
