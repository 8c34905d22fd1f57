package acceptance_tests

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"guthealth-planner/internal/database"
	"guthealth-planner/internal/nutrition"
	"guthealth-planner/internal/plan"
	"guthealth-planner/internal/profile"
	"guthealth-planner/internal/snapshot"
)

// --- Mock Suggestion Provider ---

type mockProvider struct {
	calls int
}

func (m *mockProvider) Suggest(ctx context.Context, req plan.SuggestionRequest) ([]plan.SuggestionMeal, error) {
	m.calls++
	count := req.MaxItems
	if count == 0 {
		count = 2
	}
	var items []plan.SuggestionMeal
	for i := 0; i < count; i++ {
		items = append(items, plan.SuggestionMeal{
			RecipeName:       fmt.Sprintf("Dish %d-%d", m.calls, i+1),
			ShortDescription: "acceptance test dish",
		})
	}
	return items, nil
}

// TestPlanFlow exercises the full path a user takes: store a profile,
// derive targets, fill a slot, adjust it, and verify the snapshot store
// holds the final state.
func TestPlanFlow(t *testing.T) {
	ctx := context.Background()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "acceptance.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.SQL.Close()

	// 1. Store a profile and read it back.
	profileRepo := profile.NewRepository(db.SQL)
	p := &profile.Profile{
		Sex:           profile.SexFemale,
		AgeYears:      31,
		HeightCM:      164,
		WeightKG:      58,
		ActivityLevel: profile.ActivityLight,
		PrimaryGoal:   "more energy",
	}
	if _, err := profileRepo.Save(ctx, p); err != nil {
		t.Fatalf("Failed to save profile: %v", err)
	}
	stored, err := profileRepo.Latest(ctx)
	if err != nil || stored == nil {
		t.Fatalf("Failed to load profile back: %v", err)
	}

	// 2. Derive targets.
	daily := nutrition.DailyTargets(stored)
	if daily.Kcal <= 0 {
		t.Fatalf("Daily kcal = %d, want positive", daily.Kcal)
	}
	slotTargets := nutrition.SplitByMealSlot(daily)

	// 3. Drive the reconciler with a real snapshot store.
	provider := &mockProvider{}
	snapshots := snapshot.NewRepository(db.SQL)
	r := plan.NewReconciler("acceptance-run", provider, snapshots, stored, slotTargets)
	r.SelectDay(5)
	r.SelectSlot(nutrition.SlotLunch)

	if _, err := r.SuggestForSlot(ctx); err != nil {
		t.Fatalf("SuggestForSlot failed: %v", err)
	}
	if _, err := r.AddItem(ctx); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	items, err := r.RerollItem(ctx, 0)
	if err != nil {
		t.Fatalf("RerollItem failed: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("Slot has %d items, want 3 after suggest+add", len(items))
	}

	// 4. The persisted snapshot must match the in-memory state.
	snap, err := snapshots.Load(ctx, "acceptance-run", 5, string(nutrition.SlotLunch))
	if err != nil {
		t.Fatalf("Failed to load snapshot: %v", err)
	}
	if snap == nil {
		t.Fatal("No snapshot persisted")
	}
	if snap.Phase != plan.PhaseRepair {
		t.Errorf("Snapshot phase = %d, want repair phase for day 5", snap.Phase)
	}
	if len(snap.Items) != len(items) {
		t.Fatalf("Snapshot has %d items, memory has %d", len(snap.Items), len(items))
	}
	for i := range items {
		if snap.Items[i].RecipeName != items[i].RecipeName {
			t.Errorf("Snapshot item %d = %q, memory has %q", i, snap.Items[i].RecipeName, items[i].RecipeName)
		}
	}
}
