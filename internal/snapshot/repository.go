package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"guthealth-planner/internal/nutrition"
	"guthealth-planner/internal/plan"
)

// Repository persists plan snapshots to SQLite. Saves are slot-scoped
// replacements: a new snapshot for a (run, day, slot) triple supersedes any
// prior rows for that triple.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new snapshot Repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Save stores a snapshot, replacing earlier snapshots of the same slot.
func (r *Repository) Save(ctx context.Context, snap plan.Snapshot) error {
	items, err := json.Marshal(snap.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot items: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"DELETE FROM plan_snapshots WHERE run_id = ? AND day_index = ? AND meal_slot = ?",
		snap.RunID, snap.DayIndex, string(snap.MealSlot),
	)
	if err != nil {
		return fmt.Errorf("failed to clear prior snapshots: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO plan_snapshots (run_id, day_index, phase, meal_slot, items, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		snap.RunID, snap.DayIndex, int(snap.Phase), string(snap.MealSlot), string(items), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	return tx.Commit()
}

// Load retrieves the stored snapshot for a (run, day, slot) triple, or nil
// when none exists.
func (r *Repository) Load(ctx context.Context, runID string, dayIndex int, slot string) (*plan.Snapshot, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT run_id, day_index, phase, meal_slot, items
		   FROM plan_snapshots
		  WHERE run_id = ? AND day_index = ? AND meal_slot = ?
		  ORDER BY created_at DESC LIMIT 1`,
		runID, dayIndex, slot,
	)

	var (
		snap      plan.Snapshot
		phase     int
		mealSlot  string
		itemsJSON string
	)
	if err := row.Scan(&snap.RunID, &snap.DayIndex, &phase, &mealSlot, &itemsJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	snap.Phase = plan.Phase(phase)
	snap.MealSlot = nutrition.MealSlot(mealSlot)
	if err := json.Unmarshal([]byte(itemsJSON), &snap.Items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot items: %w", err)
	}
	return &snap, nil
}
