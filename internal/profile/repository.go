package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Repository persists user profiles to SQLite.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new profile Repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Save inserts a profile and returns its database ID.
func (r *Repository) Save(ctx context.Context, p *Profile) (int64, error) {
	conditions, err := json.Marshal(p.HealthConditions)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal health conditions: %w", err)
	}
	restrictions, err := json.Marshal(p.DietaryRestrictions)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal dietary restrictions: %w", err)
	}
	avoid, err := json.Marshal(p.AvoidIngredients)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal avoid list: %w", err)
	}
	preferred, err := json.Marshal(p.PreferredIngredients)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal preferred list: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users
		   (sex, age_years, height_cm, weight_kg, activity_level, primary_goal,
		    health_conditions, dietary_restrictions, avoid_ingredients, preferred_ingredients,
		    personal_note, start_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(p.Sex), p.AgeYears, p.HeightCM, p.WeightKG, string(p.ActivityLevel), p.PrimaryGoal,
		string(conditions), string(restrictions), string(avoid), string(preferred),
		p.PersonalNote, time.Now().UTC().Format("2006-01-02"),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert profile: %w", err)
	}
	return res.LastInsertId()
}

// Latest returns the most recently saved profile, or nil when none exists.
func (r *Repository) Latest(ctx context.Context) (*Profile, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, sex, age_years, height_cm, weight_kg, activity_level, primary_goal,
		        health_conditions, dietary_restrictions, avoid_ingredients, preferred_ingredients,
		        personal_note
		   FROM users ORDER BY id DESC LIMIT 1`)

	var (
		p                Profile
		sex, activity    string
		conditionsJSON   string
		restrictionsJSON string
		avoidJSON        string
		preferredJSON    string
	)
	err := row.Scan(&p.ID, &sex, &p.AgeYears, &p.HeightCM, &p.WeightKG, &activity, &p.PrimaryGoal,
		&conditionsJSON, &restrictionsJSON, &avoidJSON, &preferredJSON, &p.PersonalNote)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load latest profile: %w", err)
	}

	p.Sex = Sex(sex)
	p.ActivityLevel = ActivityLevel(activity)
	if err := json.Unmarshal([]byte(conditionsJSON), &p.HealthConditions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal health conditions: %w", err)
	}
	if err := json.Unmarshal([]byte(restrictionsJSON), &p.DietaryRestrictions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dietary restrictions: %w", err)
	}
	if err := json.Unmarshal([]byte(avoidJSON), &p.AvoidIngredients); err != nil {
		return nil, fmt.Errorf("failed to unmarshal avoid list: %w", err)
	}
	if err := json.Unmarshal([]byte(preferredJSON), &p.PreferredIngredients); err != nil {
		return nil, fmt.Errorf("failed to unmarshal preferred list: %w", err)
	}
	return &p, nil
}
