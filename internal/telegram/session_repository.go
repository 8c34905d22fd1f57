package telegram

import (
	"context"
	"database/sql"
	"time"
)

// Session is the persisted cursor for one chat: which plan run it is on and
// where in that run it is pointing.
type Session struct {
	ChatID   int64
	RunID    string
	DayIndex int
	MealSlot string
}

// SessionRepository provides access to per-chat session persistence.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository instance.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Upsert stores the chat's current run and position, replacing any prior row.
func (sr *SessionRepository) Upsert(ctx context.Context, s Session) error {
	_, err := sr.db.ExecContext(ctx,
		`INSERT INTO bot_sessions (chat_id, run_id, day_index, meal_slot, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(chat_id) DO UPDATE SET
		   run_id = excluded.run_id,
		   day_index = excluded.day_index,
		   meal_slot = excluded.meal_slot,
		   updated_at = excluded.updated_at`,
		s.ChatID, s.RunID, s.DayIndex, s.MealSlot, time.Now().UTC(),
	)
	return err
}

// Get retrieves the session for a chat, or nil when the chat has none.
func (sr *SessionRepository) Get(ctx context.Context, chatID int64) (*Session, error) {
	row := sr.db.QueryRowContext(ctx,
		"SELECT chat_id, run_id, day_index, meal_slot FROM bot_sessions WHERE chat_id = ?",
		chatID,
	)

	var s Session
	if err := row.Scan(&s.ChatID, &s.RunID, &s.DayIndex, &s.MealSlot); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// Delete removes a chat's session.
func (sr *SessionRepository) Delete(ctx context.Context, chatID int64) error {
	_, err := sr.db.ExecContext(ctx, "DELETE FROM bot_sessions WHERE chat_id = ?", chatID)
	return err
}
