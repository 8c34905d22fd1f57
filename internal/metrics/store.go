package metrics

import (
	"context"
	"database/sql"
	"time"

	"guthealth-planner/internal/shared"
)

// ProviderMetric records metadata for a single provider call.
type ProviderMetric struct {
	Operation        string
	Model            string
	PromptTokens     int
	CompletionTokens int
	LatencyMS        int64
	Timestamp        time.Time
}

// Store handles persistence of metrics to SQLite.
type Store struct {
	db *sql.DB
}

// NewStore initializes the Store with an existing database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record saves a metric to the database.
func (s *Store) Record(m ProviderMetric) error {
	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := s.db.ExecContext(context.Background(),
		`INSERT INTO provider_metrics (operation, model, prompt_tokens, completion_tokens, latency_ms, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.Operation, m.Model, m.PromptTokens, m.CompletionTokens, m.LatencyMS, ts,
	)
	return err
}

// RecordMeta records metrics directly from shared.CallMeta.
func (s *Store) RecordMeta(meta shared.CallMeta) error {
	if meta.Usage.PromptTokens == 0 && meta.Usage.CompletionTokens == 0 {
		return nil
	}
	return s.Record(MapUsage(meta.Operation, meta.Usage, meta.Latency))
}

// DailyUsage represents token totals for a single day.
type DailyUsage struct {
	Date            string
	TotalPrompt     int
	TotalCompletion int
	TotalCalls      int
}

// GetDailyUsage retrieves usage for the last N days.
func (s *Store) GetDailyUsage(days int) ([]DailyUsage, error) {
	since := time.Now().AddDate(0, 0, -days).Format("2006-01-02 15:04:05")
	rows, err := s.db.QueryContext(context.Background(),
		`SELECT date(timestamp) AS day,
		        SUM(prompt_tokens),
		        SUM(completion_tokens),
		        COUNT(*)
		   FROM provider_metrics
		  WHERE timestamp >= ?
		  GROUP BY day
		  ORDER BY day DESC`,
		since,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []DailyUsage
	for rows.Next() {
		var (
			u          DailyUsage
			day        sql.NullString
			prompt     sql.NullInt64
			completion sql.NullInt64
		)
		if err := rows.Scan(&day, &prompt, &completion, &u.TotalCalls); err != nil {
			return nil, err
		}
		if day.Valid {
			u.Date = day.String
		} else {
			u.Date = "Unknown"
		}
		u.TotalPrompt = int(prompt.Int64)
		u.TotalCompletion = int(completion.Int64)
		results = append(results, u)
	}
	return results, rows.Err()
}

// Cleanup removes records older than the specified number of days and
// returns how many were deleted.
func (s *Store) Cleanup(olderThanDays int) (int64, error) {
	threshold := time.Now().AddDate(0, 0, -olderThanDays)
	res, err := s.db.ExecContext(context.Background(),
		"DELETE FROM provider_metrics WHERE timestamp < ?", threshold,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// MapUsage converts shared.TokenUsage into a ProviderMetric.
func MapUsage(operation string, usage shared.TokenUsage, latency time.Duration) ProviderMetric {
	return ProviderMetric{
		Operation:        operation,
		Model:            usage.Model,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		LatencyMS:        latency.Milliseconds(),
		Timestamp:        time.Now().UTC(),
	}
}
