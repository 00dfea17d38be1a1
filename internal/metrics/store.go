package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"cafe-calorie/internal/planner"
)

// timeFormat is the layout timestamps are stored in. SQLite date functions
// cannot parse the driver's default time.Time text.
const timeFormat = "2006-01-02 15:04:05"

// RunMetric records one engine invocation.
type RunMetric struct {
	Source      string
	Tier        planner.Tier
	Candidates  int
	Evaluations int
	Truncated   bool
	Latency     time.Duration
	Timestamp   time.Time
}

// Store handles persistence of run metrics to SQLite.
type Store struct {
	db *sql.DB
}

// NewStore initializes the Store with an existing database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record saves a metric to the database.
func (s *Store) Record(ctx context.Context, m RunMetric) error {
	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO engine_runs (source, tier, candidates, evaluations, truncated, latency_us, timestamp)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.Source, string(m.Tier), m.Candidates, m.Evaluations, m.Truncated, m.Latency.Microseconds(), ts.UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("failed to record run metric: %w", err)
	}
	return nil
}

// TokenMetric records the LLM tokens spent parsing one request.
type TokenMetric struct {
	Source           string
	Model            string
	PromptTokens     int
	CompletionTokens int
	Timestamp        time.Time
}

// RecordTokens saves LLM token usage to the database.
func (s *Store) RecordTokens(ctx context.Context, m TokenMetric) error {
	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO llm_usage (source, model, prompt_tokens, completion_tokens, timestamp)
VALUES (?, ?, ?, ?, ?)`,
		m.Source, m.Model, m.PromptTokens, m.CompletionTokens, ts.UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("failed to record token usage: %w", err)
	}
	return nil
}

// DailyUsage summarises one day of engine runs and LLM token spend.
type DailyUsage struct {
	Date             string
	Runs             int
	EmptyPlans       int
	Truncated        int
	AvgEvaluations   float64
	AvgLatencyMillis float64
	PromptTokens     int
	CompletionTokens int
}

// GetDailyUsage retrieves usage for the last N days, newest first.
func (s *Store) GetDailyUsage(ctx context.Context, days int) ([]DailyUsage, error) {
	since := time.Now().UTC().AddDate(0, 0, -days).Format(timeFormat)
	rows, err := s.db.QueryContext(ctx, `
SELECT strftime('%Y-%m-%d', timestamp) AS day,
       COUNT(*),
       SUM(CASE WHEN tier = ? THEN 1 ELSE 0 END),
       SUM(CASE WHEN truncated THEN 1 ELSE 0 END),
       AVG(evaluations),
       AVG(latency_us) / 1000.0
FROM engine_runs
WHERE timestamp >= ?
GROUP BY day
ORDER BY day DESC`, string(planner.TierEmpty), since)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily usage: %w", err)
	}
	defer rows.Close()

	var results []DailyUsage
	byDay := make(map[string]int)
	for rows.Next() {
		var (
			u   DailyUsage
			day sql.NullString
		)
		if err := rows.Scan(&day, &u.Runs, &u.EmptyPlans, &u.Truncated, &u.AvgEvaluations, &u.AvgLatencyMillis); err != nil {
			return nil, fmt.Errorf("failed to scan daily usage: %w", err)
		}
		u.Date = dayOrUnknown(day)
		byDay[u.Date] = len(results)
		results = append(results, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tokenRows, err := s.db.QueryContext(ctx, `
SELECT strftime('%Y-%m-%d', timestamp) AS day,
       SUM(prompt_tokens),
       SUM(completion_tokens)
FROM llm_usage
WHERE timestamp >= ?
GROUP BY day`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query token usage: %w", err)
	}
	defer tokenRows.Close()

	for tokenRows.Next() {
		var (
			day                sql.NullString
			prompt, completion int
		)
		if err := tokenRows.Scan(&day, &prompt, &completion); err != nil {
			return nil, fmt.Errorf("failed to scan token usage: %w", err)
		}
		date := dayOrUnknown(day)
		i, ok := byDay[date]
		if !ok {
			i = len(results)
			byDay[date] = i
			results = append(results, DailyUsage{Date: date})
		}
		results[i].PromptTokens = prompt
		results[i].CompletionTokens = completion
	}
	if err := tokenRows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Date > results[j].Date })
	return results, nil
}

func dayOrUnknown(day sql.NullString) string {
	if day.Valid {
		return day.String
	}
	return "Unknown"
}

// Cleanup removes run and token records older than the specified number of
// days.
func (s *Store) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	threshold := time.Now().UTC().AddDate(0, 0, -olderThanDays).Format(timeFormat)
	res, err := s.db.ExecContext(ctx, `DELETE FROM engine_runs WHERE timestamp < ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up run metrics: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	res, err = s.db.ExecContext(ctx, `DELETE FROM llm_usage WHERE timestamp < ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up token usage: %w", err)
	}
	tokens, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return removed + tokens, nil
}
