package telegram

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cafe-calorie/internal/planner"

	"github.com/google/uuid"
)

// Session holds what a chat needs to ask for another plan.
type Session struct {
	ID          string
	UserID      string
	ContextData SessionContextData
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

// SessionContextData is stored in the context_data JSON column.
type SessionContextData struct {
	Goals    planner.Goals `json:"goals"`
	Excluded []string      `json:"excluded"`
	// Previous lists the dishes of the last plan shown.
	Previous []string `json:"previous"`
}

// SessionRepository provides access to session persistence operations.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository instance.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create stores a new session and returns its ID.
func (sr *SessionRepository) Create(ctx context.Context, userID string, data SessionContextData, ttl time.Duration) (string, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal session data: %w", err)
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	if _, err := sr.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, context_data, expires_at, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, userID, string(jsonData), now.Add(ttl), now); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	return id, nil
}

// Get returns the session if it exists and has not expired at now, or nil.
func (sr *SessionRepository) Get(ctx context.Context, id string, now time.Time) (*Session, error) {
	var (
		s   Session
		raw string
	)
	err := sr.db.QueryRowContext(ctx,
		`SELECT id, user_id, context_data, expires_at, created_at FROM sessions WHERE id = ? AND expires_at > ?`,
		id, now.UTC()).Scan(&s.ID, &s.UserID, &raw, &s.ExpiresAt, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if err := json.Unmarshal([]byte(raw), &s.ContextData); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}
	return &s, nil
}

// Update replaces the context data of a session.
func (sr *SessionRepository) Update(ctx context.Context, id string, data SessionContextData) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}
	if _, err := sr.db.ExecContext(ctx, `UPDATE sessions SET context_data = ? WHERE id = ?`, string(jsonData), id); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

// Delete removes a session.
func (sr *SessionRepository) Delete(ctx context.Context, id string) error {
	if _, err := sr.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// CleanupExpired removes all sessions expired at now.
func (sr *SessionRepository) CleanupExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := sr.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to clean up sessions: %w", err)
	}
	return res.RowsAffected()
}
