package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"fluencytrail/models"
)

// TimerRepository persists in-progress activity timers. The schema enforces
// at most one running timer per user via a partial unique index.
type TimerRepository struct {
	db *sql.DB
}

func NewTimerRepository(db *sql.DB) *TimerRepository {
	return &TimerRepository{db: db}
}

const timerColumns = `id, user_id, activity_type, media_id, language_code, started_at, ended_at, created_at`

func scanTimer(row interface{ Scan(...any) error }) (models.ActivityTimer, error) {
	var (
		t       models.ActivityTimer
		mediaID sql.NullString
		ended   sql.NullTime
	)
	err := row.Scan(&t.ID, &t.UserID, &t.Type, &mediaID, &t.LanguageCode,
		&t.StartedAt, &ended, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ActivityTimer{}, ErrNotFound
	}
	if err != nil {
		return models.ActivityTimer{}, err
	}
	t.MediaID = mediaID.String
	if ended.Valid {
		endedAt := ended.Time
		t.EndedAt = &endedAt
	}
	return t, nil
}

// Create inserts a running timer. ErrTimerRunning is returned when the user
// already has one open.
func (r *TimerRepository) Create(ctx context.Context, t models.ActivityTimer) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO activity_timers (id, user_id, activity_type, media_id, language_code, started_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Type, nullableString(t.MediaID), t.LanguageCode, t.StartedAt, t.CreatedAt)
	if isUniqueViolation(err) {
		return ErrTimerRunning
	}
	return err
}

// Get fetches one timer scoped to its owner.
func (r *TimerRepository) Get(ctx context.Context, userID, id string) (models.ActivityTimer, error) {
	return scanTimer(r.db.QueryRowContext(ctx,
		`SELECT `+timerColumns+` FROM activity_timers WHERE id = ? AND user_id = ?`, id, userID))
}

// GetRunning returns the user's open timer, or ErrNotFound.
func (r *TimerRepository) GetRunning(ctx context.Context, userID string) (models.ActivityTimer, error) {
	return scanTimer(r.db.QueryRowContext(ctx,
		`SELECT `+timerColumns+` FROM activity_timers WHERE user_id = ? AND ended_at IS NULL`, userID))
}

// List returns the user's timers, newest first.
func (r *TimerRepository) List(ctx context.Context, userID string, limit int) ([]models.ActivityTimer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+timerColumns+` FROM activity_timers WHERE user_id = ? ORDER BY started_at DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.ActivityTimer
	for rows.Next() {
		t, err := scanTimer(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

// Stop closes a running timer. ErrNotFound covers both a missing timer and
// one that was already stopped.
func (r *TimerRepository) Stop(ctx context.Context, userID, id string, endedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE activity_timers SET ended_at = ?
		WHERE id = ? AND user_id = ? AND ended_at IS NULL`,
		endedAt, id, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an owned timer.
func (r *TimerRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM activity_timers WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFound
	}
	return nil
}
