package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"fluencytrail/models"
)

// ActivityRepository persists logged immersion sessions.
type ActivityRepository struct {
	db *sql.DB
}

func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

const activityColumns = `id, user_id, activity_type, media_id, language_code,
	duration_minutes, activity_date, notes, created_at, updated_at`

func scanActivity(row interface{ Scan(...any) error }) (models.Activity, error) {
	var (
		a       models.Activity
		mediaID sql.NullString
	)
	err := row.Scan(&a.ID, &a.UserID, &a.Type, &mediaID, &a.LanguageCode,
		&a.Duration, &a.Date, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Activity{}, ErrNotFound
	}
	if err != nil {
		return models.Activity{}, err
	}
	a.MediaID = mediaID.String
	return a, nil
}

// Create inserts an activity.
func (r *ActivityRepository) Create(ctx context.Context, a models.Activity) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO activities (id, user_id, activity_type, media_id, language_code, duration_minutes, activity_date, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.Type, nullableString(a.MediaID), a.LanguageCode,
		a.Duration, a.Date, a.Notes, a.CreatedAt, a.UpdatedAt)
	return err
}

// Get fetches one activity scoped to its owner.
func (r *ActivityRepository) Get(ctx context.Context, userID, id string) (models.Activity, error) {
	return scanActivity(r.db.QueryRowContext(ctx,
		`SELECT `+activityColumns+` FROM activities WHERE id = ? AND user_id = ?`, id, userID))
}

// List returns the user's activities, newest day first, optionally filtered
// by language.
func (r *ActivityRepository) List(ctx context.Context, userID, languageCode string, limit, offset int) ([]models.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE user_id = ?`
	args := []any{userID}
	if languageCode != "" {
		query += ` AND language_code = ?`
		args = append(args, languageCode)
	}
	query += ` ORDER BY activity_date DESC, created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

// Update replaces the mutable fields of an owned activity.
func (r *ActivityRepository) Update(ctx context.Context, a models.Activity) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE activities SET activity_type = ?, media_id = ?, language_code = ?,
			duration_minutes = ?, activity_date = ?, notes = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		a.Type, nullableString(a.MediaID), a.LanguageCode, a.Duration, a.Date, a.Notes,
		time.Now().UTC(), a.ID, a.UserID)
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

// Delete removes an owned activity.
func (r *ActivityRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM activities WHERE id = ? AND user_id = ?`, id, userID)
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

// DailyTotals aggregates minutes per calendar day for the stats service,
// oldest day first, optionally filtered by language.
func (r *ActivityRepository) DailyTotals(ctx context.Context, userID, languageCode string) ([]models.ActivityDay, error) {
	query := `SELECT activity_date, SUM(duration_minutes) FROM activities WHERE user_id = ?`
	args := []any{userID}
	if languageCode != "" {
		query += ` AND language_code = ?`
		args = append(args, languageCode)
	}
	query += ` GROUP BY activity_date ORDER BY activity_date`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []models.ActivityDay
	for rows.Next() {
		var d models.ActivityDay
		if err := rows.Scan(&d.Date, &d.Minutes); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

// TypeTotals aggregates minutes per activity type, optionally filtered by
// language.
func (r *ActivityRepository) TypeTotals(ctx context.Context, userID, languageCode string) ([]models.TypeTotal, error) {
	query := `SELECT activity_type, SUM(duration_minutes) FROM activities WHERE user_id = ?`
	args := []any{userID}
	if languageCode != "" {
		query += ` AND language_code = ?`
		args = append(args, languageCode)
	}
	query += ` GROUP BY activity_type ORDER BY SUM(duration_minutes) DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []models.TypeTotal
	for rows.Next() {
		var t models.TypeTotal
		if err := rows.Scan(&t.Type, &t.Minutes); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// CountByLanguage reports how many activities the user has logged in the
// given language. Used to warn before detaching a language.
func (r *ActivityRepository) CountByLanguage(ctx context.Context, userID, languageCode string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM activities WHERE user_id = ? AND language_code = ?`,
		userID, languageCode).Scan(&n)
	return n, err
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
