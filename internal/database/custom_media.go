package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"fluencytrail/models"
)

// CustomMediaRepository persists user-authored media entries together with
// their shadow media rows.
type CustomMediaRepository struct {
	db *sql.DB
}

func NewCustomMediaRepository(db *sql.DB) *CustomMediaRepository {
	return &CustomMediaRepository{db: db}
}

const customMediaColumns = `id, user_id, media_id, title, slug, metadata, created_at, updated_at`

func scanCustomMedia(row interface{ Scan(...any) error }) (models.CustomMedia, error) {
	var (
		cm       models.CustomMedia
		metadata string
	)
	err := row.Scan(&cm.ID, &cm.UserID, &cm.MediaID, &cm.Title, &cm.Slug, &metadata, &cm.CreatedAt, &cm.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.CustomMedia{}, ErrNotFound
	}
	if err != nil {
		return models.CustomMedia{}, err
	}
	cm.Metadata = []byte(metadata)
	return cm, nil
}

// Create inserts the custom media row and its shadow media row in one
// transaction so the unified id space never sees a half-created entry.
func (r *CustomMediaRepository) Create(ctx context.Context, cm models.CustomMedia) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO media (id, title, media_type) VALUES (?, ?, ?)`,
		cm.MediaID, cm.Title, models.MediaCustom); err != nil {
		return err
	}

	metadata := string(cm.Metadata)
	if metadata == "" {
		metadata = "{}"
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO custom_media (id, user_id, media_id, title, slug, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		cm.ID, cm.UserID, cm.MediaID, cm.Title, cm.Slug, metadata, cm.CreatedAt, cm.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return ErrSlugExists
		}
		return err
	}

	return tx.Commit()
}

// Get fetches one entry scoped to its owner.
func (r *CustomMediaRepository) Get(ctx context.Context, userID, id string) (models.CustomMedia, error) {
	return scanCustomMedia(r.db.QueryRowContext(ctx,
		`SELECT `+customMediaColumns+` FROM custom_media WHERE id = ? AND user_id = ?`, id, userID))
}

// GetByMediaID fetches the entry backing a shadow media row, scoped to its
// owner.
func (r *CustomMediaRepository) GetByMediaID(ctx context.Context, userID, mediaID string) (models.CustomMedia, error) {
	return scanCustomMedia(r.db.QueryRowContext(ctx,
		`SELECT `+customMediaColumns+` FROM custom_media WHERE media_id = ? AND user_id = ?`, mediaID, userID))
}

// List returns the user's entries, newest first.
func (r *CustomMediaRepository) List(ctx context.Context, userID string) ([]models.CustomMedia, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+customMediaColumns+` FROM custom_media WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.CustomMedia
	for rows.Next() {
		cm, err := scanCustomMedia(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, cm)
	}
	return items, rows.Err()
}

// SearchTitles returns the user's entries whose titles contain query,
// case-insensitively, capped at limit.
func (r *CustomMediaRepository) SearchTitles(ctx context.Context, userID, query string, limit int) ([]models.CustomMedia, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+customMediaColumns+` FROM custom_media
		WHERE user_id = ? AND title LIKE '%' || ? || '%' COLLATE NOCASE
		ORDER BY title LIMIT ?`, userID, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.CustomMedia
	for rows.Next() {
		cm, err := scanCustomMedia(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, cm)
	}
	return items, rows.Err()
}

// Update renames an entry and replaces its metadata, keeping the shadow
// media row's title in sync within the same transaction.
func (r *CustomMediaRepository) Update(ctx context.Context, cm models.CustomMedia) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	metadata := string(cm.Metadata)
	if metadata == "" {
		metadata = "{}"
	}
	res, err := tx.ExecContext(ctx, `
		UPDATE custom_media SET title = ?, slug = ?, metadata = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		cm.Title, cm.Slug, metadata, time.Now().UTC(), cm.ID, cm.UserID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSlugExists
		}
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE media SET title = ? WHERE id = ?`, cm.Title, cm.MediaID); err != nil {
		return err
	}

	return tx.Commit()
}

// Delete removes an entry and its shadow media row.
func (r *CustomMediaRepository) Delete(ctx context.Context, userID, id string) error {
	cm, err := r.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	// Deleting the media row cascades to custom_media.
	_, err = r.db.ExecContext(ctx, `DELETE FROM media WHERE id = ?`, cm.MediaID)
	return err
}
