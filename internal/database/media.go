package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"fluencytrail/models"
)

// MediaRepository persists media rows: TMDB-backed titles plus the shadow
// rows owned by custom media entries.
type MediaRepository struct {
	db *sql.DB
}

func NewMediaRepository(db *sql.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

const mediaColumns = `id, tmdb_id, title, media_type, release_date, popularity, poster_url, synced_at`

func scanMedia(row interface{ Scan(...any) error }) (models.Media, error) {
	var (
		m      models.Media
		tmdbID sql.NullInt64
		synced sql.NullTime
	)
	err := row.Scan(&m.ID, &tmdbID, &m.Title, &m.Type, &m.ReleaseDate, &m.Popularity, &m.PosterURL, &synced)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Media{}, ErrNotFound
	}
	if err != nil {
		return models.Media{}, err
	}
	m.TMDBID = tmdbID.Int64
	if synced.Valid {
		m.SyncedAt = synced.Time
	}
	return m, nil
}

// Get fetches a media row by id.
func (r *MediaRepository) Get(ctx context.Context, id string) (models.Media, error) {
	return scanMedia(r.db.QueryRowContext(ctx,
		`SELECT `+mediaColumns+` FROM media WHERE id = ?`, id))
}

// GetByTMDB fetches a media row by TMDB id and type.
func (r *MediaRepository) GetByTMDB(ctx context.Context, tmdbID int64, mediaType models.MediaType) (models.Media, error) {
	return scanMedia(r.db.QueryRowContext(ctx,
		`SELECT `+mediaColumns+` FROM media WHERE tmdb_id = ? AND media_type = ?`, tmdbID, mediaType))
}

// Upsert inserts a TMDB-backed media row or refreshes an existing one,
// stamping synced_at. The stored row's id wins on conflict so activity
// references stay stable across refreshes.
func (r *MediaRepository) Upsert(ctx context.Context, m models.Media) (models.Media, error) {
	m.SyncedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO media (id, tmdb_id, title, media_type, release_date, popularity, poster_url, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (tmdb_id, media_type) WHERE tmdb_id IS NOT NULL DO UPDATE SET
			title = excluded.title,
			release_date = excluded.release_date,
			popularity = excluded.popularity,
			poster_url = excluded.poster_url,
			synced_at = excluded.synced_at`,
		m.ID, nullableInt64(m.TMDBID), m.Title, m.Type, m.ReleaseDate, m.Popularity, m.PosterURL, m.SyncedAt)
	if err != nil {
		return models.Media{}, err
	}
	return r.GetByTMDB(ctx, m.TMDBID, m.Type)
}

func nullableInt64(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}
