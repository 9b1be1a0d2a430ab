package database

import (
	"context"
	"database/sql"
	"errors"

	"fluencytrail/models"
)

// LanguageRepository reads the seeded language catalog.
type LanguageRepository struct {
	db *sql.DB
}

func NewLanguageRepository(db *sql.DB) *LanguageRepository {
	return &LanguageRepository{db: db}
}

// List returns every selectable language ordered by name.
func (r *LanguageRepository) List(ctx context.Context) ([]models.Language, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT code, name FROM languages ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var langs []models.Language
	for rows.Next() {
		var l models.Language
		if err := rows.Scan(&l.Code, &l.Name); err != nil {
			return nil, err
		}
		langs = append(langs, l)
	}
	return langs, rows.Err()
}

// Get returns one language by ISO code.
func (r *LanguageRepository) Get(ctx context.Context, code string) (models.Language, error) {
	var l models.Language
	err := r.db.QueryRowContext(ctx, `SELECT code, name FROM languages WHERE code = ?`, code).
		Scan(&l.Code, &l.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Language{}, ErrNotFound
	}
	return l, err
}
