package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"fluencytrail/models"
)

// UserRepository persists accounts and their language memberships.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a repository over the shared connection.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, name, timezone, primary_language, password_hash,
	confirmed, confirm_token, reset_token, reset_expires, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (models.User, error) {
	var (
		u       models.User
		primary sql.NullString
		expires sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Timezone, &primary, &u.PasswordHash,
		&u.Confirmed, &u.ConfirmToken, &u.ResetToken, &expires, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	u.PrimaryLanguage = primary.String
	if expires.Valid {
		u.ResetExpires = expires.Time
	}
	return u, nil
}

// Create inserts a new unconfirmed account.
func (r *UserRepository) Create(ctx context.Context, u models.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, timezone, password_hash, confirmed, confirm_token, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, strings.ToLower(u.Email), u.Name, u.Timezone, u.PasswordHash,
		u.Confirmed, u.ConfirmToken, u.CreatedAt, u.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrEmailExists
	}
	return err
}

// GetByID fetches a user by id, languages included.
func (r *UserRepository) GetByID(ctx context.Context, id string) (models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		return models.User{}, err
	}
	u.Languages, err = r.languageCodes(ctx, u.ID)
	return u, err
}

// GetByEmail fetches a user by normalized email, languages included.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(strings.TrimSpace(email))))
	if err != nil {
		return models.User{}, err
	}
	u.Languages, err = r.languageCodes(ctx, u.ID)
	return u, err
}

// GetByConfirmToken fetches an unconfirmed user by confirmation token.
func (r *UserRepository) GetByConfirmToken(ctx context.Context, tok string) (models.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE confirm_token = ? AND confirm_token != ''`, tok))
}

// GetByResetToken fetches a user by password-reset token.
func (r *UserRepository) GetByResetToken(ctx context.Context, tok string) (models.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE reset_token = ? AND reset_token != ''`, tok))
}

// UpdateProfile sets name and timezone.
func (r *UserRepository) UpdateProfile(ctx context.Context, id, name, timezone string) error {
	return r.exec(ctx, `UPDATE users SET name = ?, timezone = ?, updated_at = ? WHERE id = ?`,
		name, timezone, time.Now().UTC(), id)
}

// Confirm marks the account confirmed and clears its confirmation token.
func (r *UserRepository) Confirm(ctx context.Context, id string) error {
	return r.exec(ctx, `UPDATE users SET confirmed = 1, confirm_token = '', updated_at = ? WHERE id = ?`,
		time.Now().UTC(), id)
}

// SetPassword replaces the password hash and clears any reset token.
func (r *UserRepository) SetPassword(ctx context.Context, id, hash string) error {
	return r.exec(ctx, `UPDATE users SET password_hash = ?, reset_token = '', reset_expires = NULL, updated_at = ? WHERE id = ?`,
		hash, time.Now().UTC(), id)
}

// SetResetToken stores a password-reset token with its expiry.
func (r *UserRepository) SetResetToken(ctx context.Context, id, tok string, expires time.Time) error {
	return r.exec(ctx, `UPDATE users SET reset_token = ?, reset_expires = ?, updated_at = ? WHERE id = ?`,
		tok, expires, time.Now().UTC(), id)
}

// AddLanguage attaches a language to the user; adding an already attached
// language is a no-op.
func (r *UserRepository) AddLanguage(ctx context.Context, userID, code string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO user_languages (user_id, language_code) VALUES (?, ?)`,
		userID, code)
	return err
}

// RemoveLanguage detaches a language from the user. Invariants (last
// language, primary language) are enforced by the service layer.
func (r *UserRepository) RemoveLanguage(ctx context.Context, userID, code string) error {
	return r.exec(ctx, `DELETE FROM user_languages WHERE user_id = ? AND language_code = ?`, userID, code)
}

// SetPrimaryLanguage records the user's primary language.
func (r *UserRepository) SetPrimaryLanguage(ctx context.Context, userID, code string) error {
	return r.exec(ctx, `UPDATE users SET primary_language = ?, updated_at = ? WHERE id = ?`,
		code, time.Now().UTC(), userID)
}

// languageCodes returns the user's language codes sorted alphabetically.
func (r *UserRepository) languageCodes(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT language_code FROM user_languages WHERE user_id = ? ORDER BY language_code`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

func (r *UserRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
