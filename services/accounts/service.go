// Package accounts owns registration, credential checks, and the email
// confirmation / password reset flows. Session issuance itself is handled by
// the auth middleware layer; this service is its credential backend.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-password/password"
	"golang.org/x/crypto/bcrypt"

	"fluencytrail/internal/database"
	"fluencytrail/models"
)

var (
	ErrEmailRequired = errors.New("email is required")
	ErrEmailInvalid  = errors.New("email address is invalid")
	ErrEmailTaken    = errors.New("an account with that email already exists")
	ErrNameRequired  = errors.New("name is required")
	ErrPasswordShort = errors.New("password must be at least 8 characters")
	ErrBadTimezone   = errors.New("unknown timezone")
	// ErrInvalidCredentials is deliberately vague: it never reveals whether
	// the email or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNotConfirmed       = errors.New("email address not confirmed")
	ErrTokenInvalid       = errors.New("token is invalid")
	ErrTokenExpired       = errors.New("token has expired")
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// tokenLength sizes confirmation and reset tokens.
const tokenLength = 40

type userStore interface {
	Create(ctx context.Context, u models.User) error
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByConfirmToken(ctx context.Context, tok string) (models.User, error)
	GetByResetToken(ctx context.Context, tok string) (models.User, error)
	Confirm(ctx context.Context, id string) error
	SetPassword(ctx context.Context, id, hash string) error
	SetResetToken(ctx context.Context, id, tok string, expires time.Time) error
	UpdateProfile(ctx context.Context, id, name, timezone string) error
}

type sender interface {
	SendConfirmation(to, name, token string) error
	SendPasswordReset(to, name, token string) error
}

// Service implements the account flows over the user repository.
type Service struct {
	users    userStore
	mail     sender
	resetTTL time.Duration
	now      func() time.Time
}

// NewService wires the account flows. mail may be a no-op in development.
func NewService(users userStore, mail sender, resetTTL time.Duration) *Service {
	return &Service{users: users, mail: mail, resetTTL: resetTTL, now: time.Now}
}

// Register creates an unconfirmed account and emails its confirmation token.
// A failed email delivery is logged, not returned: the account exists and the
// confirmation can be re-requested.
func (s *Service) Register(ctx context.Context, email, name, passwd, timezone string) (models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	if email == "" {
		return models.User{}, ErrEmailRequired
	}
	if !emailPattern.MatchString(email) {
		return models.User{}, ErrEmailInvalid
	}
	if name == "" {
		return models.User{}, ErrNameRequired
	}
	if len(passwd) < 8 {
		return models.User{}, ErrPasswordShort
	}
	timezone = strings.TrimSpace(timezone)
	if timezone == "" {
		timezone = models.DefaultTimezone
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return models.User{}, ErrBadTimezone
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(passwd), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	tok, err := newToken()
	if err != nil {
		return models.User{}, err
	}

	now := s.now().UTC()
	user := models.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		Timezone:     timezone,
		PasswordHash: string(hash),
		ConfirmToken: tok,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, database.ErrEmailExists) {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, err
	}

	if err := s.mail.SendConfirmation(user.Email, user.Name, tok); err != nil {
		log.Printf("[accounts] confirmation email for %s failed: %v", user.Email, err)
	}

	return user, nil
}

// Confirm activates the account matching the confirmation token.
func (s *Service) Confirm(ctx context.Context, tok string) (models.User, error) {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return models.User{}, ErrTokenInvalid
	}

	user, err := s.users.GetByConfirmToken(ctx, tok)
	if errors.Is(err, database.ErrNotFound) {
		return models.User{}, ErrTokenInvalid
	}
	if err != nil {
		return models.User{}, err
	}

	if err := s.users.Confirm(ctx, user.ID); err != nil {
		return models.User{}, err
	}
	user.Confirmed = true
	user.ConfirmToken = ""
	return user, nil
}

// CheckCredentials verifies an email/password pair for login. Every failure
// mode maps to the same ErrInvalidCredentials except an unconfirmed account,
// which the caller may surface distinctly.
func (s *Service) CheckCredentials(ctx context.Context, email, passwd string) (models.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, database.ErrNotFound) {
		// Burn a comparison anyway so the two paths take similar time.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$0000000000000000000000000000000000000000000000000000"), []byte(passwd))
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(passwd)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}
	if !user.Confirmed {
		return models.User{}, ErrNotConfirmed
	}
	return user, nil
}

// RequestPasswordReset creates a reset token for the account, if it exists,
// and emails it. The result is identical whether or not the email is
// registered so the endpoint cannot be used to enumerate accounts.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, database.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	tok, err := newToken()
	if err != nil {
		return err
	}
	expires := s.now().UTC().Add(s.resetTTL)
	if err := s.users.SetResetToken(ctx, user.ID, tok, expires); err != nil {
		return err
	}

	if err := s.mail.SendPasswordReset(user.Email, user.Name, tok); err != nil {
		log.Printf("[accounts] reset email for %s failed: %v", user.Email, err)
	}
	return nil
}

// ResetPassword sets a new password for the account matching a live reset
// token.
func (s *Service) ResetPassword(ctx context.Context, tok, newPassword string) error {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return ErrTokenInvalid
	}
	if len(newPassword) < 8 {
		return ErrPasswordShort
	}

	user, err := s.users.GetByResetToken(ctx, tok)
	if errors.Is(err, database.ErrNotFound) {
		return ErrTokenInvalid
	}
	if err != nil {
		return err
	}
	if user.ResetExpires.IsZero() || s.now().UTC().After(user.ResetExpires) {
		return ErrTokenExpired
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.users.SetPassword(ctx, user.ID, string(hash))
}

// ChangePassword replaces the password for an authenticated user after
// verifying the current one.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	if len(next) < 8 {
		return ErrPasswordShort
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.users.SetPassword(ctx, user.ID, string(hash))
}

// UpdateProfile changes display name and timezone.
func (s *Service) UpdateProfile(ctx context.Context, userID, name, timezone string) (models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.User{}, ErrNameRequired
	}
	timezone = strings.TrimSpace(timezone)
	if _, err := time.LoadLocation(timezone); err != nil || timezone == "" {
		return models.User{}, ErrBadTimezone
	}

	if err := s.users.UpdateProfile(ctx, userID, name, timezone); err != nil {
		return models.User{}, err
	}
	return s.users.GetByID(ctx, userID)
}

func newToken() (string, error) {
	tok, err := password.Generate(tokenLength, 10, 0, false, true)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return tok, nil
}
