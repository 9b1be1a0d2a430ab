package languages

import (
	"context"
	"errors"
	"log"
	"strings"

	"golang.org/x/text/language"

	"fluencytrail/internal/database"
	"fluencytrail/models"
)

var (
	// ErrUnknownLanguage means the code is not in the catalog.
	ErrUnknownLanguage = errors.New("unknown language code")
	// ErrNotAttached means the user is not studying that language.
	ErrNotAttached = errors.New("language not attached to user")
	// ErrLastLanguage blocks removing a user's only language.
	ErrLastLanguage = errors.New("cannot remove the only language")
	// ErrPrimaryLanguage blocks removing the primary language directly.
	ErrPrimaryLanguage = errors.New("cannot remove the primary language")
)

type languageStore interface {
	List(ctx context.Context) ([]models.Language, error)
	Get(ctx context.Context, code string) (models.Language, error)
}

type userLanguageStore interface {
	GetByID(ctx context.Context, id string) (models.User, error)
	AddLanguage(ctx context.Context, userID, code string) error
	RemoveLanguage(ctx context.Context, userID, code string) error
	SetPrimaryLanguage(ctx context.Context, userID, code string) error
}

type activityCounter interface {
	CountByLanguage(ctx context.Context, userID, languageCode string) (int, error)
}

// Service manages the language catalog and each user's study list.
type Service struct {
	catalog    languageStore
	users      userLanguageStore
	activities activityCounter
}

func NewService(catalog languageStore, users userLanguageStore, activities activityCounter) *Service {
	return &Service{catalog: catalog, users: users, activities: activities}
}

// List returns the full language catalog.
func (s *Service) List(ctx context.Context) ([]models.Language, error) {
	return s.catalog.List(ctx)
}

// UserLanguages returns the user's study languages with the primary flagged.
func (s *Service) UserLanguages(ctx context.Context, userID string) ([]models.UserLanguage, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]models.UserLanguage, 0, len(user.Languages))
	for _, code := range user.Languages {
		lang, err := s.catalog.Get(ctx, code)
		if err != nil {
			return nil, err
		}
		out = append(out, models.UserLanguage{
			Language: lang,
			Primary:  code == user.PrimaryLanguage,
		})
	}
	return out, nil
}

// Add attaches a language to the user's study list. The user's first language
// automatically becomes their primary.
func (s *Service) Add(ctx context.Context, userID, code string) error {
	code, err := s.normalize(ctx, code)
	if err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.users.AddLanguage(ctx, userID, code); err != nil {
		return err
	}
	if len(user.Languages) == 0 {
		return s.users.SetPrimaryLanguage(ctx, userID, code)
	}
	return nil
}

// Remove detaches a language. The last remaining language and the current
// primary cannot be removed.
func (s *Service) Remove(ctx context.Context, userID, code string) error {
	code, err := s.normalize(ctx, code)
	if err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !attached(user, code) {
		return ErrNotAttached
	}
	if len(user.Languages) <= 1 {
		return ErrLastLanguage
	}
	if code == user.PrimaryLanguage {
		return ErrPrimaryLanguage
	}

	// Activities keep their language code after the detach; note how many
	// fall out of the user's study list.
	if n, err := s.activities.CountByLanguage(ctx, userID, code); err != nil {
		log.Printf("[languages] counting activities in %s for user %s: %v", code, userID, err)
	} else if n > 0 {
		log.Printf("[languages] user %s detached %s with %d logged activities", userID, code, n)
	}
	return s.users.RemoveLanguage(ctx, userID, code)
}

// SetPrimary marks one of the user's attached languages as primary.
func (s *Service) SetPrimary(ctx context.Context, userID, code string) error {
	code, err := s.normalize(ctx, code)
	if err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !attached(user, code) {
		return ErrNotAttached
	}
	return s.users.SetPrimaryLanguage(ctx, userID, code)
}

// normalize lowercases the code, checks it parses as a BCP 47 tag and that
// the catalog carries it.
func (s *Service) normalize(ctx context.Context, code string) (string, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return "", ErrUnknownLanguage
	}
	if _, err := language.Parse(code); err != nil {
		return "", ErrUnknownLanguage
	}
	if _, err := s.catalog.Get(ctx, code); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return "", ErrUnknownLanguage
		}
		return "", err
	}
	return code, nil
}

func attached(user models.User, code string) bool {
	for _, c := range user.Languages {
		if c == code {
			return true
		}
	}
	return false
}
