package activities

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"fluencytrail/internal/timeutil"
	"fluencytrail/models"
)

const (
	// MaxDuration caps a single session at one day of minutes.
	MaxDuration = 1440
	maxNotesLen = 2000

	defaultListLimit = 50
	maxListLimit     = 200
)

var (
	// ErrBadType means the activity type is not one of the known kinds.
	ErrBadType = errors.New("unknown activity type")
	// ErrBadDuration means the duration is outside 1..1440 minutes.
	ErrBadDuration = errors.New("duration must be between 1 and 1440 minutes")
	// ErrBadDate means the date does not parse as YYYY-MM-DD.
	ErrBadDate = errors.New("date must be formatted YYYY-MM-DD")
	// ErrFutureDate means the date is ahead of today in the user's timezone.
	ErrFutureDate = errors.New("date cannot be in the future")
	// ErrLanguageNotAttached means the user is not studying that language.
	ErrLanguageNotAttached = errors.New("language not attached to user")
	// ErrNotesTooLong caps free-form notes.
	ErrNotesTooLong = errors.New("notes too long")
)

type activityStore interface {
	Create(ctx context.Context, a models.Activity) error
	Get(ctx context.Context, userID, id string) (models.Activity, error)
	List(ctx context.Context, userID, languageCode string, limit, offset int) ([]models.Activity, error)
	Update(ctx context.Context, a models.Activity) error
	Delete(ctx context.Context, userID, id string) error
}

type userGetter interface {
	GetByID(ctx context.Context, id string) (models.User, error)
}

type mediaResolver interface {
	Resolve(ctx context.Context, userID, ref string) (models.Media, error)
}

// Service validates and persists logged immersion sessions.
type Service struct {
	store activityStore
	users userGetter
	media mediaResolver
	now   func() time.Time
}

func NewService(store activityStore, users userGetter, media mediaResolver) *Service {
	return &Service{store: store, users: users, media: media, now: time.Now}
}

// Log records a completed session. Media references are resolved (and TMDB
// titles persisted) before the activity row is written.
func (s *Service) Log(ctx context.Context, userID string, input models.ActivityInput) (models.Activity, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return models.Activity{}, err
	}

	a := models.Activity{
		ID:     uuid.NewString(),
		UserID: userID,
	}
	if err := s.apply(ctx, &a, user, input); err != nil {
		return models.Activity{}, err
	}

	now := s.now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	if err := s.store.Create(ctx, a); err != nil {
		return models.Activity{}, err
	}
	return a, nil
}

// Get fetches one of the user's activities.
func (s *Service) Get(ctx context.Context, userID, id string) (models.Activity, error) {
	return s.store.Get(ctx, userID, id)
}

// List returns the user's activities, newest first, optionally filtered by
// language.
func (s *Service) List(ctx context.Context, userID, languageCode string, limit, offset int) ([]models.Activity, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.List(ctx, userID, languageCode, limit, offset)
}

// Update replaces the writable fields of an existing activity, re-running
// the same validation as Log.
func (s *Service) Update(ctx context.Context, userID, id string, input models.ActivityInput) (models.Activity, error) {
	a, err := s.store.Get(ctx, userID, id)
	if err != nil {
		return models.Activity{}, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return models.Activity{}, err
	}

	if err := s.apply(ctx, &a, user, input); err != nil {
		return models.Activity{}, err
	}
	a.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, a); err != nil {
		return models.Activity{}, err
	}
	return a, nil
}

// Delete removes one of the user's activities.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	return s.store.Delete(ctx, userID, id)
}

// apply validates input against the user and writes it onto a.
func (s *Service) apply(ctx context.Context, a *models.Activity, user models.User, input models.ActivityInput) error {
	if !input.Type.Valid() {
		return ErrBadType
	}
	if input.Duration < 1 || input.Duration > MaxDuration {
		return ErrBadDuration
	}

	notes := strings.TrimSpace(input.Notes)
	if len(notes) > maxNotesLen {
		return ErrNotesTooLong
	}

	lang := strings.TrimSpace(input.LanguageCode)
	if lang == "" {
		lang = user.PrimaryLanguage
	}
	if !studying(user, lang) {
		return ErrLanguageNotAttached
	}

	date := strings.TrimSpace(input.Date)
	if date == "" {
		date = timeutil.TodayIn(user.Location(), s.now())
	}
	if _, err := timeutil.ParseDay(date); err != nil {
		return ErrBadDate
	}
	if timeutil.AfterDay(date, timeutil.TodayIn(user.Location(), s.now())) {
		return ErrFutureDate
	}

	mediaID := ""
	if ref := strings.TrimSpace(input.MediaID); ref != "" {
		m, err := s.media.Resolve(ctx, user.ID, ref)
		if err != nil {
			return err
		}
		mediaID = m.ID
	}

	a.Type = input.Type
	a.MediaID = mediaID
	a.LanguageCode = lang
	a.Duration = input.Duration
	a.Date = date
	a.Notes = notes
	return nil
}

func studying(user models.User, code string) bool {
	for _, c := range user.Languages {
		if c == code {
			return true
		}
	}
	return false
}
