package timers

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"fluencytrail/internal/database"
	"fluencytrail/internal/timeutil"
	"fluencytrail/models"
)

const (
	maxDurationMinutes = 1440
	defaultListLimit   = 20
)

var (
	// ErrBadType means the timer's activity type is not a known kind.
	ErrBadType = errors.New("unknown activity type")
	// ErrLanguageNotAttached means the user is not studying that language.
	ErrLanguageNotAttached = errors.New("language not attached to user")
	// ErrAlreadyRunning means the user already has a running timer.
	ErrAlreadyRunning = errors.New("a timer is already running")
)

type timerStore interface {
	Create(ctx context.Context, t models.ActivityTimer) error
	Get(ctx context.Context, userID, id string) (models.ActivityTimer, error)
	GetRunning(ctx context.Context, userID string) (models.ActivityTimer, error)
	List(ctx context.Context, userID string, limit int) ([]models.ActivityTimer, error)
	Stop(ctx context.Context, userID, id string, endedAt time.Time) error
	Delete(ctx context.Context, userID, id string) error
}

type activityStore interface {
	Create(ctx context.Context, a models.Activity) error
	Delete(ctx context.Context, userID, id string) error
}

type userGetter interface {
	GetByID(ctx context.Context, id string) (models.User, error)
}

type mediaResolver interface {
	Resolve(ctx context.Context, userID, ref string) (models.Media, error)
}

// Service tracks in-progress immersion sessions. Stopping a timer converts
// it into a logged activity; at most one timer runs per user, enforced both
// here and by a partial unique index.
type Service struct {
	timers     timerStore
	activities activityStore
	users      userGetter
	media      mediaResolver
	now        func() time.Time
}

func NewService(timers timerStore, activities activityStore, users userGetter, media mediaResolver) *Service {
	return &Service{
		timers:     timers,
		activities: activities,
		users:      users,
		media:      media,
		now:        time.Now,
	}
}

// Start begins a timer for the user. Validation mirrors activity logging,
// minus duration and date which are determined at stop time.
func (s *Service) Start(ctx context.Context, userID string, input models.TimerInput) (models.ActivityTimer, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return models.ActivityTimer{}, err
	}

	if !input.Type.Valid() {
		return models.ActivityTimer{}, ErrBadType
	}

	lang := strings.TrimSpace(input.LanguageCode)
	if lang == "" {
		lang = user.PrimaryLanguage
	}
	if !studying(user, lang) {
		return models.ActivityTimer{}, ErrLanguageNotAttached
	}

	mediaID := ""
	if ref := strings.TrimSpace(input.MediaID); ref != "" {
		m, err := s.media.Resolve(ctx, userID, ref)
		if err != nil {
			return models.ActivityTimer{}, err
		}
		mediaID = m.ID
	}

	now := s.now().UTC()
	t := models.ActivityTimer{
		ID:           uuid.NewString(),
		UserID:       userID,
		Type:         input.Type,
		MediaID:      mediaID,
		LanguageCode: lang,
		StartedAt:    now,
		CreatedAt:    now,
	}
	if err := s.timers.Create(ctx, t); err != nil {
		if errors.Is(err, database.ErrTimerRunning) {
			return models.ActivityTimer{}, ErrAlreadyRunning
		}
		return models.ActivityTimer{}, err
	}
	return t, nil
}

// Stop closes a running timer and logs the elapsed time as an activity. The
// activity lands on the day the timer started, in the user's timezone, with
// the duration clamped to 1..1440 minutes.
func (s *Service) Stop(ctx context.Context, userID, id string) (models.StoppedTimer, error) {
	t, err := s.timers.Get(ctx, userID, id)
	if err != nil {
		return models.StoppedTimer{}, err
	}
	if !t.Running() {
		return models.StoppedTimer{}, database.ErrNotFound
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return models.StoppedTimer{}, err
	}

	endedAt := s.now().UTC()
	minutes := int(endedAt.Sub(t.StartedAt).Minutes())
	if minutes < 1 {
		minutes = 1
	}
	if minutes > maxDurationMinutes {
		minutes = maxDurationMinutes
	}

	// The activity is written before the timer closes: if logging fails the
	// timer keeps running and the stop can be retried.
	a := models.Activity{
		ID:           uuid.NewString(),
		UserID:       userID,
		Type:         t.Type,
		MediaID:      t.MediaID,
		LanguageCode: t.LanguageCode,
		Duration:     minutes,
		Date:         timeutil.DayIn(t.StartedAt, user.Location()),
		CreatedAt:    endedAt,
		UpdatedAt:    endedAt,
	}
	if err := s.activities.Create(ctx, a); err != nil {
		return models.StoppedTimer{}, err
	}
	if err := s.timers.Stop(ctx, userID, id, endedAt); err != nil {
		if derr := s.activities.Delete(ctx, userID, a.ID); derr != nil {
			log.Printf("[timers] removing activity %s after failed stop of timer %s: %v", a.ID, id, derr)
		}
		return models.StoppedTimer{}, err
	}
	t.EndedAt = &endedAt
	return models.StoppedTimer{Timer: t, Activity: a}, nil
}

// Cancel discards a timer without logging an activity.
func (s *Service) Cancel(ctx context.Context, userID, id string) error {
	return s.timers.Delete(ctx, userID, id)
}

// Running returns the user's active timer, if any.
func (s *Service) Running(ctx context.Context, userID string) (models.ActivityTimer, error) {
	return s.timers.GetRunning(ctx, userID)
}

// List returns the user's recent timers, newest first.
func (s *Service) List(ctx context.Context, userID string, limit int) ([]models.ActivityTimer, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.timers.List(ctx, userID, limit)
}

func studying(user models.User, code string) bool {
	for _, c := range user.Languages {
		if c == code {
			return true
		}
	}
	return false
}
