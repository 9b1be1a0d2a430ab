package stats

import (
	"context"
	"time"

	"fluencytrail/internal/timeutil"
	"fluencytrail/models"
)

// heatmapDays is the trailing window shown on the activity heatmap.
const heatmapDays = 365

type activityAggregator interface {
	DailyTotals(ctx context.Context, userID, languageCode string) ([]models.ActivityDay, error)
	TypeTotals(ctx context.Context, userID, languageCode string) ([]models.TypeTotal, error)
}

type userGetter interface {
	GetByID(ctx context.Context, id string) (models.User, error)
}

// Service aggregates activity history into totals, streaks and a heatmap.
// All day arithmetic runs in the user's timezone, so a streak does not break
// just because the server's midnight passed first.
type Service struct {
	activities activityAggregator
	users      userGetter
	now        func() time.Time
}

func NewService(activities activityAggregator, users userGetter) *Service {
	return &Service{activities: activities, users: users, now: time.Now}
}

// Overview computes the user's stats, optionally scoped to one language.
func (s *Service) Overview(ctx context.Context, userID, languageCode string) (models.Stats, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return models.Stats{}, err
	}

	days, err := s.activities.DailyTotals(ctx, userID, languageCode)
	if err != nil {
		return models.Stats{}, err
	}
	byType, err := s.activities.TypeTotals(ctx, userID, languageCode)
	if err != nil {
		return models.Stats{}, err
	}

	today := timeutil.TodayIn(user.Location(), s.now())
	current, longest := streaks(days, today)

	stats := models.Stats{
		CurrentStreak: current,
		LongestStreak: longest,
		Heatmap:       heatmap(days, today),
		ByType:        byType,
	}
	for _, d := range days {
		stats.TotalMinutes += d.Minutes
	}
	return stats, nil
}

// streaks walks the ascending day totals once. A run extends while
// consecutive days are exactly one apart; the current streak is the final
// run, and only counts if it reaches today or yesterday.
func streaks(days []models.ActivityDay, today string) (current, longest int) {
	if len(days) == 0 {
		return 0, 0
	}

	run := 1
	longest = 1
	for i := 1; i < len(days); i++ {
		if timeutil.DaysBetween(days[i-1].Date, days[i].Date) == 1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	gap := timeutil.DaysBetween(days[len(days)-1].Date, today)
	if gap == 0 || gap == 1 {
		current = run
	}
	return current, longest
}

// heatmap keeps only the trailing window ending today.
func heatmap(days []models.ActivityDay, today string) []models.ActivityDay {
	out := make([]models.ActivityDay, 0, len(days))
	for _, d := range days {
		age := timeutil.DaysBetween(d.Date, today)
		if age < 0 || age >= heatmapDays {
			continue
		}
		out = append(out, d)
	}
	return out
}
