package stats

import (
	"context"
	"testing"
	"time"

	"fluencytrail/internal/database"
	"fluencytrail/models"
)

type fakeAggregator struct {
	days     []models.ActivityDay
	byType   []models.TypeTotal
	lastLang string
}

func (f *fakeAggregator) DailyTotals(_ context.Context, _, languageCode string) ([]models.ActivityDay, error) {
	f.lastLang = languageCode
	return f.days, nil
}

func (f *fakeAggregator) TypeTotals(_ context.Context, _, _ string) ([]models.TypeTotal, error) {
	return f.byType, nil
}

type fakeUserGetter struct {
	user models.User
}

func (f *fakeUserGetter) GetByID(_ context.Context, id string) (models.User, error) {
	if id != f.user.ID {
		return models.User{}, database.ErrNotFound
	}
	return f.user, nil
}

func newTestService(days []models.ActivityDay, timezone string) (*Service, *fakeAggregator) {
	agg := &fakeAggregator{
		days: days,
		byType: []models.TypeTotal{
			{Type: models.ActivityWatching, Minutes: 120},
		},
	}
	users := &fakeUserGetter{user: models.User{ID: "u1", Timezone: timezone}}
	return NewService(agg, users), agg
}

func at(t *testing.T, svc *Service, value string) {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("bad test time %q: %v", value, err)
	}
	svc.now = func() time.Time { return parsed }
}

func TestOverviewTotalsAndTypes(t *testing.T) {
	svc, agg := newTestService([]models.ActivityDay{
		{Date: "2026-03-08", Minutes: 30},
		{Date: "2026-03-09", Minutes: 45},
	}, "UTC")
	at(t, svc, "2026-03-09T12:00:00Z")

	stats, err := svc.Overview(context.Background(), "u1", "ja")
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if stats.TotalMinutes != 75 {
		t.Fatalf("expected 75 total minutes, got %d", stats.TotalMinutes)
	}
	if len(stats.ByType) != 1 || stats.ByType[0].Type != models.ActivityWatching {
		t.Fatalf("unexpected type totals: %+v", stats.ByType)
	}
	if agg.lastLang != "ja" {
		t.Fatalf("language filter not forwarded, got %q", agg.lastLang)
	}
}

func TestStreakBrokenByGap(t *testing.T) {
	// Three consecutive days, a gap, then one more day.
	svc, _ := newTestService([]models.ActivityDay{
		{Date: "2026-03-01", Minutes: 10},
		{Date: "2026-03-02", Minutes: 10},
		{Date: "2026-03-03", Minutes: 10},
		{Date: "2026-03-05", Minutes: 10},
	}, "UTC")
	at(t, svc, "2026-03-05T12:00:00Z")

	stats, err := svc.Overview(context.Background(), "u1", "")
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if stats.LongestStreak != 3 {
		t.Fatalf("expected longest streak 3, got %d", stats.LongestStreak)
	}
	if stats.CurrentStreak != 1 {
		t.Fatalf("expected current streak 1, got %d", stats.CurrentStreak)
	}
}

func TestCurrentStreakSurvivesUntilEndOfToday(t *testing.T) {
	days := []models.ActivityDay{
		{Date: "2026-03-07", Minutes: 10},
		{Date: "2026-03-08", Minutes: 10},
		{Date: "2026-03-09", Minutes: 10},
	}

	// Last logged day is yesterday: streak still current.
	svc, _ := newTestService(days, "UTC")
	at(t, svc, "2026-03-10T08:00:00Z")
	stats, err := svc.Overview(context.Background(), "u1", "")
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if stats.CurrentStreak != 3 {
		t.Fatalf("expected current streak 3 with last log yesterday, got %d", stats.CurrentStreak)
	}

	// Two days since the last log: streak over.
	at(t, svc, "2026-03-11T08:00:00Z")
	stats, err = svc.Overview(context.Background(), "u1", "")
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if stats.CurrentStreak != 0 {
		t.Fatalf("expected current streak 0, got %d", stats.CurrentStreak)
	}
	if stats.LongestStreak != 3 {
		t.Fatalf("longest streak must survive, got %d", stats.LongestStreak)
	}
}

func TestStreakUsesUserTimezone(t *testing.T) {
	days := []models.ActivityDay{
		{Date: "2026-03-09", Minutes: 10},
	}

	// 22:00 UTC on Mar 10 is already Mar 11 in Tokyo, so for a Tokyo user
	// the Mar 9 log is two days old and the streak is broken. A UTC user
	// still sees it as yesterday.
	tokyo, _ := newTestService(days, "Asia/Tokyo")
	at(t, tokyo, "2026-03-10T22:00:00Z")
	stats, err := tokyo.Overview(context.Background(), "u1", "")
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if stats.CurrentStreak != 0 {
		t.Fatalf("Tokyo user: expected streak 0, got %d", stats.CurrentStreak)
	}

	utc, _ := newTestService(days, "UTC")
	at(t, utc, "2026-03-10T22:00:00Z")
	stats, err = utc.Overview(context.Background(), "u1", "")
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if stats.CurrentStreak != 1 {
		t.Fatalf("UTC user: expected streak 1, got %d", stats.CurrentStreak)
	}
}

func TestHeatmapWindow(t *testing.T) {
	svc, _ := newTestService([]models.ActivityDay{
		{Date: "2024-01-01", Minutes: 10}, // far outside the window
		{Date: "2026-03-01", Minutes: 20},
		{Date: "2026-03-09", Minutes: 30},
	}, "UTC")
	at(t, svc, "2026-03-09T12:00:00Z")

	stats, err := svc.Overview(context.Background(), "u1", "")
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if len(stats.Heatmap) != 2 {
		t.Fatalf("expected 2 heatmap days, got %d", len(stats.Heatmap))
	}
	if stats.Heatmap[0].Date != "2026-03-01" || stats.Heatmap[1].Date != "2026-03-09" {
		t.Fatalf("unexpected heatmap: %+v", stats.Heatmap)
	}
	// Totals still include days outside the heatmap window.
	if stats.TotalMinutes != 60 {
		t.Fatalf("expected 60 total minutes, got %d", stats.TotalMinutes)
	}
}

func TestEmptyHistory(t *testing.T) {
	svc, _ := newTestService(nil, "UTC")
	at(t, svc, "2026-03-09T12:00:00Z")

	stats, err := svc.Overview(context.Background(), "u1", "")
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if stats.TotalMinutes != 0 || stats.CurrentStreak != 0 || stats.LongestStreak != 0 {
		t.Fatalf("expected zeroed stats, got %+v", stats)
	}
	if len(stats.Heatmap) != 0 {
		t.Fatalf("expected empty heatmap, got %+v", stats.Heatmap)
	}
}
