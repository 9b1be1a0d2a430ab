package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"fluencytrail/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "fluencytrail.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedTestUser(t *testing.T, db *DB, id string) {
	t.Helper()
	now := time.Now().UTC()
	err := NewUserRepository(db.Connection()).Create(context.Background(), models.User{
		ID:           id,
		Email:        id + "@example.com",
		Name:         "Tester",
		Timezone:     "UTC",
		PasswordHash: "x",
		Confirmed:    true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func TestCustomMediaDeleteRemovesLoggedActivities(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	seedTestUser(t, db, "u1")

	custom := NewCustomMediaRepository(db.Connection())
	activities := NewActivityRepository(db.Connection())
	media := NewMediaRepository(db.Connection())

	now := time.Now().UTC()
	cm := models.CustomMedia{
		ID:        "c1",
		UserID:    "u1",
		MediaID:   "m-c1",
		Title:     "Night Reading",
		Slug:      "night-reading",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := custom.Create(ctx, cm); err != nil {
		t.Fatalf("create custom media: %v", err)
	}

	act := models.Activity{
		ID:           "a1",
		UserID:       "u1",
		Type:         models.ActivityReading,
		MediaID:      "m-c1",
		LanguageCode: "ja",
		Duration:     30,
		Date:         "2026-08-30",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := activities.Create(ctx, act); err != nil {
		t.Fatalf("create activity: %v", err)
	}

	if err := custom.Delete(ctx, "u1", "c1"); err != nil {
		t.Fatalf("delete with logged activity: %v", err)
	}

	if _, err := custom.Get(ctx, "u1", "c1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("custom media must be gone, got %v", err)
	}
	if _, err := media.Get(ctx, "m-c1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("shadow media row must be gone, got %v", err)
	}
	if _, err := activities.Get(ctx, "u1", "a1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("referencing activity must be gone, got %v", err)
	}
}
