package languages

import (
	"context"
	"errors"
	"testing"

	"fluencytrail/internal/database"
	"fluencytrail/models"
)

type fakeCatalog struct {
	langs map[string]models.Language
}

func (f *fakeCatalog) List(context.Context) ([]models.Language, error) {
	out := make([]models.Language, 0, len(f.langs))
	for _, l := range f.langs {
		out = append(out, l)
	}
	return out, nil
}

func (f *fakeCatalog) Get(_ context.Context, code string) (models.Language, error) {
	l, ok := f.langs[code]
	if !ok {
		return models.Language{}, database.ErrNotFound
	}
	return l, nil
}

type fakeUsers struct {
	user models.User
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (models.User, error) {
	if id != f.user.ID {
		return models.User{}, database.ErrNotFound
	}
	return f.user, nil
}

func (f *fakeUsers) AddLanguage(_ context.Context, _, code string) error {
	for _, c := range f.user.Languages {
		if c == code {
			return nil
		}
	}
	f.user.Languages = append(f.user.Languages, code)
	return nil
}

func (f *fakeUsers) RemoveLanguage(_ context.Context, _, code string) error {
	kept := f.user.Languages[:0]
	for _, c := range f.user.Languages {
		if c != code {
			kept = append(kept, c)
		}
	}
	f.user.Languages = kept
	return nil
}

func (f *fakeUsers) SetPrimaryLanguage(_ context.Context, _, code string) error {
	f.user.PrimaryLanguage = code
	return nil
}

type fakeActivityCounts struct {
	counts map[string]int
	calls  []string
	err    error
}

func (f *fakeActivityCounts) CountByLanguage(_ context.Context, _, code string) (int, error) {
	f.calls = append(f.calls, code)
	return f.counts[code], f.err
}

func newTestService() (*Service, *fakeUsers) {
	svc, users, _ := newTestServiceWithCounts()
	return svc, users
}

func newTestServiceWithCounts() (*Service, *fakeUsers, *fakeActivityCounts) {
	catalog := &fakeCatalog{langs: map[string]models.Language{
		"ja": {Code: "ja", Name: "Japanese"},
		"fr": {Code: "fr", Name: "French"},
		"de": {Code: "de", Name: "German"},
	}}
	users := &fakeUsers{user: models.User{ID: "u1"}}
	counts := &fakeActivityCounts{counts: map[string]int{}}
	return NewService(catalog, users, counts), users, counts
}

func TestAddFirstLanguageBecomesPrimary(t *testing.T) {
	svc, users := newTestService()
	ctx := context.Background()

	if err := svc.Add(ctx, "u1", "JA"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if users.user.PrimaryLanguage != "ja" {
		t.Fatalf("first language should be primary, got %q", users.user.PrimaryLanguage)
	}

	if err := svc.Add(ctx, "u1", "fr"); err != nil {
		t.Fatalf("add second: %v", err)
	}
	if users.user.PrimaryLanguage != "ja" {
		t.Fatal("adding a second language must not change the primary")
	}
}

func TestAddUnknownCode(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if err := svc.Add(ctx, "u1", "zz-not-a-tag!"); !errors.Is(err, ErrUnknownLanguage) {
		t.Fatalf("expected ErrUnknownLanguage for malformed tag, got %v", err)
	}
	// Valid BCP 47 but not in the catalog.
	if err := svc.Add(ctx, "u1", "sw"); !errors.Is(err, ErrUnknownLanguage) {
		t.Fatalf("expected ErrUnknownLanguage for uncatalogued code, got %v", err)
	}
}

func TestRemoveGuards(t *testing.T) {
	svc, users := newTestService()
	ctx := context.Background()

	_ = svc.Add(ctx, "u1", "ja")
	if err := svc.Remove(ctx, "u1", "ja"); !errors.Is(err, ErrLastLanguage) {
		t.Fatalf("expected ErrLastLanguage, got %v", err)
	}

	_ = svc.Add(ctx, "u1", "fr")
	if err := svc.Remove(ctx, "u1", "ja"); !errors.Is(err, ErrPrimaryLanguage) {
		t.Fatalf("expected ErrPrimaryLanguage, got %v", err)
	}
	if err := svc.Remove(ctx, "u1", "de"); !errors.Is(err, ErrNotAttached) {
		t.Fatalf("expected ErrNotAttached, got %v", err)
	}

	if err := svc.Remove(ctx, "u1", "fr"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(users.user.Languages) != 1 || users.user.Languages[0] != "ja" {
		t.Fatalf("unexpected languages after remove: %v", users.user.Languages)
	}
}

func TestRemoveReportsLoggedActivities(t *testing.T) {
	svc, users, counts := newTestServiceWithCounts()
	ctx := context.Background()

	_ = svc.Add(ctx, "u1", "ja")
	_ = svc.Add(ctx, "u1", "fr")
	counts.counts["fr"] = 7

	if err := svc.Remove(ctx, "u1", "fr"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(counts.calls) != 1 || counts.calls[0] != "fr" {
		t.Fatalf("expected one count lookup for fr, got %v", counts.calls)
	}

	// A failing count never blocks the detach.
	_ = svc.Add(ctx, "u1", "de")
	counts.err = errors.New("db closed")
	if err := svc.Remove(ctx, "u1", "de"); err != nil {
		t.Fatalf("remove with failing count: %v", err)
	}
	if got := users.user.Languages; len(got) != 1 || got[0] != "ja" {
		t.Fatalf("unexpected languages after removes: %v", got)
	}
}

func TestSetPrimary(t *testing.T) {
	svc, users := newTestService()
	ctx := context.Background()

	_ = svc.Add(ctx, "u1", "ja")
	_ = svc.Add(ctx, "u1", "fr")

	if err := svc.SetPrimary(ctx, "u1", "de"); !errors.Is(err, ErrNotAttached) {
		t.Fatalf("expected ErrNotAttached, got %v", err)
	}
	if err := svc.SetPrimary(ctx, "u1", "fr"); err != nil {
		t.Fatalf("set primary: %v", err)
	}
	if users.user.PrimaryLanguage != "fr" {
		t.Fatalf("primary not updated: %q", users.user.PrimaryLanguage)
	}

	// The old primary can be removed now.
	if err := svc.Remove(ctx, "u1", "ja"); err != nil {
		t.Fatalf("remove former primary: %v", err)
	}
}

func TestUserLanguagesFlagsPrimary(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_ = svc.Add(ctx, "u1", "ja")
	_ = svc.Add(ctx, "u1", "fr")

	list, err := svc.UserLanguages(ctx, "u1")
	if err != nil {
		t.Fatalf("user languages: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 languages, got %d", len(list))
	}
	for _, ul := range list {
		if ul.Primary != (ul.Code == "ja") {
			t.Fatalf("wrong primary flag for %s", ul.Code)
		}
	}
}
