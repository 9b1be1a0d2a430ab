package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"fluencytrail/internal/cache"
	"fluencytrail/internal/database"
	"fluencytrail/models"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

type fakeMediaStore struct {
	mu     sync.Mutex
	byID   map[string]models.Media
	byTMDB map[string]models.Media
}

func newFakeMediaStore() *fakeMediaStore {
	return &fakeMediaStore{byID: map[string]models.Media{}, byTMDB: map[string]models.Media{}}
}

func tmdbKey(id int64, t models.MediaType) string {
	return fmt.Sprintf("%s:%d", t, id)
}

func (f *fakeMediaStore) Get(_ context.Context, id string) (models.Media, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.byID[id]
	if !ok {
		return models.Media{}, database.ErrNotFound
	}
	return m, nil
}

func (f *fakeMediaStore) GetByTMDB(_ context.Context, tmdbID int64, mediaType models.MediaType) (models.Media, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.byTMDB[tmdbKey(tmdbID, mediaType)]
	if !ok {
		return models.Media{}, database.ErrNotFound
	}
	return m, nil
}

func (f *fakeMediaStore) Upsert(_ context.Context, m models.Media) (models.Media, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.byTMDB[tmdbKey(m.TMDBID, m.Type)]; ok {
		m.ID = existing.ID
	}
	m.SyncedAt = time.Now().UTC()
	f.byID[m.ID] = m
	f.byTMDB[tmdbKey(m.TMDBID, m.Type)] = m
	return m, nil
}

type fakeCustomStore struct {
	entries   []models.CustomMedia
	searchErr error
}

func (f *fakeCustomStore) Create(_ context.Context, cm models.CustomMedia) error {
	for _, e := range f.entries {
		if e.UserID == cm.UserID && e.Slug == cm.Slug {
			return database.ErrSlugExists
		}
	}
	f.entries = append(f.entries, cm)
	return nil
}

func (f *fakeCustomStore) Get(_ context.Context, userID, id string) (models.CustomMedia, error) {
	for _, e := range f.entries {
		if e.UserID == userID && e.ID == id {
			return e, nil
		}
	}
	return models.CustomMedia{}, database.ErrNotFound
}

func (f *fakeCustomStore) GetByMediaID(_ context.Context, userID, mediaID string) (models.CustomMedia, error) {
	for _, e := range f.entries {
		if e.UserID == userID && e.MediaID == mediaID {
			return e, nil
		}
	}
	return models.CustomMedia{}, database.ErrNotFound
}

func (f *fakeCustomStore) List(_ context.Context, userID string) ([]models.CustomMedia, error) {
	var out []models.CustomMedia
	for _, e := range f.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeCustomStore) SearchTitles(_ context.Context, userID, query string, limit int) ([]models.CustomMedia, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	var out []models.CustomMedia
	for _, e := range f.entries {
		if e.UserID == userID && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeCustomStore) Update(_ context.Context, cm models.CustomMedia) error {
	for i, e := range f.entries {
		if e.UserID == cm.UserID && e.ID == cm.ID {
			f.entries[i] = cm
			return nil
		}
	}
	return database.ErrNotFound
}

func (f *fakeCustomStore) Delete(_ context.Context, userID, id string) error {
	for i, e := range f.entries {
		if e.UserID == userID && e.ID == id {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return nil
		}
	}
	return database.ErrNotFound
}

func newServiceWithTransport(custom *fakeCustomStore, store *fakeMediaStore, rt roundTripFunc) *Service {
	client := newTMDBClient("test-key", "en", &http.Client{Transport: rt})
	client.minInterval = 0
	return &Service{
		media:   store,
		custom:  custom,
		tmdb:    client,
		results: cache.New(6 * time.Hour),
		ttl:     6 * time.Hour,
		now:     time.Now,
	}
}

const multiSearchBody = `{"results":[
	{"id":603,"media_type":"movie","title":"The Matrix","release_date":"1999-03-30","poster_path":"/matrix.jpg","popularity":91.5},
	{"id":1396,"media_type":"tv","name":"Breaking Bad","first_air_date":"2008-01-20","popularity":120.1},
	{"id":9,"media_type":"person","name":"Keanu Reeves"}
]}`

func TestSearchMergesCustomFirst(t *testing.T) {
	custom := &fakeCustomStore{entries: []models.CustomMedia{
		{ID: "c1", UserID: "u1", MediaID: "m-c1", Title: "Matrix Fan Podcast", Slug: "matrix-fan-podcast"},
	}}
	svc := newServiceWithTransport(custom, newFakeMediaStore(), func(req *http.Request) (*http.Response, error) {
		if got := req.URL.Query().Get("query"); got != "matrix" {
			t.Errorf("unexpected query %q", got)
		}
		return jsonResponse(multiSearchBody), nil
	})

	results, err := svc.Search(context.Background(), "u1", "matrix")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results (person hit dropped), got %d", len(results))
	}
	if !results[0].Custom || results[0].ID != "m-c1" {
		t.Fatalf("custom entry must come first, got %+v", results[0])
	}
	if results[1].ID != "tmdb:movie:603" || results[1].Type != models.MediaMovie {
		t.Fatalf("unexpected tmdb movie result: %+v", results[1])
	}
	if results[2].ID != "tmdb:tv:1396" || results[2].Title != "Breaking Bad" {
		t.Fatalf("unexpected tmdb tv result: %+v", results[2])
	}
	if results[1].PosterURL == "" {
		t.Error("movie poster URL missing")
	}
}

func TestSearchSurvivesTMDBOutage(t *testing.T) {
	custom := &fakeCustomStore{entries: []models.CustomMedia{
		{ID: "c1", UserID: "u1", MediaID: "m-c1", Title: "Night Reading", Slug: "night-reading"},
	}}
	svc := newServiceWithTransport(custom, newFakeMediaStore(), func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})

	results, err := svc.Search(context.Background(), "u1", "night")
	if err != nil {
		t.Fatalf("search must not fail when tmdb is down: %v", err)
	}
	if len(results) != 1 || !results[0].Custom {
		t.Fatalf("expected local-only results, got %+v", results)
	}
}

func TestSearchCachesTMDBResults(t *testing.T) {
	var calls int
	svc := newServiceWithTransport(&fakeCustomStore{}, newFakeMediaStore(), func(*http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(multiSearchBody), nil
	})
	ctx := context.Background()

	if _, err := svc.Search(ctx, "u1", "matrix"); err != nil {
		t.Fatalf("first search: %v", err)
	}
	if _, err := svc.Search(ctx, "u1", "Matrix"); err != nil {
		t.Fatalf("second search: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 upstream call, got %d", calls)
	}
}

func TestResolveTMDBRefFetchesAndPersists(t *testing.T) {
	store := newFakeMediaStore()
	var detailCalls int
	svc := newServiceWithTransport(&fakeCustomStore{}, store, func(req *http.Request) (*http.Response, error) {
		detailCalls++
		if req.URL.Path != "/3/movie/603" {
			t.Errorf("unexpected path %q", req.URL.Path)
		}
		return jsonResponse(`{"id":603,"title":"The Matrix","release_date":"1999-03-30","popularity":91.5}`), nil
	})
	ctx := context.Background()

	m, err := svc.Resolve(ctx, "u1", "tmdb:movie:603")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if m.ID == "" || m.TMDBID != 603 || m.Type != models.MediaMovie {
		t.Fatalf("unexpected media: %+v", m)
	}

	// Second resolve hits the fresh local row, not TMDB.
	again, err := svc.Resolve(ctx, "u1", "tmdb:movie:603")
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if again.ID != m.ID {
		t.Fatal("resolve must be stable across calls")
	}
	if detailCalls != 1 {
		t.Fatalf("expected 1 detail fetch, got %d", detailCalls)
	}
}

func TestResolveRejectsGarbage(t *testing.T) {
	svc := newServiceWithTransport(&fakeCustomStore{}, newFakeMediaStore(), func(*http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})
	for _, ref := range []string{"", "tmdb:person:9", "nope"} {
		if _, err := svc.Resolve(context.Background(), "u1", ref); !errors.Is(err, ErrBadRef) {
			t.Fatalf("ref %q: expected ErrBadRef, got %v", ref, err)
		}
	}
}

func TestResolveCustomOwnership(t *testing.T) {
	store := newFakeMediaStore()
	store.byID["m-c1"] = models.Media{ID: "m-c1", Title: "Night Reading", Type: models.MediaCustom}
	custom := &fakeCustomStore{entries: []models.CustomMedia{
		{ID: "c1", UserID: "u1", MediaID: "m-c1", Title: "Night Reading", Slug: "night-reading"},
	}}
	svc := newServiceWithTransport(custom, store, func(*http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})
	ctx := context.Background()

	if _, err := svc.Resolve(ctx, "u1", "m-c1"); err != nil {
		t.Fatalf("owner resolve: %v", err)
	}
	if _, err := svc.Resolve(ctx, "u2", "m-c1"); !errors.Is(err, ErrBadRef) {
		t.Fatalf("foreign custom media must resolve as ErrBadRef, got %v", err)
	}
}

func TestGetHidesForeignCustomMedia(t *testing.T) {
	store := newFakeMediaStore()
	store.byID["m-c1"] = models.Media{ID: "m-c1", Title: "Night Reading", Type: models.MediaCustom}
	custom := &fakeCustomStore{entries: []models.CustomMedia{
		{ID: "c1", UserID: "u1", MediaID: "m-c1", Title: "Night Reading", Slug: "night-reading"},
	}}
	svc := newServiceWithTransport(custom, store, func(*http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})
	ctx := context.Background()

	if _, err := svc.Get(ctx, "u1", "m-c1"); err != nil {
		t.Fatalf("owner get: %v", err)
	}
	if _, err := svc.Get(ctx, "u2", "m-c1"); !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("foreign custom media must read as not found, got %v", err)
	}
}

func TestGetRefreshesStaleRows(t *testing.T) {
	store := newFakeMediaStore()
	stale := models.Media{
		ID:       "m1",
		TMDBID:   603,
		Title:    "The Matrix (old title)",
		Type:     models.MediaMovie,
		SyncedAt: time.Now().Add(-48 * time.Hour),
	}
	store.byID["m1"] = stale
	store.byTMDB[tmdbKey(603, models.MediaMovie)] = stale

	svc := newServiceWithTransport(&fakeCustomStore{}, store, func(*http.Request) (*http.Response, error) {
		return jsonResponse(`{"id":603,"title":"The Matrix","release_date":"1999-03-30","popularity":91.5}`), nil
	})

	m, err := svc.Get(context.Background(), "u1", "m1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if m.Title != "The Matrix" {
		t.Fatalf("stale row was not refreshed: %q", m.Title)
	}
	if m.ID != "m1" {
		t.Fatalf("refresh must keep the stored id, got %q", m.ID)
	}
}

func TestGetKeepsStaleRowWhenTMDBFails(t *testing.T) {
	store := newFakeMediaStore()
	store.byID["m1"] = models.Media{
		ID:       "m1",
		TMDBID:   603,
		Title:    "The Matrix",
		Type:     models.MediaMovie,
		SyncedAt: time.Now().Add(-48 * time.Hour),
	}
	svc := newServiceWithTransport(&fakeCustomStore{}, store, func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})

	m, err := svc.Get(context.Background(), "u1", "m1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if m.Title != "The Matrix" {
		t.Fatalf("expected cached copy, got %+v", m)
	}
}

func TestCreateCustomGeneratesSlug(t *testing.T) {
	custom := &fakeCustomStore{}
	svc := newServiceWithTransport(custom, newFakeMediaStore(), func(*http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})
	ctx := context.Background()

	cm, err := svc.CreateCustom(ctx, "u1", models.CustomMediaInput{Title: "  My French Podcast!  "})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if cm.Slug != "my-french-podcast" {
		t.Fatalf("unexpected slug %q", cm.Slug)
	}
	if cm.MediaID == "" || cm.MediaID == cm.ID {
		t.Fatal("shadow media id missing or reused")
	}

	// Duplicate title gets a disambiguated slug instead of an error.
	dup, err := svc.CreateCustom(ctx, "u1", models.CustomMediaInput{Title: "My French Podcast"})
	if err != nil {
		t.Fatalf("duplicate create: %v", err)
	}
	if dup.Slug == cm.Slug {
		t.Fatal("duplicate slug not disambiguated")
	}
}

func TestCreateCustomValidation(t *testing.T) {
	svc := newServiceWithTransport(&fakeCustomStore{}, newFakeMediaStore(), func(*http.Request) (*http.Response, error) {
		return nil, nil
	})
	ctx := context.Background()

	if _, err := svc.CreateCustom(ctx, "u1", models.CustomMediaInput{Title: "   "}); !errors.Is(err, ErrTitleRequired) {
		t.Fatalf("expected ErrTitleRequired, got %v", err)
	}
	if _, err := svc.CreateCustom(ctx, "u1", models.CustomMediaInput{Title: "ok", Metadata: []byte(`[1,2]`)}); !errors.Is(err, ErrBadMetadata) {
		t.Fatalf("expected ErrBadMetadata, got %v", err)
	}
}
