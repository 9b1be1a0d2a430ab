package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"

	"fluencytrail/internal/cache"
	"fluencytrail/internal/database"
	"fluencytrail/models"
)

const searchLimit = 10

var (
	// ErrTitleRequired means a custom media entry has no usable title.
	ErrTitleRequired = errors.New("title is required")
	// ErrBadMetadata means custom media metadata is not a JSON object.
	ErrBadMetadata = errors.New("metadata must be a JSON object")
	// ErrBadRef means a media reference could not be parsed.
	ErrBadRef = errors.New("unrecognized media reference")
)

type mediaStore interface {
	Get(ctx context.Context, id string) (models.Media, error)
	GetByTMDB(ctx context.Context, tmdbID int64, mediaType models.MediaType) (models.Media, error)
	Upsert(ctx context.Context, m models.Media) (models.Media, error)
}

type customStore interface {
	Create(ctx context.Context, cm models.CustomMedia) error
	Get(ctx context.Context, userID, id string) (models.CustomMedia, error)
	GetByMediaID(ctx context.Context, userID, mediaID string) (models.CustomMedia, error)
	List(ctx context.Context, userID string) ([]models.CustomMedia, error)
	SearchTitles(ctx context.Context, userID, query string, limit int) ([]models.CustomMedia, error)
	Update(ctx context.Context, cm models.CustomMedia) error
	Delete(ctx context.Context, userID, id string) error
}

type tmdbAPI interface {
	isConfigured() bool
	multiSearch(ctx context.Context, query string) ([]models.SearchResult, error)
	movieDetails(ctx context.Context, tmdbID int64) (models.Media, error)
	tvDetails(ctx context.Context, tmdbID int64) (models.Media, error)
}

// Service merges TMDB lookups with the user's custom media library. TMDB
// rows are persisted locally on first use and refreshed when older than ttl.
type Service struct {
	media   mediaStore
	custom  customStore
	tmdb    tmdbAPI
	results *cache.TTL
	ttl     time.Duration
	now     func() time.Time
}

func NewService(media mediaStore, custom customStore, tmdbAPIKey, language string, ttl time.Duration) *Service {
	return &Service{
		media:   media,
		custom:  custom,
		tmdb:    newTMDBClient(tmdbAPIKey, language, nil),
		results: cache.New(ttl),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Search fans out to the user's custom library and TMDB concurrently and
// merges the hits, custom entries first, capped at ten. A TMDB failure
// degrades to local-only results.
func (s *Service) Search(ctx context.Context, userID, query string) ([]models.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.SearchResult{}, nil
	}

	var (
		local     []models.CustomMedia
		localErr  error
		remote    []models.SearchResult
		remoteErr error
	)

	var wg conc.WaitGroup
	wg.Go(func() {
		local, localErr = s.custom.SearchTitles(ctx, userID, query, searchLimit)
	})
	wg.Go(func() {
		remote, remoteErr = s.searchTMDB(ctx, query)
	})
	wg.Wait()

	if localErr != nil {
		return nil, localErr
	}
	if remoteErr != nil {
		log.Printf("[media] tmdb search %q failed, returning local results only: %v", query, remoteErr)
	}

	merged := make([]models.SearchResult, 0, searchLimit)
	for _, cm := range local {
		merged = append(merged, models.SearchResult{
			ID:     cm.MediaID,
			Title:  cm.Title,
			Type:   models.MediaCustom,
			Custom: true,
		})
		if len(merged) == searchLimit {
			return merged, nil
		}
	}
	for _, r := range remote {
		merged = append(merged, r)
		if len(merged) == searchLimit {
			break
		}
	}
	return merged, nil
}

func (s *Service) searchTMDB(ctx context.Context, query string) ([]models.SearchResult, error) {
	if !s.tmdb.isConfigured() {
		return nil, nil
	}

	key := cache.Key("tmdb", "search", strings.ToLower(query))
	if cached, ok := s.results.Get(key); ok {
		return cached.([]models.SearchResult), nil
	}

	results, err := s.tmdb.multiSearch(ctx, query)
	if err != nil {
		return nil, err
	}
	s.results.Set(key, results)
	return results, nil
}

var tmdbRefPattern = regexp.MustCompile(`^tmdb:(movie|tv):(\d+)$`)

// Resolve turns a media reference from the API into a persisted media row.
// "tmdb:movie:603" style refs fetch and upsert the title; anything else is
// treated as a stored media id, with custom rows checked against their owner.
func (s *Service) Resolve(ctx context.Context, userID, ref string) (models.Media, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return models.Media{}, ErrBadRef
	}

	if m := tmdbRefPattern.FindStringSubmatch(ref); m != nil {
		tmdbID, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			return models.Media{}, ErrBadRef
		}
		return s.resolveTMDB(ctx, models.MediaType(m[1]), tmdbID)
	}

	stored, err := s.media.Get(ctx, ref)
	if errors.Is(err, database.ErrNotFound) {
		return models.Media{}, ErrBadRef
	}
	if err != nil {
		return models.Media{}, err
	}
	if stored.Type == models.MediaCustom {
		if _, err := s.custom.GetByMediaID(ctx, userID, stored.ID); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return models.Media{}, ErrBadRef
			}
			return models.Media{}, err
		}
	}
	return s.refresh(ctx, stored), nil
}

func (s *Service) resolveTMDB(ctx context.Context, mediaType models.MediaType, tmdbID int64) (models.Media, error) {
	stored, err := s.media.GetByTMDB(ctx, tmdbID, mediaType)
	if err == nil {
		return s.refresh(ctx, stored), nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return models.Media{}, err
	}

	fetched, err := s.fetchDetails(ctx, mediaType, tmdbID)
	if err != nil {
		return models.Media{}, err
	}
	fetched.ID = uuid.NewString()
	return s.media.Upsert(ctx, fetched)
}

// Get returns a stored media row, refreshing it from TMDB when stale.
// Custom rows are only visible to their owner; anyone else gets not-found.
func (s *Service) Get(ctx context.Context, userID, id string) (models.Media, error) {
	stored, err := s.media.Get(ctx, id)
	if err != nil {
		return models.Media{}, err
	}
	if stored.Type == models.MediaCustom {
		if _, err := s.custom.GetByMediaID(ctx, userID, stored.ID); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return models.Media{}, database.ErrNotFound
			}
			return models.Media{}, err
		}
	}
	return s.refresh(ctx, stored), nil
}

// refresh re-fetches a stale TMDB-backed row. Failures keep the stored copy.
func (s *Service) refresh(ctx context.Context, stored models.Media) models.Media {
	if !stored.Stale(s.ttl, s.now()) || !s.tmdb.isConfigured() {
		return stored
	}

	fetched, err := s.fetchDetails(ctx, stored.Type, stored.TMDBID)
	if err != nil {
		log.Printf("[media] refresh of %s %d failed, keeping cached copy: %v", stored.Type, stored.TMDBID, err)
		return stored
	}
	fetched.ID = stored.ID
	updated, err := s.media.Upsert(ctx, fetched)
	if err != nil {
		log.Printf("[media] persisting refreshed %s %d failed: %v", stored.Type, stored.TMDBID, err)
		return stored
	}
	return updated
}

func (s *Service) fetchDetails(ctx context.Context, mediaType models.MediaType, tmdbID int64) (models.Media, error) {
	switch mediaType {
	case models.MediaMovie:
		return s.tmdb.movieDetails(ctx, tmdbID)
	case models.MediaTV:
		return s.tmdb.tvDetails(ctx, tmdbID)
	default:
		return models.Media{}, fmt.Errorf("media type %q has no tmdb source", mediaType)
	}
}

// CreateCustom adds a user-authored entry together with its shadow media row.
func (s *Service) CreateCustom(ctx context.Context, userID string, input models.CustomMediaInput) (models.CustomMedia, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return models.CustomMedia{}, ErrTitleRequired
	}
	metadata, err := normalizeMetadata(input.Metadata)
	if err != nil {
		return models.CustomMedia{}, err
	}

	now := s.now().UTC()
	cm := models.CustomMedia{
		ID:        uuid.NewString(),
		UserID:    userID,
		MediaID:   uuid.NewString(),
		Title:     title,
		Slug:      slugify(title),
		Metadata:  metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.custom.Create(ctx, cm)
	if errors.Is(err, database.ErrSlugExists) {
		// Same title logged twice; disambiguate and retry once.
		cm.Slug = cm.Slug + "-" + cm.ID[:8]
		err = s.custom.Create(ctx, cm)
	}
	if err != nil {
		return models.CustomMedia{}, err
	}
	return cm, nil
}

// GetCustom fetches one of the user's entries.
func (s *Service) GetCustom(ctx context.Context, userID, id string) (models.CustomMedia, error) {
	return s.custom.Get(ctx, userID, id)
}

// ListCustom returns all of the user's entries, newest first.
func (s *Service) ListCustom(ctx context.Context, userID string) ([]models.CustomMedia, error) {
	return s.custom.List(ctx, userID)
}

// UpdateCustom renames an entry or replaces its metadata, keeping the shadow
// media row's title in sync.
func (s *Service) UpdateCustom(ctx context.Context, userID, id string, input models.CustomMediaInput) (models.CustomMedia, error) {
	cm, err := s.custom.Get(ctx, userID, id)
	if err != nil {
		return models.CustomMedia{}, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return models.CustomMedia{}, ErrTitleRequired
	}
	metadata, err := normalizeMetadata(input.Metadata)
	if err != nil {
		return models.CustomMedia{}, err
	}

	cm.Title = title
	cm.Metadata = metadata
	cm.UpdatedAt = s.now().UTC()
	if err := s.custom.Update(ctx, cm); err != nil {
		return models.CustomMedia{}, err
	}
	return cm, nil
}

// DeleteCustom removes an entry, its shadow media row and, via the schema's
// cascade, every activity logged against it.
func (s *Service) DeleteCustom(ctx context.Context, userID, id string) error {
	return s.custom.Delete(ctx, userID, id)
}

func normalizeMetadata(raw json.RawMessage) (json.RawMessage, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, ErrBadMetadata
	}
	return raw, nil
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(title string) string {
	slug := strings.ToLower(title)
	slug = slugStrip.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "untitled"
	}
	return slug
}
