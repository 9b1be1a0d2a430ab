package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"

	"fluencytrail/models"
)

const (
	tmdbBaseURL      = "https://api.themoviedb.org/3"
	tmdbImageBaseURL = "https://image.tmdb.org/t/p"
	// w342 is plenty for search result cards and activity detail panes.
	tmdbPosterSize = "w342"
)

var errTMDBNotConfigured = errors.New("tmdb api key not configured")

// retryableStatus marks responses worth another attempt.
type retryableStatus struct {
	status string
}

func (e *retryableStatus) Error() string {
	return "tmdb request failed: " + e.status
}

type tmdbClient struct {
	apiKey   string
	language string
	httpc    *http.Client

	// Rate limiting
	throttleMu  sync.Mutex
	lastRequest time.Time
	minInterval time.Duration
}

func newTMDBClient(apiKey, language string, httpc *http.Client) *tmdbClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	return &tmdbClient{
		apiKey:      strings.TrimSpace(apiKey),
		language:    language,
		httpc:       httpc,
		minInterval: 20 * time.Millisecond, // TMDB has generous rate limits
	}
}

func (c *tmdbClient) isConfigured() bool {
	return c != nil && c.apiKey != ""
}

// doGET performs a rate-limited GET against a v3 endpoint, retrying network
// errors, 429s and server errors with exponential backoff.
func (c *tmdbClient) doGET(ctx context.Context, endpoint string, query url.Values, v any) error {
	if !c.isConfigured() {
		return errTMDBNotConfigured
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("api_key", c.apiKey)
	if lang := strings.TrimSpace(c.language); lang != "" {
		query.Set("language", normalizeLanguage(lang))
	} else {
		query.Set("language", "en-US")
	}
	full := endpoint + "?" + query.Encode()

	return retry.Do(
		func() error {
			c.throttleMu.Lock()
			since := time.Since(c.lastRequest)
			if since < c.minInterval {
				time.Sleep(c.minInterval - since)
			}
			c.lastRequest = time.Now()
			c.throttleMu.Unlock()

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}

			resp, err := c.httpc.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return &retryableStatus{status: resp.Status}
			}
			if resp.StatusCode >= 400 {
				return retry.Unrecoverable(fmt.Errorf("tmdb request failed: %s", resp.Status))
			}
			if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
				return retry.Unrecoverable(err)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(300*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Printf("[tmdb] attempt %d failed: %v", n+1, err)
		}),
	)
}

type tmdbSearchResponse struct {
	Results []struct {
		ID           int64   `json:"id"`
		MediaType    string  `json:"media_type"`
		Title        string  `json:"title"`
		Name         string  `json:"name"`
		ReleaseDate  string  `json:"release_date"`
		FirstAirDate string  `json:"first_air_date"`
		PosterPath   string  `json:"poster_path"`
		Popularity   float64 `json:"popularity"`
	} `json:"results"`
}

// multiSearch queries TMDB's multi-search endpoint and keeps only movie and
// tv hits, already shaped as search results.
func (c *tmdbClient) multiSearch(ctx context.Context, query string) ([]models.SearchResult, error) {
	endpoint, err := url.JoinPath(tmdbBaseURL, "search", "multi")
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("query", query)
	q.Set("include_adult", "false")

	var payload tmdbSearchResponse
	if err := c.doGET(ctx, endpoint, q, &payload); err != nil {
		return nil, err
	}

	results := make([]models.SearchResult, 0, len(payload.Results))
	for _, r := range payload.Results {
		mediaType, ok := mapTMDBMediaType(r.MediaType)
		if !ok {
			continue
		}
		title := r.Title
		date := r.ReleaseDate
		if mediaType == models.MediaTV {
			title = r.Name
			date = r.FirstAirDate
		}
		if strings.TrimSpace(title) == "" {
			continue
		}
		results = append(results, models.SearchResult{
			ID:          fmt.Sprintf("tmdb:%s:%d", r.MediaType, r.ID),
			Title:       title,
			Type:        mediaType,
			ReleaseDate: date,
			Popularity:  r.Popularity,
			PosterURL:   buildPosterURL(r.PosterPath),
		})
	}
	return results, nil
}

// movieDetails fetches one movie and shapes it as a media row, leaving ID
// and SyncedAt for the repository to fill.
func (c *tmdbClient) movieDetails(ctx context.Context, tmdbID int64) (models.Media, error) {
	endpoint, err := url.JoinPath(tmdbBaseURL, "movie", fmt.Sprintf("%d", tmdbID))
	if err != nil {
		return models.Media{}, err
	}

	var movie struct {
		ID          int64   `json:"id"`
		Title       string  `json:"title"`
		ReleaseDate string  `json:"release_date"`
		PosterPath  string  `json:"poster_path"`
		Popularity  float64 `json:"popularity"`
	}
	if err := c.doGET(ctx, endpoint, nil, &movie); err != nil {
		return models.Media{}, err
	}

	return models.Media{
		TMDBID:      movie.ID,
		Title:       movie.Title,
		Type:        models.MediaMovie,
		ReleaseDate: movie.ReleaseDate,
		Popularity:  movie.Popularity,
		PosterURL:   buildPosterURL(movie.PosterPath),
	}, nil
}

// tvDetails fetches one TV show, same shaping as movieDetails.
func (c *tmdbClient) tvDetails(ctx context.Context, tmdbID int64) (models.Media, error) {
	endpoint, err := url.JoinPath(tmdbBaseURL, "tv", fmt.Sprintf("%d", tmdbID))
	if err != nil {
		return models.Media{}, err
	}

	var show struct {
		ID           int64   `json:"id"`
		Name         string  `json:"name"`
		FirstAirDate string  `json:"first_air_date"`
		PosterPath   string  `json:"poster_path"`
		Popularity   float64 `json:"popularity"`
	}
	if err := c.doGET(ctx, endpoint, nil, &show); err != nil {
		return models.Media{}, err
	}

	return models.Media{
		TMDBID:      show.ID,
		Title:       show.Name,
		Type:        models.MediaTV,
		ReleaseDate: show.FirstAirDate,
		Popularity:  show.Popularity,
		PosterURL:   buildPosterURL(show.PosterPath),
	}, nil
}

func mapTMDBMediaType(mediaType string) (models.MediaType, bool) {
	switch mediaType {
	case "movie":
		return models.MediaMovie, true
	case "tv":
		return models.MediaTV, true
	default:
		return "", false
	}
}

func buildPosterURL(imagePath string) string {
	trimmed := strings.TrimSpace(imagePath)
	if trimmed == "" {
		return ""
	}
	fullPath := path.Join(tmdbPosterSize, strings.TrimPrefix(trimmed, "/"))
	return fmt.Sprintf("%s/%s", tmdbImageBaseURL, fullPath)
}

func normalizeLanguage(lang string) string {
	lang = strings.ReplaceAll(lang, "_", "-")
	if len(lang) == 2 {
		return strings.ToLower(lang) + "-US"
	}
	if len(lang) >= 5 {
		return strings.ToLower(lang[:2]) + "-" + strings.ToUpper(lang[3:])
	}
	return "en-US"
}
