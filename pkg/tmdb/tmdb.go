package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cinescan/cinescan/pkg/config"
	"github.com/cinescan/cinescan/pkg/models"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound means the catalogue has no movie for the requested id,
// distinct from a transport or server failure.
var ErrNotFound = errors.New("movie not found in tmdb")

// SearchResult is one row of a search or discover response.
type SearchResult struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	ReleaseDate string `json:"release_date"`
	PosterPath  string `json:"poster_path"`
	Overview    string `json:"overview"`
}

type searchResponse struct {
	Results []SearchResult `json:"results"`
}

type movieResponse struct {
	ID           int            `json:"id"`
	Title        string         `json:"title"`
	ReleaseDate  string         `json:"release_date"`
	Runtime      int            `json:"runtime"`
	Tagline      string         `json:"tagline"`
	BackdropPath string         `json:"backdrop_path"`
	PosterPath   string         `json:"poster_path"`
	Overview     string         `json:"overview"`
	Genres       []models.Genre `json:"genres"`
}

// Client talks to the TMDB API. Detail lookups are cached in Redis when a
// client is available; rdb may be nil.
type Client struct {
	client  *http.Client
	baseURL string
	apiKey  string
	rdb     *redis.Client
	logger  *slog.Logger
}

func NewClient(cfg config.TmdbConfig, rdb *redis.Client, logger *slog.Logger) *Client {
	return &Client{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		rdb:     rdb,
		logger:  logger,
	}
}

// MovieByID fetches the full movie record for a catalogue id. The result
// still carries the raw release date and image path fragments; the movie
// registry normalizes those on registration.
func (c *Client) MovieByID(ctx context.Context, tmdbID int) (models.Movie, error) {
	cacheKey := fmt.Sprintf("tmdb:movie:%d", tmdbID)

	if c.rdb != nil {
		cached, err := c.rdb.Get(ctx, cacheKey).Result()
		if err == nil {
			var movie models.Movie
			if err := json.Unmarshal([]byte(cached), &movie); err == nil {
				c.logger.Debug("cache hit for tmdb movie", "tmdb_id", tmdbID)
				return movie, nil
			}
		}
	}

	var resp movieResponse
	if err := c.get(ctx, fmt.Sprintf("/movie/%d", tmdbID), nil, &resp); err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.Movie{}, fmt.Errorf("%w: id %d", ErrNotFound, tmdbID)
		}
		return models.Movie{}, err
	}

	movie := models.Movie{
		TmdbID:       resp.ID,
		Title:        resp.Title,
		ReleaseYear:  resp.ReleaseDate,
		Runtime:      resp.Runtime,
		Tagline:      resp.Tagline,
		BackdropPath: resp.BackdropPath,
		PosterPath:   resp.PosterPath,
		Overview:     resp.Overview,
		Genres:       resp.Genres,
	}

	if c.rdb != nil {
		if data, err := json.Marshal(movie); err == nil {
			c.rdb.Set(ctx, cacheKey, data, 15*time.Minute)
		}
	}

	return movie, nil
}

// SearchByTitle runs a free-text title search.
func (c *Client) SearchByTitle(ctx context.Context, title string) ([]SearchResult, error) {
	var resp searchResponse
	if err := c.get(ctx, "/search/movie", url.Values{"query": {title}}, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// DiscoverByYear lists movies first released in the given year.
func (c *Client) DiscoverByYear(ctx context.Context, year string) ([]SearchResult, error) {
	var resp searchResponse
	if err := c.get(ctx, "/discover/movie", url.Values{"primary_release_year": {year}}, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("include_adult", "false")
	params.Set("language", "en-US")

	reqURL := c.baseURL + endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("building tmdb request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("tmdb request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tmdb returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding tmdb response: %w", err)
	}

	return nil
}
