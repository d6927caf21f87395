package places

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cinescan/cinescan/pkg/config"
	"github.com/cinescan/cinescan/pkg/models"
)

// ErrInvalidMaxResults means the caller asked for zero or fewer results;
// this is rejected before any network call.
var ErrInvalidMaxResults = errors.New("max results must be greater than zero")

type textSearchRequest struct {
	TextQuery      string `json:"textQuery"`
	MaxResultCount int    `json:"maxResultCount"`
	LocationBias   struct {
		Circle struct {
			Center struct {
				Latitude  float64 `json:"latitude"`
				Longitude float64 `json:"longitude"`
			} `json:"center"`
		} `json:"circle"`
	} `json:"locationBias"`
}

type textSearchResponse struct {
	Places []struct {
		DisplayName struct {
			Text string `json:"text"`
		} `json:"displayName"`
		WebsiteURI string `json:"websiteUri"`
	} `json:"places"`
}

// Client talks to the places text-search API.
type Client struct {
	client  *http.Client
	baseURL string
	apiKey  string
	logger  *slog.Logger
}

func NewClient(cfg config.PlacesConfig, logger *slog.Logger) *Client {
	return &Client{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		logger:  logger,
	}
}

// TextSearch finds up to maxResults places matching the free-text query,
// biased towards the given point. An empty result set returns an empty
// slice, not an error.
func (c *Client) TextSearch(ctx context.Context, query string, maxResults int, lat, lng float64) ([]models.Place, error) {
	if maxResults <= 0 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidMaxResults, maxResults)
	}

	reqBody := textSearchRequest{TextQuery: query, MaxResultCount: maxResults}
	reqBody.LocationBias.Circle.Center.Latitude = lat
	reqBody.LocationBias.Circle.Center.Longitude = lng

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("encoding places request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/places:searchText", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building places request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", "places.displayName,places.websiteUri")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("places request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("places returned status %d", resp.StatusCode)
	}

	var decoded textSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding places response: %w", err)
	}

	results := make([]models.Place, 0, len(decoded.Places))
	for _, place := range decoded.Places {
		results = append(results, models.Place{
			DisplayName: place.DisplayName.Text,
			WebsiteURI:  place.WebsiteURI,
		})
	}

	if len(results) == 0 {
		c.logger.Warn("places search returned no results", "query", query)
	}

	return results, nil
}
