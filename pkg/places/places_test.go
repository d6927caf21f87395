package places

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cinescan/cinescan/pkg/config"
)

func TestTextSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/places:searchText" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("X-Goog-Api-Key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if r.Header.Get("X-Goog-FieldMask") != "places.displayName,places.websiteUri" {
			t.Errorf("unexpected field mask %q", r.Header.Get("X-Goog-FieldMask"))
		}

		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req["textQuery"] != "Vue Cinema" {
			t.Errorf("unexpected query %v", req["textQuery"])
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"places": [
				{"displayName": {"text": "Vue Leeds The Light"}, "websiteUri": "https://www.myvue.com/cinema/leeds-the-light"}
			]
		}`))
	}))
	defer srv.Close()

	client := NewClient(config.PlacesConfig{APIKey: "test-key", BaseURL: srv.URL}, slog.Default())

	results, err := client.TextSearch(context.Background(), "Vue Cinema", 8, 53.8, -1.55)
	if err != nil {
		t.Fatal(err)
	}

	if len(results) != 1 {
		t.Fatalf("expected 1 place, got %d", len(results))
	}
	if results[0].DisplayName != "Vue Leeds The Light" {
		t.Errorf("unexpected place name %q", results[0].DisplayName)
	}
	if results[0].WebsiteURI != "https://www.myvue.com/cinema/leeds-the-light" {
		t.Errorf("unexpected website %q", results[0].WebsiteURI)
	}
}

func TestTextSearchRejectsBadMaxResultsBeforeNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be made")
	}))
	defer srv.Close()

	client := NewClient(config.PlacesConfig{APIKey: "test-key", BaseURL: srv.URL}, slog.Default())

	for _, max := range []int{0, -3} {
		_, err := client.TextSearch(context.Background(), "Vue Cinema", max, 0, 0)
		if !errors.Is(err, ErrInvalidMaxResults) {
			t.Fatalf("maxResults %d: expected ErrInvalidMaxResults, got %v", max, err)
		}
	}
}

func TestTextSearchEmptyResultIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(config.PlacesConfig{APIKey: "test-key", BaseURL: srv.URL}, slog.Default())

	results, err := client.TextSearch(context.Background(), "Vue Cinema", 8, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no places, got %d", len(results))
	}
}
