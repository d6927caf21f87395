package jobs

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cinescan/cinescan/pkg/config"
	"github.com/cinescan/cinescan/pkg/models"
	"github.com/cinescan/cinescan/pkg/places"
	"github.com/cinescan/cinescan/pkg/preferences"
	"github.com/cinescan/cinescan/pkg/registry"
	"github.com/cinescan/cinescan/pkg/storage"
	"github.com/cinescan/cinescan/pkg/users"
	"github.com/cinescan/cinescan/pkg/watchlist"
)

// fixtureFetcher serves canned showings per venue name and fails venues
// listed in broken.
type fixtureFetcher struct {
	records map[string][]models.ShowingRecord
	broken  map[string]bool
}

func (f *fixtureFetcher) FetchShowings(ctx context.Context, venue models.Place) ([]models.ShowingRecord, error) {
	if f.broken[venue.DisplayName] {
		return nil, errors.New("browser crashed")
	}
	return f.records[venue.DisplayName], nil
}

// captureSender records every sent message.
type captureSender struct {
	mu   sync.Mutex
	sent []struct{ To, Subject, Body string }
}

func (s *captureSender) Send(to, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, struct{ To, Subject, Body string }{to, subject, body})
	return nil
}

func placesStub(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"places": [
				{"displayName": {"text": "Broken Vue"}, "websiteUri": "https://www.myvue.com/cinema/broken"},
				{"displayName": {"text": "Vue Leeds"}, "websiteUri": "https://www.myvue.com/cinema/leeds"}
			]
		}`))
	}))
	t.Cleanup(srv.Close)

	return srv
}

func newTestRunner(t *testing.T, fetcher *fixtureFetcher, sender *captureSender) (*Runner, models.User) {
	t.Helper()

	db, err := storage.Open("")
	if err != nil {
		t.Fatal(err)
	}

	logger := slog.Default()
	genres := registry.NewGenres(db, logger)
	movies := registry.NewMovies(db, genres, logger)
	ledger := watchlist.New(db, movies, logger)
	prefs := preferences.New(db, ledger, logger)
	userSvc := users.New(db, "test-secret", time.Hour, logger)

	user, err := userSvc.Register(context.Background(), models.User{
		Username:  "frodo",
		Email:     "frodo@shire.me",
		Password:  "pw",
		Latitude:  53.8,
		Longitude: -1.55,
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = ledger.AddToList(context.Background(), user, models.Movie{
		Title:       "Wonka",
		ReleaseYear: "2023-12-06",
		Genres:      []models.Genre{{ID: 35, Name: "Comedy"}},
	}, 10)
	if err != nil {
		t.Fatal(err)
	}

	placesClient := places.NewClient(config.PlacesConfig{APIKey: "k", BaseURL: placesStub(t).URL}, logger)

	cfg := config.ScanConfig{
		VenueQuery:   "Vue Cinema",
		MaxVenues:    8,
		MinRating:    9,
		VenueTimeout: 5 * time.Second,
		ScanBudget:   time.Minute,
		Interval:     time.Hour,
	}

	return NewRunner(userSvc, ledger, prefs, placesClient, fetcher, sender, cfg, logger), user
}

func TestScanUserSurvivesVenueFailure(t *testing.T) {
	fetcher := &fixtureFetcher{
		records: map[string][]models.ShowingRecord{
			"Vue Leeds": {
				{VenueName: "Vue Leeds", VenueURL: "https://www.myvue.com/cinema/leeds", FilmTitle: "Wonka"},
			},
		},
		broken: map[string]bool{"Broken Vue": true},
	}
	sender := &captureSender{}

	runner, user := newTestRunner(t, fetcher, sender)

	if err := runner.ScanUser(context.Background(), user); err != nil {
		t.Fatal(err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(sender.sent))
	}

	msg := sender.sent[0]
	if msg.To != "frodo@shire.me" {
		t.Errorf("unexpected recipient %q", msg.To)
	}
	if msg.Subject != "Upcoming movies!" {
		t.Errorf("unexpected subject %q", msg.Subject)
	}
	if !strings.Contains(msg.Body, "WONKA is showing at:") {
		t.Errorf("body missing match block:\n%s", msg.Body)
	}
	if !strings.Contains(msg.Body, "- Vue Leeds: https://www.myvue.com/cinema/leeds/film/wonka") {
		t.Errorf("body missing venue entry:\n%s", msg.Body)
	}
}

func TestScanUserNoMatchesSendsNothing(t *testing.T) {
	fetcher := &fixtureFetcher{
		records: map[string][]models.ShowingRecord{
			"Vue Leeds": {
				{VenueName: "Vue Leeds", VenueURL: "https://www.myvue.com/cinema/leeds", FilmTitle: "Cats"},
			},
		},
		broken: map[string]bool{"Broken Vue": true},
	}
	sender := &captureSender{}

	runner, user := newTestRunner(t, fetcher, sender)

	if err := runner.ScanUser(context.Background(), user); err != nil {
		t.Fatal(err)
	}

	if len(sender.sent) != 0 {
		t.Fatalf("expected no notification, got %d", len(sender.sent))
	}
}

func TestScanUserRefreshesFavouritesFirst(t *testing.T) {
	fetcher := &fixtureFetcher{}
	sender := &captureSender{}

	runner, user := newTestRunner(t, fetcher, sender)

	if err := runner.ScanUser(context.Background(), user); err != nil {
		t.Fatal(err)
	}

	refreshed, err := runner.users.ByUsername(context.Background(), user.Username)
	if err != nil {
		t.Fatal(err)
	}
	if refreshed.FavouriteReleaseYear != "2023" {
		t.Errorf("expected favourites recomputed before scanning, got year %q", refreshed.FavouriteReleaseYear)
	}
}
