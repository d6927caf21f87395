package registry

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/cinescan/cinescan/pkg/models"
	"github.com/cinescan/cinescan/pkg/storage"
)

func newTestRegistries(t *testing.T) (*Genres, *Movies) {
	t.Helper()

	db, err := storage.Open("")
	if err != nil {
		t.Fatal(err)
	}

	logger := slog.Default()
	genres := NewGenres(db, logger)

	return genres, NewMovies(db, genres, logger)
}

func TestResolveGenreFirstWriteWins(t *testing.T) {
	genres, _ := newTestRegistries(t)
	ctx := context.Background()

	first, err := genres.Resolve(ctx, models.Genre{ID: 35, Name: "Comedy"})
	if err != nil {
		t.Fatal(err)
	}
	if first.Name != "Comedy" {
		t.Fatalf("expected Comedy, got %q", first.Name)
	}

	second, err := genres.Resolve(ctx, models.Genre{ID: 35, Name: "Komedie"})
	if err != nil {
		t.Fatal(err)
	}
	if second.Name != "Comedy" {
		t.Fatalf("stored name should win, got %q", second.Name)
	}
}

func TestRegisterNewMovie(t *testing.T) {
	_, movies := newTestRegistries(t)
	ctx := context.Background()

	candidate := models.Movie{
		Title:        "Wonka",
		ReleaseYear:  "2023-12-06",
		BackdropPath: "/backdrop.jpg",
		PosterPath:   "/poster.jpg",
		Genres:       []models.Genre{{ID: 35, Name: "Comedy"}, {ID: 14, Name: "Fantasy"}},
	}

	movie, err := movies.RegisterOrFetch(ctx, candidate)
	if err != nil {
		t.Fatal(err)
	}

	if movie.ReleaseYear != "2023" {
		t.Errorf("expected release year 2023, got %q", movie.ReleaseYear)
	}
	if !strings.HasPrefix(movie.BackdropPath, CDNBase) {
		t.Errorf("backdrop path not prefixed: %q", movie.BackdropPath)
	}
	if !strings.HasPrefix(movie.PosterPath, CDNBase) {
		t.Errorf("poster path not prefixed: %q", movie.PosterPath)
	}
	if len(movie.Genres) != 2 {
		t.Errorf("expected 2 genres, got %d", len(movie.Genres))
	}
	if movie.ID == 0 {
		t.Error("movie was not persisted")
	}
}

func TestRegisterKnownTitleReturnsStoredRow(t *testing.T) {
	_, movies := newTestRegistries(t)
	ctx := context.Background()

	first, err := movies.RegisterOrFetch(ctx, models.Movie{
		Title:       "Dune",
		ReleaseYear: "2021-09-15",
		Genres:      []models.Genre{{ID: 878, Name: "Science Fiction"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	// A later candidate with the same title but different fields must not
	// overwrite anything.
	second, err := movies.RegisterOrFetch(ctx, models.Movie{
		Title:       "Dune",
		ReleaseYear: "1984-12-14",
		Genres:      []models.Genre{{ID: 27, Name: "Horror"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	if second.ID != first.ID {
		t.Fatalf("expected the stored row, got id %d want %d", second.ID, first.ID)
	}
	if second.ReleaseYear != "2021" {
		t.Errorf("stored release year should win, got %q", second.ReleaseYear)
	}
	if len(second.Genres) != 1 || second.Genres[0].ID != 878 {
		t.Errorf("stored genres should win, got %+v", second.Genres)
	}
}

func TestRegisterRejectsMissingGenres(t *testing.T) {
	_, movies := newTestRegistries(t)

	_, err := movies.RegisterOrFetch(context.Background(), models.Movie{
		Title:       "Mystery Film",
		ReleaseYear: "2020-01-01",
	})
	if !errors.Is(err, ErrGenresNotFound) {
		t.Fatalf("expected ErrGenresNotFound, got %v", err)
	}
}

func TestRegisterRejectsShortReleaseDate(t *testing.T) {
	_, movies := newTestRegistries(t)

	_, err := movies.RegisterOrFetch(context.Background(), models.Movie{
		Title:       "Undated Film",
		ReleaseYear: "99",
		Genres:      []models.Genre{{ID: 18, Name: "Drama"}},
	})
	if !errors.Is(err, ErrMalformedReleaseDate) {
		t.Fatalf("expected ErrMalformedReleaseDate, got %v", err)
	}
}
