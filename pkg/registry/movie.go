package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cinescan/cinescan/pkg/models"
	"gorm.io/gorm"
)

// CDNBase is prefixed onto the raw image path fragments the catalogue
// returns, which begin with "/".
const CDNBase = "https://image.tmdb.org/t/p/w500"

var (
	// ErrGenresNotFound means a previously-unseen title arrived with no
	// genres; registering it would leave it unusable for preference
	// inference later.
	ErrGenresNotFound = errors.New("no genres were found for this movie")

	// ErrMalformedReleaseDate means the release date string is too short
	// to carry a 4-digit year.
	ErrMalformedReleaseDate = errors.New("release date must be at least 4 characters")
)

// Movies canonicalizes movie records by title.
type Movies struct {
	db     *gorm.DB
	genres *Genres
	logger *slog.Logger
}

func NewMovies(db *gorm.DB, genres *Genres, logger *slog.Logger) *Movies {
	return &Movies{db: db, genres: genres, logger: logger}
}

// WithTx returns a Movies bound to the given transaction.
func (m *Movies) WithTx(tx *gorm.DB) *Movies {
	return &Movies{db: tx, genres: m.genres.WithTx(tx), logger: m.logger}
}

// RegisterOrFetch returns the canonical movie for the candidate's title.
// A known title returns the stored row untouched; the candidate's other
// fields are discarded. A new title must carry at least one genre, gets its
// release date truncated to the year, its image paths prefixed with the CDN
// base, and its genres resolved through the genre registry before being
// persisted.
func (m *Movies) RegisterOrFetch(ctx context.Context, candidate models.Movie) (models.Movie, error) {
	var stored models.Movie
	err := m.db.WithContext(ctx).
		Preload("Genres").
		Where("title = ?", candidate.Title).
		First(&stored).Error
	if err == nil {
		m.logger.Info("movie found in the registry", "title", stored.Title, "id", stored.ID)
		return stored, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Movie{}, fmt.Errorf("looking up movie %q: %w", candidate.Title, err)
	}

	if len(candidate.Genres) == 0 {
		return models.Movie{}, ErrGenresNotFound
	}

	if len(candidate.ReleaseYear) < 4 {
		return models.Movie{}, fmt.Errorf("%w: %q", ErrMalformedReleaseDate, candidate.ReleaseYear)
	}
	candidate.ReleaseYear = candidate.ReleaseYear[:4]

	if candidate.BackdropPath != "" {
		candidate.BackdropPath = CDNBase + candidate.BackdropPath
	}
	if candidate.PosterPath != "" {
		candidate.PosterPath = CDNBase + candidate.PosterPath
	}

	resolved := make([]models.Genre, 0, len(candidate.Genres))
	for _, genre := range candidate.Genres {
		dbGenre, err := m.genres.Resolve(ctx, genre)
		if err != nil {
			return models.Movie{}, err
		}
		resolved = append(resolved, dbGenre)
	}
	candidate.Genres = resolved
	candidate.ID = 0

	if err := m.db.WithContext(ctx).Create(&candidate).Error; err != nil {
		// A concurrent registration may have won the title; the unique
		// index makes exactly one row authoritative, so read it back.
		var raced models.Movie
		readErr := m.db.WithContext(ctx).
			Preload("Genres").
			Where("title = ?", candidate.Title).
			First(&raced).Error
		if readErr == nil {
			return raced, nil
		}

		return models.Movie{}, fmt.Errorf("registering movie %q: %w", candidate.Title, err)
	}

	m.logger.Info("new movie registered", "title", candidate.Title, "id", candidate.ID)

	return candidate, nil
}

// ByID fetches a movie with its genres by internal id.
func (m *Movies) ByID(ctx context.Context, id int) (models.Movie, error) {
	var movie models.Movie
	if err := m.db.WithContext(ctx).Preload("Genres").First(&movie, "id = ?", id).Error; err != nil {
		return models.Movie{}, fmt.Errorf("looking up movie %d: %w", id, err)
	}
	return movie, nil
}
