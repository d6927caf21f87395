package watchlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cinescan/cinescan/pkg/models"
	"github.com/cinescan/cinescan/pkg/registry"
	"gorm.io/gorm"
)

var (
	// ErrAlreadyInList means the (user, movie) pair already has an entry.
	// Re-adding is a hard error, not a no-op, so duplicate submissions
	// upstream get surfaced instead of swallowed.
	ErrAlreadyInList = errors.New("movie is already saved to the user's list")

	// ErrInvalidRating means the rating falls outside [0, 10].
	ErrInvalidRating = errors.New("rating must be between 0 and 10")

	// ErrNotFound means no entry exists for the given id.
	ErrNotFound = errors.New("watchlist entry not found")
)

// Service owns the per-(user, movie) rating ledger.
type Service struct {
	db     *gorm.DB
	movies *registry.Movies
	logger *slog.Logger
}

func New(db *gorm.DB, movies *registry.Movies, logger *slog.Logger) *Service {
	return &Service{db: db, movies: movies, logger: logger}
}

// AddToList registers the candidate movie (or fetches the canonical row)
// and attaches it to the user's list with the given rating. The whole
// sequence runs in one transaction, so a validation failure cannot strand
// a freshly registered movie with no referencing entry.
func (s *Service) AddToList(ctx context.Context, user models.User, candidate models.Movie, rating float64) (models.WatchlistEntry, error) {
	s.logger.Info("adding movie to list",
		"title", candidate.Title,
		"rating", rating,
		"username", user.Username,
	)

	var entry models.WatchlistEntry

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		movie, err := s.movies.WithTx(tx).RegisterOrFetch(ctx, candidate)
		if err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.WatchlistEntry{}).
			Where("user_id = ? AND movie_id = ?", user.ID, movie.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: %q", ErrAlreadyInList, movie.Title)
		}

		if rating < 0 || rating > 10 {
			return fmt.Errorf("%w, got %v", ErrInvalidRating, rating)
		}

		entry = models.WatchlistEntry{UserID: user.ID, MovieID: movie.ID, Rating: rating}
		if err := tx.Create(&entry).Error; err != nil {
			// The existence check above is not atomic with the insert;
			// the UNIQUE(user_id, movie_id) constraint is what actually
			// decides a concurrent double-add.
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %q", ErrAlreadyInList, movie.Title)
			}
			return err
		}

		entry.Movie = movie
		return nil
	})
	if err != nil {
		return models.WatchlistEntry{}, err
	}

	s.logger.Info("watchlist entry saved", "entry_id", entry.ID, "title", entry.Movie.Title)

	return entry, nil
}

// RemoveEntry deletes the entry with the given id.
func (s *Service) RemoveEntry(ctx context.Context, entryID int) error {
	res := s.db.WithContext(ctx).Delete(&models.WatchlistEntry{}, "id = ?", entryID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, entryID)
	}

	return nil
}

// UpdateRating replaces the rating on an existing entry, re-checking the
// [0, 10] bound.
func (s *Service) UpdateRating(ctx context.Context, entryID int, rating float64) error {
	if rating < 0 || rating > 10 {
		return fmt.Errorf("%w, got %v", ErrInvalidRating, rating)
	}

	res := s.db.WithContext(ctx).Model(&models.WatchlistEntry{}).
		Where("id = ?", entryID).
		Update("rating", rating)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, entryID)
	}

	return nil
}

// ListByUser returns the user's entries ordered by rating descending, with
// ties kept in insertion order.
func (s *Service) ListByUser(ctx context.Context, username string) ([]models.WatchlistEntry, error) {
	var entries []models.WatchlistEntry

	err := s.db.WithContext(ctx).
		Joins("JOIN users ON users.id = watchlist_entries.user_id").
		Where("users.username = ?", username).
		Order("watchlist_entries.rating DESC, watchlist_entries.id ASC").
		Preload("Movie.Genres").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("listing watchlist for %q: %w", username, err)
	}

	return entries, nil
}

// ListByUserAboveRating returns the user's entries rated strictly above the
// threshold.
func (s *Service) ListByUserAboveRating(ctx context.Context, username string, threshold float64) ([]models.WatchlistEntry, error) {
	var entries []models.WatchlistEntry

	err := s.db.WithContext(ctx).
		Joins("JOIN users ON users.id = watchlist_entries.user_id").
		Where("users.username = ? AND watchlist_entries.rating > ?", username, threshold).
		Order("watchlist_entries.rating DESC, watchlist_entries.id ASC").
		Preload("Movie.Genres").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("listing watchlist for %q above %v: %w", username, threshold, err)
	}

	return entries, nil
}

// FavouriteTitles returns the upper-cased titles of the user's entries
// rated strictly above the threshold, the shape the showing matcher wants.
func (s *Service) FavouriteTitles(ctx context.Context, username string, threshold float64) ([]string, error) {
	entries, err := s.ListByUserAboveRating(ctx, username, threshold)
	if err != nil {
		return nil, err
	}

	titles := make([]string, 0, len(entries))
	for _, entry := range entries {
		titles = append(titles, strings.ToUpper(entry.Movie.Title))
	}

	return titles, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
