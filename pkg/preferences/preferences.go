package preferences

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cinescan/cinescan/pkg/models"
	"github.com/cinescan/cinescan/pkg/watchlist"
	"gorm.io/gorm"
)

// ErrNoReleaseYearData means none of the user's watched movies carries a
// release year. Registration validates years, so this should not happen
// outside of hand-seeded data.
var ErrNoReleaseYearData = errors.New("no release year found for user's movies")

// Engine derives a user's favourite genre and release year from their
// rated-movie history.
type Engine struct {
	db     *gorm.DB
	ledger *watchlist.Service
	logger *slog.Logger
}

func New(db *gorm.DB, ledger *watchlist.Service, logger *slog.Logger) *Engine {
	return &Engine{db: db, ledger: ledger, logger: logger}
}

// Recompute recalculates both favourite fields from the user's full ledger
// and overwrites them wholesale on the profile. A user with no entries is
// left untouched so defaults survive until they rate something. The user
// argument is mutated to reflect the persisted state.
func (e *Engine) Recompute(ctx context.Context, user *models.User) error {
	entries, err := e.ledger.ListByUser(ctx, user.Username)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		e.logger.Warn("no watchlist entries, keeping existing favourites", "username", user.Username)
		return nil
	}

	genre, ok := mostFrequentGenre(entries)
	if !ok {
		e.logger.Warn("no genres across watchlist, keeping existing favourites", "username", user.Username)
		return nil
	}

	year, ok := mostFrequentYear(entries)
	if !ok {
		return fmt.Errorf("%w (username %q)", ErrNoReleaseYearData, user.Username)
	}

	user.FavouriteGenre = &genre
	user.FavouriteGenreID = &genre.ID
	user.FavouriteReleaseYear = year

	err = e.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"favourite_genre_id":     genre.ID,
			"favourite_release_year": year,
		}).Error
	if err != nil {
		return fmt.Errorf("saving favourites for %q: %w", user.Username, err)
	}

	e.logger.Info("favourites recomputed",
		"username", user.Username,
		"genre", genre.Name,
		"year", year,
	)

	return nil
}

// mostFrequentGenre flattens every genre of every watched movie into a
// multiset and picks the mode. Ties break deterministically to the lowest
// genre id.
func mostFrequentGenre(entries []models.WatchlistEntry) (models.Genre, bool) {
	counts := map[int]int{}
	byID := map[int]models.Genre{}

	for _, entry := range entries {
		for _, genre := range entry.Movie.Genres {
			counts[genre.ID]++
			byID[genre.ID] = genre
		}
	}

	var (
		bestID    int
		bestCount int
		found     bool
	)
	for id, count := range counts {
		if !found || count > bestCount || (count == bestCount && id < bestID) {
			bestID, bestCount, found = id, count, true
		}
	}
	if !found {
		return models.Genre{}, false
	}

	return byID[bestID], true
}

// mostFrequentYear picks the mode of the release years, one vote per movie
// regardless of how many genres it has. Ties break deterministically to the
// most recent year.
func mostFrequentYear(entries []models.WatchlistEntry) (string, bool) {
	counts := map[string]int{}

	for _, entry := range entries {
		if entry.Movie.ReleaseYear == "" {
			continue
		}
		counts[entry.Movie.ReleaseYear]++
	}

	var (
		bestYear  string
		bestCount int
	)
	for year, count := range counts {
		if count > bestCount || (count == bestCount && year > bestYear) {
			bestYear, bestCount = year, count
		}
	}
	if bestYear == "" {
		return "", false
	}

	return bestYear, true
}
