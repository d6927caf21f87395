package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cinescan/cinescan/pkg/config"
	"github.com/cinescan/cinescan/pkg/models"
	"github.com/cinescan/cinescan/pkg/notify"
	"github.com/cinescan/cinescan/pkg/places"
	"github.com/cinescan/cinescan/pkg/preferences"
	"github.com/cinescan/cinescan/pkg/showings"
	"github.com/cinescan/cinescan/pkg/users"
	"github.com/cinescan/cinescan/pkg/watchlist"
	"github.com/google/uuid"
)

// Runner drives the per-user cinema scan: refresh favourites, find local
// venues, scrape each one, match against the user's top-rated titles and
// send the notification. No step is fatal to the batch; every failure is
// scoped to one user or one venue.
type Runner struct {
	users     *users.Service
	ledger    *watchlist.Service
	prefs     *preferences.Engine
	places    *places.Client
	fetcher   showings.Fetcher
	sender    notify.Sender
	templates notify.Templates
	cfg       config.ScanConfig
	logger    *slog.Logger
}

func NewRunner(
	userSvc *users.Service,
	ledger *watchlist.Service,
	prefs *preferences.Engine,
	placesClient *places.Client,
	fetcher showings.Fetcher,
	sender notify.Sender,
	cfg config.ScanConfig,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		users:     userSvc,
		ledger:    ledger,
		prefs:     prefs,
		places:    placesClient,
		fetcher:   fetcher,
		sender:    sender,
		templates: notify.DefaultTemplates,
		cfg:       cfg,
		logger:    logger,
	}
}

// Run scans all users now, then again every interval until the context is
// cancelled.
func (r *Runner) Run(ctx context.Context) {
	r.ScanAll(ctx)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.ScanAll(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// ScanAll runs the scan for every user, each in its own goroutine. Users
// share nothing mutable beyond the canonical registries, so the jobs are
// independent.
func (r *Runner) ScanAll(ctx context.Context) {
	allUsers, err := r.users.All(ctx)
	if err != nil {
		r.logger.Error("listing users for scan", "error", err)
		return
	}

	var wg sync.WaitGroup
	for _, user := range allUsers {
		wg.Add(1)
		go func(u models.User) {
			defer wg.Done()
			if err := r.ScanUser(ctx, u); err != nil {
				r.logger.Error("user scan failed", "username", u.Username, "error", err)
			}
		}(user)
	}
	wg.Wait()
}

// ScanUser runs one user's full scan cycle. Venue visits share a
// cumulative time budget; a venue that exceeds its own timeout is counted
// as failed and the scan moves on to the next one.
func (r *Runner) ScanUser(ctx context.Context, user models.User) error {
	runID := uuid.NewString()
	logger := r.logger.With("run_id", runID, "username", user.Username)

	logger.Info("cinema scan started")

	// Make sure the profile reflects the latest ratings before scanning.
	if err := r.prefs.Recompute(ctx, &user); err != nil {
		logger.Warn("favourites recompute failed, scanning with stale profile", "error", err)
	}

	titles, err := r.ledger.FavouriteTitles(ctx, user.Username, r.cfg.MinRating)
	if err != nil {
		return fmt.Errorf("collecting favourite titles: %w", err)
	}
	if len(titles) == 0 {
		logger.Info("no titles above rating threshold, skipping scan", "threshold", r.cfg.MinRating)
		return nil
	}

	venues, err := r.places.TextSearch(ctx, r.cfg.VenueQuery, r.cfg.MaxVenues, user.Latitude, user.Longitude)
	if err != nil {
		return fmt.Errorf("finding local venues: %w", err)
	}
	if len(venues) == 0 {
		logger.Info("no venues found near user")
		return nil
	}

	budgetCtx, cancel := context.WithTimeout(ctx, r.cfg.ScanBudget)
	defer cancel()

	records := []models.ShowingRecord{}
	for _, venue := range venues {
		if budgetCtx.Err() != nil {
			logger.Warn("scan budget exhausted, skipping remaining venues", "venue", venue.DisplayName)
			break
		}

		venueRecords, err := r.fetcher.FetchShowings(budgetCtx, venue)
		if err != nil {
			// One venue's failure costs that venue only.
			logger.Warn("venue scan failed", "venue", venue.DisplayName, "error", err)
			continue
		}

		records = append(records, venueRecords...)
	}

	result := showings.Match(titles, records, logger)

	body, ok := notify.Compose(result, user.Username, r.templates)
	if !ok {
		logger.Info("no favourite movies showing nearby, notification not sent")
		return nil
	}

	if err := r.sender.Send(user.Email, "Upcoming movies!", body); err != nil {
		logger.Error("notification delivery failed", "error", err)
		return nil
	}

	logger.Info("cinema scan finished", "matched_titles", len(result.Titles()))

	return nil
}
