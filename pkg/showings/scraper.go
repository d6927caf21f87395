package showings

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"github.com/cinescan/cinescan/pkg/config"
	"github.com/cinescan/cinescan/pkg/models"
	"github.com/cinescan/cinescan/pkg/utils"
)

// Fetcher pulls the showtime listings off one venue's website. The scan
// job treats every fetch as independently fallible: an error here costs
// that venue only.
type Fetcher interface {
	FetchShowings(ctx context.Context, venue models.Place) ([]models.ShowingRecord, error)
}

// VueFetcher scrapes showtime listings from myvue.com venue pages with a
// headless browser.
type VueFetcher struct {
	baseCtx context.Context
	timeout time.Duration
	logger  *slog.Logger
}

// NewVueFetcher builds the browser allocator the venue tabs hang off. The
// returned cancel func tears the browser down.
func NewVueFetcher(cfg config.ScanConfig, logger *slog.Logger) (*VueFetcher, context.CancelFunc) {
	var baseCtx context.Context
	var cancel context.CancelFunc

	if cfg.BrowserAddr != "" {
		baseCtx, cancel = chromedp.NewRemoteAllocator(context.Background(), cfg.BrowserAddr)
	} else {
		opts := []func(*chromedp.ExecAllocator){
			chromedp.Flag("headless", cfg.Headless),
		}

		if cfg.ProxyURL != "" {
			opts = append(opts, chromedp.ProxyServer(cfg.ProxyURL))
		}

		if cfg.UserDataDir != "" {
			opts = append(opts, chromedp.UserDataDir(cfg.UserDataDir))
		}

		baseCtx, cancel = chromedp.NewExecAllocator(context.Background(), opts...)
	}

	baseCtx, _ = chromedp.NewContext(baseCtx)

	return &VueFetcher{
		baseCtx: baseCtx,
		timeout: cfg.VenueTimeout,
		logger:  logger,
	}, cancel
}

// FetchShowings visits the venue's site in a fresh tab, dismisses the
// cookie banner, switches the listing to all showtimes and extracts every
// listed film. The visit is bounded by the per-venue timeout; on expiry the
// tab is abandoned and the error is returned for the caller to count
// against this venue only.
func (f *VueFetcher) FetchShowings(ctx context.Context, venue models.Place) ([]models.ShowingRecord, error) {
	if venue.WebsiteURI == "" {
		return nil, fmt.Errorf("venue %q has no website", venue.DisplayName)
	}

	tabCtx, cancel := utils.NewTab(f.baseCtx, f.logger)
	defer cancel()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, f.timeout)
	defer cancelTimeout()

	// Stop early if the job's cumulative budget ran out.
	go func() {
		select {
		case <-ctx.Done():
			cancelTimeout()
		case <-tabCtx.Done():
		}
	}()

	f.logger.Info("scanning venue", "venue", venue.DisplayName, "url", venue.WebsiteURI)

	var doc *goquery.Document

	err := chromedp.Run(tabCtx,
		utils.NavigateTillTrigger(venue.WebsiteURI, f.logger,
			chromedp.WaitVisible("#onetrust-reject-all-handler"),
			chromedp.Click("#onetrust-reject-all-handler"),
			chromedp.Click(`button[data-test='filters-day-All Times']`),
			chromedp.WaitVisible(".showing-item.showing-listing-item"),
			utils.Delay(time.Second*2, time.Millisecond*300),
		),
		utils.ToGoqueryDoc("html", &doc),
	)
	if err != nil {
		return nil, fmt.Errorf("scraping %q: %w", venue.DisplayName, err)
	}

	return ExtractShowings(venue, doc.Selection, f.logger), nil
}
