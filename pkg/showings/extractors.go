package showings

import (
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/cinescan/cinescan/pkg/models"
)

// ExtractShowings pulls every showtime listing out of a rendered Vue
// cinema page. Listings without a readable film title are logged and
// skipped rather than failing the whole page.
func ExtractShowings(venue models.Place, doc *goquery.Selection, logger *slog.Logger) []models.ShowingRecord {
	records := []models.ShowingRecord{}

	items := doc.Find(".showing-item.showing-listing-item")

	for i := range items.Length() {
		title := strings.TrimSpace(items.Eq(i).Find(".film-heading__title").Text())
		if title == "" {
			logger.Warn("showing listing without a film title", "venue", venue.DisplayName)
			continue
		}

		records = append(records, models.ShowingRecord{
			VenueName: venue.DisplayName,
			VenueURL:  venue.WebsiteURI,
			FilmTitle: title,
		})

		logger.Debug("showing extracted", "venue", venue.DisplayName, "title", title)
	}

	return records
}
