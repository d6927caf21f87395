package showings

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/cinescan/cinescan/pkg/models"
)

// vueShowtimesTemplate composes the deep link to a film's showtimes page on
// myvue.com from the venue slug and the lower-cased film title. This is
// specific to the one site the Vue fetcher scrapes; another source would
// need its own derivation rule.
const vueShowtimesTemplate = "https://www.myvue.com/cinema/%s/film/%s"

// MatchResult maps matched favourite titles to their formatted venue
// entries, remembering the order titles were first matched in so that
// notification output is stable.
type MatchResult struct {
	titles  []string
	byTitle map[string][]string
}

// Empty reports whether nothing matched.
func (r *MatchResult) Empty() bool {
	return r == nil || len(r.titles) == 0
}

// Titles returns the matched titles in first-match order.
func (r *MatchResult) Titles() []string {
	if r == nil {
		return nil
	}
	return r.titles
}

// Entries returns the formatted venue entries for a matched title, in the
// order the records were supplied.
func (r *MatchResult) Entries(title string) []string {
	if r == nil {
		return nil
	}
	return r.byTitle[title]
}

func (r *MatchResult) add(title, entry string) {
	if _, ok := r.byTitle[title]; !ok {
		r.titles = append(r.titles, title)
	}
	r.byTitle[title] = append(r.byTitle[title], entry)
}

// Match reconciles scraped showing records against a user's favourite
// titles. A record matches a favourite on a case-insensitive exact title
// comparison; each match contributes one "- {venue}: {link}" entry under
// the favourite title. Records with missing fields or an unparsable venue
// URL are logged and skipped, never aborting the rest of the batch.
func Match(favTitles []string, records []models.ShowingRecord, logger *slog.Logger) *MatchResult {
	result := &MatchResult{byTitle: map[string][]string{}}

	for _, record := range records {
		if record.FilmTitle == "" || record.VenueName == "" {
			logger.Warn("skipping malformed showing record",
				"venue", record.VenueName,
				"title", record.FilmTitle,
			)
			continue
		}

		for _, fav := range favTitles {
			if !strings.EqualFold(fav, record.FilmTitle) {
				continue
			}

			link, err := showtimesLink(record.VenueURL, fav)
			if err != nil {
				logger.Warn("skipping record with unusable venue url",
					"venue", record.VenueName,
					"url", record.VenueURL,
					"error", err,
				)
				continue
			}

			result.add(fav, fmt.Sprintf("- %s: %s", record.VenueName, link))
		}
	}

	return result
}

// showtimesLink derives the deep link for a matched title from the venue's
// own URL, using its last non-empty path segment as the cinema slug.
func showtimesLink(venueURL, title string) (string, error) {
	parsed, err := url.Parse(venueURL)
	if err != nil {
		return "", err
	}

	slug := ""
	for _, segment := range strings.Split(parsed.Path, "/") {
		if segment != "" {
			slug = segment
		}
	}
	if slug == "" {
		return "", fmt.Errorf("no path segment in venue url %q", venueURL)
	}

	return fmt.Sprintf(vueShowtimesTemplate, slug, strings.ToLower(title)), nil
}
