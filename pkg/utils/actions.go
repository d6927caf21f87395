package utils

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

// Delay returns a chromedp.Action that pauses a random amount of time in
// the range [base - deviation, base + deviation], to avoid hammering a site
// with evenly spaced requests.
func Delay(base time.Duration, deviation time.Duration) chromedp.ActionFunc {
	return func(ctx context.Context) error {
		if base < deviation {
			return fmt.Errorf("base (%d) is smaller than deviation (%d)", int(base), int(deviation))
		}

		time.Sleep(base + time.Duration(rand.IntN(int(deviation)*2)-int(deviation)))

		return nil
	}
}

// ToGoqueryDoc is a wrapper for chromedp.OuterHTML. It parses the rendered
// markup under sel into a *goquery.Document for extraction off-browser.
func ToGoqueryDoc(sel string, doc **goquery.Document) chromedp.ActionFunc {
	return func(ctx context.Context) error {
		var html string

		if err := chromedp.OuterHTML(sel, &html).Do(ctx); err != nil {
			return err
		}

		d, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			return err
		}

		*doc = d

		return nil
	}
}

// NavigateTillTrigger runs chromedp.Navigate and the given actions
// simultaneously (the actions themselves run sequentially) and returns as
// soon as the actions finish. Useful for pages that never fire a load event
// but do render the elements the actions wait on.
func NavigateTillTrigger(url string, logger *slog.Logger, actions ...chromedp.Action) chromedp.ActionFunc {
	return func(ctx context.Context) error {
		navErrChan := make(chan error, 1)
		actErrChan := make(chan error, 1)

		logger.Debug("start navigation", "url", url)
		go func() { navErrChan <- chromedp.Navigate(url).Do(ctx) }()
		go func() {
			for i, action := range actions {
				if err := action.Do(ctx); err != nil {
					actErrChan <- err
					return
				}

				logger.Debug("action finished", "order", i+1)
			}

			actErrChan <- nil
		}()

		for {
			select {
			case err := <-navErrChan:
				if err != nil {
					return err
				}
			case err := <-actErrChan:
				return err
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
