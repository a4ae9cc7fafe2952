// Package airbnb is the upstream fetch source: it drives a headless browser
// over search result pages, collects listing URLs and captures each listing
// page's rendered HTML for the pipeline. It decides nothing about what the
// pipeline does with a page.
package airbnb

import (
	"context"
	"fmt"
	"time"

	"airbnb-harvester/config"
	"airbnb-harvester/pipeline"
	"airbnb-harvester/utils"

	"github.com/chromedp/chromedp"
)

// Fetcher discovers and captures listing pages.
type Fetcher struct {
	cfg         *config.Config
	logger      *utils.Logger
	rateLimiter *utils.RateLimiter
	tracker     *utils.URLTracker
}

// NewFetcher creates a new Fetcher.
func NewFetcher(cfg *config.Config, logger *utils.Logger) *Fetcher {
	return &Fetcher{
		cfg:         cfg,
		logger:      logger,
		rateLimiter: utils.NewRateLimiter(cfg.RateLimitDelay),
		tracker:     utils.NewURLTracker(),
	}
}

// newContext creates a fresh chromedp context (one browser, one tab at a time)
func (f *Fetcher) newContext(parent context.Context) (context.Context, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("log-level", "3"), // suppress Chrome logs
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
		chromedp.WindowSize(1280, 900),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	ctx, cancelCtx := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	cancel := func() {
		cancelCtx()
		cancelAlloc()
	}
	return ctx, cancel
}

// Fetch walks search result pages starting at searchURL, follows pagination,
// and sends each new listing page to out. It returns when the per-run page
// budget is reached, pagination ends, or ctx is cancelled. The caller owns
// and closes the channel.
func (f *Fetcher) Fetch(ctx context.Context, searchURL string, out chan<- pipeline.Page) error {
	browserCtx, cancel := f.newContext(ctx)
	defer cancel()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, 25*time.Minute)
	defer cancelTimeout()

	fetched := 0
	currentURL := searchURL
	pageNum := 1

	for fetched < f.cfg.PagesPerRun {
		f.logger.Info("Search page %d (have %d/%d listings)...", pageNum, fetched, f.cfg.PagesPerRun)

		links, nextURL, err := f.collectListingLinks(browserCtx, currentURL)
		if err != nil {
			return fmt.Errorf("search page %d failed: %w", pageNum, err)
		}
		if len(links) == 0 {
			f.logger.Warn("No listing links on search page %d", pageNum)
			break
		}

		for _, link := range links {
			if fetched >= f.cfg.PagesPerRun {
				break
			}
			if !f.tracker.Add(link) {
				continue
			}
			if err := f.rateLimiter.Wait(ctx); err != nil {
				return err
			}

			html, err := f.capturePage(browserCtx, link)
			if err != nil {
				f.logger.Error("Capture failed for %s: %v", link, err)
				continue
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case out <- pipeline.Page{URL: link, HTML: html}:
				fetched++
			}
		}

		if nextURL == "" || fetched >= f.cfg.PagesPerRun {
			break
		}
		currentURL = nextURL
		pageNum++
		if err := f.rateLimiter.Wait(ctx); err != nil {
			return err
		}
	}

	f.logger.Info("Fetch complete: %d listing pages captured", fetched)
	return nil
}

// collectListingLinks loads a search results page and pulls every listing
// link plus the pagination "Next" link.
func (f *Fetcher) collectListingLinks(ctx context.Context, pageURL string) ([]string, string, error) {
	var links []string
	var nextURL string

	err := utils.RetryWithBackoff(ctx, f.cfg.MaxRetries, func() error {
		err := chromedp.Run(ctx,
			chromedp.Navigate(pageURL),
			chromedp.Sleep(4*time.Second), // wait for JS render
		)
		if err != nil {
			return fmt.Errorf("navigate failed: %w", err)
		}

		links = nil
		jsErr := chromedp.Run(ctx, chromedp.Evaluate(`
			(function() {
				var seen = {};
				var out = [];
				document.querySelectorAll('a[href*="/rooms/"]').forEach(function(a) {
					var href = a.href.split('?')[0];
					if (!seen[href]) {
						seen[href] = true;
						out.push(href);
					}
				});
				return out;
			})()
		`, &links))
		if jsErr != nil {
			return fmt.Errorf("link extraction failed: %w", jsErr)
		}

		var next string
		_ = chromedp.Run(ctx, chromedp.Evaluate(`
			(function() {
				var btn = document.querySelector('a[aria-label="Next"]') ||
				          document.querySelector('[data-testid="pagination-next-btn"]') ||
				          document.querySelector('a[href*="items_offset"]');
				return btn ? btn.href : '';
			})()
		`, &next))
		nextURL = next
		return nil
	}, f.logger)

	return links, nextURL, err
}

// capturePage navigates to one listing page and returns its rendered HTML.
func (f *Fetcher) capturePage(ctx context.Context, pageURL string) (string, error) {
	var html string
	err := utils.RetryWithBackoff(ctx, f.cfg.MaxRetries, func() error {
		return chromedp.Run(ctx,
			chromedp.Navigate(pageURL),
			chromedp.Sleep(3*time.Second),
			chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		)
	}, f.logger)
	if err != nil {
		return "", err
	}
	return html, nil
}
