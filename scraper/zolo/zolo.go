package zolo

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"toronto-housing/config"
	"toronto-housing/models"
	"toronto-housing/utils"
)

// Browser is the part of a headless browser the page loop needs.
type Browser interface {
	Navigate(ctx context.Context, url string) error
	HTML(ctx context.Context) (string, error)
	ClickNext(ctx context.Context) error
}

// Scraper walks Zolo search result pages and collects raw listing cards.
type Scraper struct {
	cfg    *config.Config
	logger *utils.Logger
	retry  *utils.RetryConfig
	delay  time.Duration
}

// pacer allows one page read per delay, counting navigation as the first event.
func (s *Scraper) pacer() *rate.Limiter {
	if s.delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	lim := rate.NewLimiter(rate.Every(s.delay), 1)
	lim.Allow()
	return lim
}

// New creates a ready-to-use Zolo Scraper.
func New(cfg *config.Config, logger *utils.Logger) *Scraper {
	return &Scraper{
		cfg:    cfg,
		logger: logger,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
		delay: time.Duration(cfg.PageDelayMs) * time.Millisecond,
	}
}

// Scrape launches headless Chrome and runs the page loop.
func (s *Scraper) Scrape(ctx context.Context) ([]*models.RawListing, error) {
	browser, closeBrowser, err := NewChromeBrowser(ctx, s.cfg.ChromeBin, s.logger)
	if err != nil {
		return nil, err
	}
	defer closeBrowser()

	return s.Run(ctx, browser)
}

// Run drives pagination on browser. It stops when a page has no listing
// cards, when there is no next-page link, or after MaxPages-1 pages. Listings
// collected before an error are returned along with it.
func (s *Scraper) Run(ctx context.Context, browser Browser) ([]*models.RawListing, error) {
	s.logger.Info("[zolo] Starting scrape at %s (max pages: %d)", s.cfg.BaseURL, s.cfg.MaxPages)

	err := s.retry.Do(ctx, "navigate", func() error {
		return browser.Navigate(ctx, s.cfg.BaseURL)
	})
	if err != nil {
		return nil, fmt.Errorf("zolo: open %s: %w", s.cfg.BaseURL, err)
	}

	limiter := s.pacer()

	var all []*models.RawListing
	for page := 1; page < s.cfg.MaxPages; page++ {
		if err := limiter.Wait(ctx); err != nil {
			return all, err
		}
		s.logger.Info("[zolo] Scraping page %d...", page)

		var html string
		err := s.retry.Do(ctx, fmt.Sprintf("page-%d-html", page), func() error {
			var err error
			html, err = browser.HTML(ctx)
			return err
		})
		if err != nil {
			return all, fmt.Errorf("zolo: page %d: %w", page, err)
		}

		result, err := ParsePage(html)
		if err != nil {
			return all, err
		}
		if result.Cards == 0 {
			s.logger.Warn("[zolo] No listings found on page %d. Stopping.", page)
			break
		}

		all = append(all, result.Listings...)
		s.logger.Debug("[zolo] Page %d: %d cards, %d kept, %d total", page, result.Cards, len(result.Listings), len(all))

		if !result.HasNext {
			s.logger.Info("[zolo] No more pages found. Scraping complete.")
			break
		}
		if err := browser.ClickNext(ctx); err != nil {
			s.logger.Warn("[zolo] Could not follow next page link: %v", err)
			break
		}
	}

	s.logger.Info("[zolo] Scrape complete, total raw listings: %d", len(all))
	return all, nil
}
