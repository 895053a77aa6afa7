package fetch

import (
	"context"

	"go.uber.org/zap"

	"github.com/competiscan/competiscan/internal/scan"
)

// PromotingFetcher tries a cheap HTTP probe first and promotes to the
// headless renderer when the probe result looks incomplete or blocked.
type PromotingFetcher struct {
	probe     scan.Fetcher
	headless  scan.Fetcher
	heuristic *Heuristic
	limiter   *Limiter
	logger    *zap.Logger
}

// NewPromotingFetcher wires the probe and headless fetchers together.
// Either fetcher may be nil, in which case the other is used unconditionally.
func NewPromotingFetcher(probe, headless scan.Fetcher, heuristic *Heuristic, limiter *Limiter, logger *zap.Logger) *PromotingFetcher {
	if heuristic == nil {
		heuristic = NewHeuristic(0)
	}
	return &PromotingFetcher{
		probe:     probe,
		headless:  headless,
		heuristic: heuristic,
		limiter:   limiter,
		logger:    logger,
	}
}

// Fetch retrieves the page, escalating from probe to headless as needed.
func (f *PromotingFetcher) Fetch(ctx context.Context, rawURL string) (scan.Page, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, rawURL); err != nil {
			return scan.Page{}, err
		}
	}

	if f.probe == nil {
		return f.fetchHeadless(ctx, rawURL)
	}

	page, err := f.probe.Fetch(ctx, rawURL)
	countFetch("probe", err)
	if err != nil {
		if f.headless == nil {
			return scan.Page{}, err
		}
		f.logger.Debug("probe fetch failed, promoting",
			zap.String("url", rawURL),
			zap.Error(err))
		promotionsTotal.Inc()
		return f.fetchHeadless(ctx, rawURL)
	}

	if f.headless != nil && f.heuristic.ShouldPromote(page) {
		f.logger.Debug("promoting to headless",
			zap.String("url", rawURL),
			zap.Int("status", page.StatusCode),
			zap.Int("body_bytes", len(page.Body)))
		promotionsTotal.Inc()
		return f.fetchHeadless(ctx, rawURL)
	}

	return page, nil
}

func (f *PromotingFetcher) fetchHeadless(ctx context.Context, rawURL string) (scan.Page, error) {
	if f.headless == nil {
		return scan.Page{}, ErrHeadlessDisabled
	}
	page, err := f.headless.Fetch(ctx, rawURL)
	countFetch("headless", err)
	return page, err
}
