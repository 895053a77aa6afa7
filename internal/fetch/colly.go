package fetch

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/competiscan/competiscan/internal/scan"
)

// CollyConfig controls the HTTP probe fetcher.
type CollyConfig struct {
	UserAgent      string
	RequestTimeout time.Duration
}

// CollyFetcher is the cheap fast-path fetcher: a plain HTTP GET through a
// colly collector, no JavaScript execution.
type CollyFetcher struct {
	baseCollector *colly.Collector
	logger        *zap.Logger
}

// NewCollyFetcher constructs a configured colly-based fetcher.
func NewCollyFetcher(cfg CollyConfig, logger *zap.Logger) (*CollyFetcher, error) {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	base := colly.NewCollector(
		colly.Async(true),
		colly.UserAgent(cfg.UserAgent),
	)
	base.AllowURLRevisit = true
	base.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          16,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.RequestTimeout,
		ForceAttemptHTTP2:     true,
	})
	base.SetRequestTimeout(cfg.RequestTimeout)

	return &CollyFetcher{
		baseCollector: base,
		logger:        logger,
	}, nil
}

// Fetch retrieves a page via the configured colly collector.
func (f *CollyFetcher) Fetch(ctx context.Context, rawURL string) (scan.Page, error) {
	collector := f.baseCollector.Clone()
	resultCh := make(chan probeResult, 1)
	var once sync.Once
	send := func(res probeResult) {
		once.Do(func() {
			resultCh <- res
		})
	}

	collector.OnResponse(func(r *colly.Response) {
		send(probeResult{page: scan.Page{
			URL:        rawURL,
			FinalURL:   r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       append([]byte{}, r.Body...),
		}})
	})
	collector.OnError(func(r *colly.Response, err error) {
		if err == nil {
			err = errors.New("unknown colly error")
		}
		// A 4xx with a body is still a page worth inspecting for block
		// markers; surface it instead of the transport error.
		if r != nil && len(r.Body) > 0 {
			send(probeResult{page: scan.Page{
				URL:        rawURL,
				FinalURL:   rawURL,
				StatusCode: r.StatusCode,
				Body:       append([]byte{}, r.Body...),
			}})
			return
		}
		send(probeResult{err: err})
	})

	if err := collector.Visit(rawURL); err != nil {
		return scan.Page{}, err
	}
	collector.Wait()

	select {
	case res := <-resultCh:
		if err := ctx.Err(); err != nil {
			return scan.Page{}, err
		}
		return res.page, res.err
	default:
		return scan.Page{}, errors.New("colly fetch produced no result")
	}
}

type probeResult struct {
	page scan.Page
	err  error
}
