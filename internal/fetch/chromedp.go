package fetch

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/competiscan/competiscan/internal/scan"
)

// ErrHeadlessDisabled indicates headless rendering has been disabled via configuration.
var ErrHeadlessDisabled = errors.New("headless fetcher disabled")

// HeadlessConfig controls the chromedp fetcher.
type HeadlessConfig struct {
	MaxConcurrency int
	PageTimeout    time.Duration
	SettleMin      time.Duration
	SettleMax      time.Duration
}

// DefaultHeadlessConfig returns the settings used in production runs.
func DefaultHeadlessConfig() HeadlessConfig {
	return HeadlessConfig{
		MaxConcurrency: 1,
		PageTimeout:    30 * time.Second,
		SettleMin:      3 * time.Second,
		SettleMax:      6 * time.Second,
	}
}

// ChromedpFetcher renders pages in headless Chrome. Each Fetch runs in a
// fresh browser context so sessions never share cookies or cached state.
type ChromedpFetcher struct {
	allocatorCtx    context.Context
	allocatorCancel context.CancelFunc
	logger          *zap.Logger
	sem             chan struct{}
	cfg             HeadlessConfig

	mu  sync.Mutex
	rng *rand.Rand
}

// NewChromedpFetcher creates a fetcher backed by a shared Chrome exec allocator.
func NewChromedpFetcher(cfg HeadlessConfig, logger *zap.Logger) (*ChromedpFetcher, error) {
	if cfg.MaxConcurrency <= 0 {
		return nil, ErrHeadlessDisabled
	}
	if cfg.PageTimeout <= 0 {
		cfg.PageTimeout = 30 * time.Second
	}

	opts := chromedp.DefaultExecAllocatorOptions[:]
	opts = append(opts,
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("no-sandbox", true),
	)
	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &ChromedpFetcher{
		allocatorCtx:    allocatorCtx,
		allocatorCancel: allocatorCancel,
		logger:          logger,
		sem:             make(chan struct{}, cfg.MaxConcurrency),
		cfg:             cfg,
		rng:             rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Close tears down the chromedp allocator.
func (f *ChromedpFetcher) Close(ctx context.Context) error {
	if f == nil {
		return nil
	}
	f.allocatorCancel()
	select {
	case <-ctx.Done():
	default:
	}
	return nil
}

// Fetch navigates to the URL in a fresh browser context and returns the
// rendered DOM.
func (f *ChromedpFetcher) Fetch(ctx context.Context, rawURL string) (scan.Page, error) {
	if f == nil {
		return scan.Page{}, ErrHeadlessDisabled
	}

	release, err := f.acquireSlot(ctx)
	if err != nil {
		return scan.Page{}, err
	}
	defer release()

	browserCtx, cancelBrowser := chromedp.NewContext(f.allocatorCtx)
	defer cancelBrowser()

	taskCtx, cancelTask := context.WithTimeout(browserCtx, f.cfg.PageTimeout)
	defer cancelTask()

	stopForward := forwardCancel(ctx, cancelTask)
	defer stopForward()

	meta := newResponseMeta()
	f.recordResponse(browserCtx, meta)

	ua, width, height, settle := f.sessionParams()
	html, err := f.runChromedp(taskCtx, rawURL, ua, width, height, settle)
	if err != nil {
		return scan.Page{}, fmt.Errorf("chromedp run: %w", err)
	}

	return scan.Page{
		URL:          rawURL,
		FinalURL:     meta.finalURL(rawURL),
		StatusCode:   meta.statusCode,
		Body:         []byte(html),
		UsedHeadless: true,
	}, nil
}

func (f *ChromedpFetcher) sessionParams() (ua string, width, height int64, settle time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ua = RandomUserAgent(f.rng)
	w, h := randomWindowSize(f.rng)
	width, height = int64(w), int64(h)
	span := f.cfg.SettleMax - f.cfg.SettleMin
	settle = f.cfg.SettleMin
	if span > 0 {
		settle += time.Duration(f.rng.Int63n(int64(span)))
	}
	return ua, width, height, settle
}

func (f *ChromedpFetcher) acquireSlot(ctx context.Context) (func(), error) {
	select {
	case f.sem <- struct{}{}:
		return func() { <-f.sem }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("acquire headless slot: %w", ctx.Err())
	}
}

func (f *ChromedpFetcher) runChromedp(ctx context.Context, rawURL, ua string, width, height int64, settle time.Duration) (string, error) {
	var html string
	tasks := chromedp.Tasks{
		network.Enable(),
		emulation.SetUserAgentOverride(ua),
		emulation.SetDeviceMetricsOverride(width, height, 1.0, false),
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(settle),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}
	if err := chromedp.Run(ctx, tasks); err != nil {
		return "", err
	}
	return html, nil
}

type responseMeta struct {
	once       sync.Once
	statusCode int
	headers    http.Header
	url        string
}

func newResponseMeta() *responseMeta {
	return &responseMeta{
		headers: make(http.Header),
	}
}

func (m *responseMeta) finalURL(raw string) string {
	if m.url == "" {
		return raw
	}
	return m.url
}

func (f *ChromedpFetcher) recordResponse(browserCtx context.Context, meta *responseMeta) {
	chromedp.ListenTarget(browserCtx, func(ev interface{}) {
		resp, ok := ev.(*network.EventResponseReceived)
		if !ok || resp.Type != network.ResourceTypeDocument {
			return
		}
		meta.once.Do(func() {
			meta.statusCode = int(resp.Response.Status)
			meta.url = resp.Response.URL
			for k, v := range resp.Response.Headers {
				meta.headers.Add(k, fmt.Sprint(v))
			}
		})
	})
}

func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	if parent == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
