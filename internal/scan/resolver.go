package scan

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/competiscan/competiscan/internal/progress"
)

// ResolverConfig controls the per-product retry/fallback loop.
type ResolverConfig struct {
	MaxRetries      int
	RetryBackoffMin time.Duration
	RetryBackoffMax time.Duration
	VariantPause    time.Duration
	SnapshotPages   bool
}

// DefaultResolverConfig returns the production retry profile.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		MaxRetries:      3,
		RetryBackoffMin: 30 * time.Second,
		RetryBackoffMax: 60 * time.Second,
		VariantPause:    5 * time.Second,
	}
}

// Resolver drives one product through its query variants: fetch a result
// page through the pacer, lift candidates from it, feed them to the
// aggregator, and stop as soon as any competitor has a price.
type Resolver struct {
	cfg       ResolverConfig
	registry  Registry
	fetcher   Fetcher
	pacer     Pacer
	detector  *BlockDetector
	sleeper   Sleeper
	clock     Clock
	artifacts ArtifactStore
	emitter   progress.Emitter
	logger    *zap.Logger
	rng       *rand.Rand
	runID     uuid.UUID
}

// NewResolver wires a Resolver. artifacts may be nil to skip page snapshots;
// emitter may be nil to skip progress events.
func NewResolver(
	cfg ResolverConfig,
	registry Registry,
	fetcher Fetcher,
	pacer Pacer,
	detector *BlockDetector,
	sleeper Sleeper,
	clock Clock,
	artifacts ArtifactStore,
	emitter progress.Emitter,
	logger *zap.Logger,
) *Resolver {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if emitter == nil {
		emitter = progress.NopEmitter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		cfg:       cfg,
		registry:  registry,
		fetcher:   fetcher,
		pacer:     pacer,
		detector:  detector,
		sleeper:   sleeper,
		clock:     clock,
		artifacts: artifacts,
		emitter:   emitter,
		logger:    logger,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetRunID scopes emitted progress events to a run.
func (r *Resolver) SetRunID(id uuid.UUID) {
	r.runID = id
}

// Resolve works through the product's query variants and returns the best
// per-competitor prices found. A product with no usable variants, or whose
// every variant yields nothing, resolves to an all-null result; the error is
// non-nil only when ctx is done.
func (r *Resolver) Resolve(ctx context.Context, p Product) (ProductResult, error) {
	agg := NewAggregator(r.registry, p)
	variants := QueryVariants(p)
	if len(variants) == 0 {
		r.logger.Warn("product has no usable query variants",
			zap.String("product", p.Name),
			zap.String("brand", p.Brand),
		)
		return EmptyResult(p, r.registry), nil
	}

	for i, query := range variants {
		log := r.logger.With(
			zap.String("product", p.Name),
			zap.String("query", query),
			zap.Int("variant", i+1),
		)

		page, ok, err := r.fetchWithRetries(ctx, query, log)
		if err != nil {
			return agg.Result(), err
		}
		if ok {
			r.processPage(ctx, page, p, query, agg, log)
		}

		if agg.HasAnyMatch() {
			log.Info("competitor match found, skipping remaining variants")
			break
		}
		if i < len(variants)-1 {
			r.sleeper.Sleep(ctx, r.cfg.VariantPause)
			if err := ctx.Err(); err != nil {
				return agg.Result(), err
			}
		}
	}
	return agg.Result(), nil
}

// fetchWithRetries acquires a scheduler grant and fetches the query's result
// page, retrying on blocked or empty pages with a randomized backoff. The
// bool is false when all attempts exhausted without a usable page, a normal
// outcome surfaced only as absent data.
func (r *Resolver) fetchWithRetries(ctx context.Context, query string, log *zap.Logger) (Page, bool, error) {
	target := SearchURL(query)
	for attempt := 1; attempt <= r.cfg.MaxRetries; attempt++ {
		if err := r.pacer.Acquire(ctx); err != nil {
			return Page{}, false, fmt.Errorf("scheduler acquire: %w", err)
		}

		page, err := r.fetcher.Fetch(ctx, target)
		if err != nil {
			if ctx.Err() != nil {
				return Page{}, false, ctx.Err()
			}
			log.Warn("fetch failed", zap.Int("attempt", attempt), zap.Error(err))
			if !r.backoffBeforeRetry(ctx, attempt) {
				return Page{}, false, ctx.Err()
			}
			continue
		}

		if r.detector.Blocked(page.Body) {
			r.emit(progress.Event{Stage: progress.StageBlocked, Query: query})
			fresh, rerr := r.pacer.ReportOutcome(ctx, true)
			if rerr != nil {
				return Page{}, false, rerr
			}
			log.Warn("blocked page detected",
				zap.Int("attempt", attempt),
				zap.Bool("retry_fresh_session", fresh),
			)
			if !r.backoffBeforeRetry(ctx, attempt) {
				return Page{}, false, ctx.Err()
			}
			continue
		}

		if len(page.Body) == 0 {
			log.Warn("empty page body", zap.Int("attempt", attempt))
			if !r.backoffBeforeRetry(ctx, attempt) {
				return Page{}, false, ctx.Err()
			}
			continue
		}

		if _, err := r.pacer.ReportOutcome(ctx, false); err != nil {
			return Page{}, false, err
		}
		r.emit(progress.Event{Stage: progress.StageSearchDone, Query: query})
		return page, true, nil
	}
	log.Warn("all fetch attempts exhausted")
	return Page{}, false, nil
}

// backoffBeforeRetry sleeps the randomized retry backoff unless this was the
// final attempt. It returns false when ctx finished during the wait.
func (r *Resolver) backoffBeforeRetry(ctx context.Context, attempt int) bool {
	if attempt >= r.cfg.MaxRetries {
		return ctx.Err() == nil
	}
	wait := r.cfg.RetryBackoffMin
	if span := r.cfg.RetryBackoffMax - r.cfg.RetryBackoffMin; span > 0 {
		wait += time.Duration(r.rng.Int63n(int64(span)))
	}
	r.sleeper.Sleep(ctx, wait)
	return ctx.Err() == nil
}

func (r *Resolver) processPage(ctx context.Context, page Page, p Product, query string, agg *Aggregator, log *zap.Logger) {
	r.snapshot(ctx, page, query, log)

	candidates, err := ExtractCandidates(page.Body, r.registry)
	if err != nil {
		log.Warn("candidate extraction failed", zap.Error(err))
		return
	}
	log.Debug("extracted candidates", zap.Int("count", len(candidates)))

	for _, c := range candidates {
		key, accepted := agg.Consider(c)
		if accepted {
			r.emit(progress.Event{Stage: progress.StageMatch, Product: p.Name, Competitor: key})
			log.Info("accepted competitor candidate",
				zap.String("competitor", key),
				zap.Int("position", c.Position),
			)
		}
	}
}

// snapshot persists the raw page for offline debugging when enabled.
func (r *Resolver) snapshot(ctx context.Context, page Page, query string, log *zap.Logger) {
	if !r.cfg.SnapshotPages || r.artifacts == nil {
		return
	}
	name := SnapshotName(query, r.clock.Now())
	if uri, err := r.artifacts.Save(ctx, name, "text/html; charset=utf-8", page.Body); err != nil {
		log.Warn("page snapshot failed", zap.Error(err))
	} else {
		log.Debug("page snapshot saved", zap.String("uri", uri))
	}
}

func (r *Resolver) emit(evt progress.Event) {
	evt.RunID = r.runID
	evt.TS = r.clock.Now()
	r.emitter.Emit(evt)
}
