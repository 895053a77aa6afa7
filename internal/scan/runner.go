package scan

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/competiscan/competiscan/internal/progress"
)

// RunnerConfig controls catalog iteration.
type RunnerConfig struct {
	// MaxProducts bounds how many catalog entries are processed; zero means
	// the whole catalog.
	MaxProducts int
	// ProductPauseMin/Max bound the randomized pause between consecutive
	// products, independent of the scheduler's own pacing.
	ProductPauseMin time.Duration
	ProductPauseMax time.Duration
}

// DefaultRunnerConfig returns the production iteration profile.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		ProductPauseMin: 2 * time.Second,
		ProductPauseMax: 5 * time.Second,
	}
}

// productResolver is the part of Resolver the Runner depends on.
type productResolver interface {
	Resolve(ctx context.Context, p Product) (ProductResult, error)
	SetRunID(id uuid.UUID)
}

// Runner iterates the catalog strictly sequentially, resolving each product
// and collecting results. A failing product degrades to an all-null result;
// the batch never aborts for one product.
type Runner struct {
	cfg      RunnerConfig
	registry Registry
	resolver productResolver
	sleeper  Sleeper
	clock    Clock
	emitter  progress.Emitter
	results  []ResultStore
	logger   *zap.Logger
	rng      *rand.Rand
}

// NewRunner wires a Runner. results are optional sinks invoked per finished
// product; emitter may be nil.
func NewRunner(
	cfg RunnerConfig,
	registry Registry,
	resolver productResolver,
	sleeper Sleeper,
	clock Clock,
	emitter progress.Emitter,
	logger *zap.Logger,
	results ...ResultStore,
) *Runner {
	if emitter == nil {
		emitter = progress.NopEmitter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:      cfg,
		registry: registry,
		resolver: resolver,
		sleeper:  sleeper,
		clock:    clock,
		emitter:  emitter,
		results:  results,
		logger:   logger,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run processes the catalog and returns one result per product, in catalog
// order. The error is non-nil only when ctx finished before the catalog did;
// the results collected so far are still returned.
func (r *Runner) Run(ctx context.Context, runID uuid.UUID, products []Product) ([]ProductResult, error) {
	if r.cfg.MaxProducts > 0 && len(products) > r.cfg.MaxProducts {
		products = products[:r.cfg.MaxProducts]
	}
	r.resolver.SetRunID(runID)
	r.emitter.Emit(progress.Event{
		RunID: runID,
		TS:    r.clock.Now(),
		Stage: progress.StageRunStart,
		Total: len(products),
	})

	results := make([]ProductResult, 0, len(products))
	for i, p := range products {
		started := r.clock.Now()
		result := r.resolveSafely(ctx, p)
		results = append(results, result)
		r.storeResult(ctx, runID, result)

		r.emitter.Emit(progress.Event{
			RunID:       runID,
			TS:          r.clock.Now(),
			Stage:       progress.StageProductDone,
			Product:     p.Name,
			PricesFound: countPrices(result),
			Dur:         r.clock.Now().Sub(started),
		})

		if err := ctx.Err(); err != nil {
			r.emitRunEnd(runID, err)
			return results, err
		}
		if i < len(products)-1 {
			r.sleeper.Sleep(ctx, r.productPause())
		}
	}
	r.emitRunEnd(runID, nil)
	return results, nil
}

// resolveSafely downgrades any panic or error from the resolver to an
// all-null result so one bad product cannot sink the batch.
func (r *Runner) resolveSafely(ctx context.Context, p Product) (result ProductResult) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("product resolution panicked",
				zap.String("product", p.Name),
				zap.Any("panic", rec),
			)
			result = EmptyResult(p, r.registry)
		}
	}()

	result, err := r.resolver.Resolve(ctx, p)
	if err != nil && ctx.Err() == nil {
		r.logger.Error("product resolution failed",
			zap.String("product", p.Name),
			zap.Error(err),
		)
		return EmptyResult(p, r.registry)
	}
	return result
}

func (r *Runner) storeResult(ctx context.Context, runID uuid.UUID, result ProductResult) {
	for _, store := range r.results {
		if store == nil {
			continue
		}
		if err := store.StoreResult(ctx, runID.String(), result); err != nil {
			r.logger.Warn("result store failed",
				zap.String("product", result.ProductName),
				zap.Error(err),
			)
		}
	}
}

func (r *Runner) emitRunEnd(runID uuid.UUID, err error) {
	evt := progress.Event{
		RunID: runID,
		TS:    r.clock.Now(),
		Stage: progress.StageRunDone,
	}
	if err != nil {
		evt.Stage = progress.StageRunError
		evt.Note = err.Error()
	}
	r.emitter.Emit(evt)
}

func (r *Runner) productPause() time.Duration {
	lo, hi := r.cfg.ProductPauseMin, r.cfg.ProductPauseMax
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(r.rng.Int63n(int64(hi-lo)))
}

func countPrices(result ProductResult) int {
	n := 0
	for _, match := range result.Competitors {
		if match.Price != nil {
			n++
		}
	}
	return n
}
