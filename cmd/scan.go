package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/competiscan/competiscan/internal/clock/system"
	"github.com/competiscan/competiscan/internal/config"
	"github.com/competiscan/competiscan/internal/fetch"
	idgen "github.com/competiscan/competiscan/internal/id/uuid"
	"github.com/competiscan/competiscan/internal/pacing"
	"github.com/competiscan/competiscan/internal/report"
	"github.com/competiscan/competiscan/internal/scan"
)

// newScanCmd creates and configures the 'scan' subcommand.
func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scans the catalog for competitor prices",
		Long: `Walks the configured product catalog and searches shopping results
for each product, recording the best price per competitor storefront.
Results are written to the configured output file and, when enabled,
to Postgres.`,

		RunE: runScanCommand,
	}
	cmd.Flags().String("catalog", "", "path to the product catalog JSON (overrides config)")
	return cmd
}

func runScanCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	cfg := appInstance.Cfg
	logger := appInstance.Logger

	catalogPath := cfg.Scan.CatalogPath
	if flagPath, _ := cmd.Flags().GetString("catalog"); flagPath != "" {
		catalogPath = flagPath
	}
	if catalogPath == "" {
		return errors.New("a product catalog is required (set scan.catalog_path or --catalog)")
	}

	products, err := report.LoadCatalog(catalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	logger.Info("catalog loaded",
		zap.String("path", catalogPath),
		zap.Int("products", len(products)),
	)

	registry := scan.DefaultRegistry()
	fetcher, closeFetcher, err := buildFetcher(cfg.Fetch, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeFetcher(cmd.Context()); cerr != nil {
			logger.Warn("close fetcher", zap.Error(cerr))
		}
	}()

	clk := system.New()
	sleeper := pacing.TimerSleeper{}
	scheduler := pacing.New(pacingConfig(cfg.Pacing), clk, sleeper, logger)

	resolver := scan.NewResolver(
		scan.ResolverConfig{
			MaxRetries:      cfg.Scan.MaxRetries,
			RetryBackoffMin: cfg.Scan.RetryBackoffMin,
			RetryBackoffMax: cfg.Scan.RetryBackoffMax,
			VariantPause:    cfg.Scan.VariantPause,
			SnapshotPages:   cfg.Scan.SnapshotPages,
		},
		registry,
		fetcher,
		scheduler,
		scan.NewBlockDetector(nil),
		sleeper,
		clk,
		appInstance.Artifacts,
		appInstance.Hub,
		logger,
	)

	collector := report.NewCollector(registry)
	stores := []scan.ResultStore{collector}
	if appInstance.Postgres != nil {
		stores = append(stores, appInstance.Postgres)
	}

	runner := scan.NewRunner(
		scan.RunnerConfig{
			MaxProducts:     cfg.Scan.MaxProducts,
			ProductPauseMin: cfg.Scan.ProductPauseMin,
			ProductPauseMax: cfg.Scan.ProductPauseMax,
		},
		registry,
		resolver,
		sleeper,
		clk,
		appInstance.Hub,
		logger,
		stores...,
	)

	runID, err := idgen.New().NewRawID()
	if err != nil {
		return fmt.Errorf("generate run id: %w", err)
	}

	if _, err := runner.Run(cmd.Context(), runID, products); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run scan: %w", err)
	}

	if cfg.Scan.OutputPath != "" {
		if err := collector.WriteFile(cfg.Scan.OutputPath); err != nil {
			return fmt.Errorf("write results: %w", err)
		}
		logger.Info("results written", zap.String("path", cfg.Scan.OutputPath))
	}

	sum := collector.Summary()
	logger.Info("scan finished",
		zap.String("run_id", runID.String()),
		zap.Int("products", sum.Products),
		zap.Int("products_with_matches", sum.ProductsHit),
		zap.Int("prices_found", sum.PricesFound),
	)
	return nil
}

func buildFetcher(cfg config.FetchConfig, logger *zap.Logger) (scan.Fetcher, func(context.Context) error, error) {
	probe, err := fetch.NewCollyFetcher(fetch.CollyConfig{
		UserAgent:      cfg.UserAgent,
		RequestTimeout: cfg.RequestTimeout,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("init probe fetcher: %w", err)
	}

	var headless *fetch.ChromedpFetcher
	if cfg.HeadlessEnabled {
		headless, err = fetch.NewChromedpFetcher(fetch.HeadlessConfig{
			MaxConcurrency: cfg.HeadlessConcurrency,
			PageTimeout:    cfg.PageTimeout,
			SettleMin:      cfg.SettleMin,
			SettleMax:      cfg.SettleMax,
		}, logger)
		switch {
		case err == nil:
		case errors.Is(err, fetch.ErrHeadlessDisabled):
			logger.Warn("headless fetcher disabled despite config; probe only")
			headless = nil
		default:
			return nil, nil, fmt.Errorf("init headless fetcher: %w", err)
		}
	}

	limiter := fetch.NewLimiter(fetch.LimiterConfig{
		DefaultRPS:   cfg.DomainRPS,
		DefaultBurst: cfg.DomainBurst,
	})
	heuristic := fetch.NewHeuristic(cfg.PromotionThreshold)

	var headlessFetcher scan.Fetcher
	if headless != nil {
		headlessFetcher = headless
	}
	promoting := fetch.NewPromotingFetcher(probe, headlessFetcher, heuristic, limiter, logger)

	closeFn := func(ctx context.Context) error {
		if headless != nil {
			return headless.Close(ctx)
		}
		return nil
	}
	return promoting, closeFn, nil
}

func pacingConfig(cfg config.PacingConfig) pacing.Config {
	return pacing.Config{
		BatchSize:            cfg.BatchSize,
		BatchCooldownMin:     cfg.BatchCooldownMin,
		BatchCooldownMax:     cfg.BatchCooldownMax,
		EmergencyCooldownMin: cfg.EmergencyMin,
		EmergencyCooldownMax: cfg.EmergencyMax,
		WarmupSearches:       cfg.WarmupSearches,
		RampSearches:         cfg.RampSearches,
		WarmupDelayMin:       cfg.WarmupDelayMin,
		WarmupDelayMax:       cfg.WarmupDelayMax,
		RampDelayMin:         cfg.RampDelayMin,
		RampDelayMax:         cfg.RampDelayMax,
		CruiseDelayMin:       cfg.CruiseDelayMin,
		CruiseDelayMax:       cfg.CruiseDelayMax,
	}
}
