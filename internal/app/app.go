// Package app initializes and holds long-lived application services, acting
// as a dependency injection container for the CLI commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/competiscan/competiscan/internal/api"
	"github.com/competiscan/competiscan/internal/artifact"
	"github.com/competiscan/competiscan/internal/config"
	"github.com/competiscan/competiscan/internal/logging"
	"github.com/competiscan/competiscan/internal/progress"
	"github.com/competiscan/competiscan/internal/progress/sinks"
	"github.com/competiscan/competiscan/internal/publisher"
	"github.com/competiscan/competiscan/internal/report"
	"github.com/competiscan/competiscan/internal/scan"
)

// App holds the shared, long-lived services for the application. It is
// initialized once at startup and handed to the commands that need it.
type App struct {
	Cfg       config.Config
	Logger    *zap.Logger
	Hub       *progress.Hub
	Snapshot  *sinks.SnapshotSink
	Artifacts scan.ArtifactStore
	Postgres  *report.PostgresStore
	Publisher publisher.Publisher

	httpServer *http.Server
}

// New builds the application services from configuration. It fails fast if
// any configured service cannot be initialized.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	logger.Info("initializing services")

	a := &App{Cfg: cfg, Logger: logger}

	if a.Artifacts, err = buildArtifactStore(ctx, cfg.Artifacts); err != nil {
		return nil, err
	}

	if cfg.Postgres.Enabled {
		store, perr := report.NewPostgresStore(ctx, report.PostgresConfig{
			DSN:      cfg.Postgres.DSN,
			Table:    cfg.Postgres.Table,
			MaxConns: cfg.Postgres.MaxConns,
			MinConns: cfg.Postgres.MinConns,
		})
		if perr != nil {
			return nil, fmt.Errorf("init postgres store: %w", perr)
		}
		a.Postgres = store
	}

	if cfg.PubSub.Enabled {
		pub, perr := publisher.NewPubSubPublisher(ctx, publisher.PubSubConfig{
			ProjectID: cfg.PubSub.ProjectID,
			TopicID:   cfg.PubSub.TopicID,
		}, logger)
		if perr != nil {
			return nil, fmt.Errorf("init pubsub publisher: %w", perr)
		}
		a.Publisher = pub
	}

	a.Snapshot = sinks.NewSnapshotSink()
	hubSinks := []progress.Sink{
		sinks.NewLogSink(logger),
		sinks.NewPrometheusSink(),
		a.Snapshot,
	}
	if a.Publisher != nil {
		hubSinks = append(hubSinks, publisher.NewSink(a.Publisher, logger))
	}
	a.Hub = progress.NewHub(progress.Config{Logger: logger}, hubSinks...)

	if cfg.Server.Enabled {
		srv := api.NewServer(api.Config{
			Addr:           cfg.Server.Addr,
			RequestTimeout: cfg.Server.RequestTimeout,
		}, a.Snapshot, logger)
		a.httpServer = &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("status server listening", zap.String("addr", cfg.Server.Addr))
			if serveErr := a.httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
				logger.Error("status server failed", zap.Error(serveErr))
			}
		}()
	}

	logger.Info("services initialized")
	return a, nil
}

func buildArtifactStore(ctx context.Context, cfg config.ArtifactsConfig) (scan.ArtifactStore, error) {
	switch cfg.Backend {
	case "none":
		return nil, nil
	case "memory":
		return artifact.NewMemoryStore(), nil
	case "fs":
		store, err := artifact.NewFSStore(artifact.FSConfig{BaseDir: cfg.BaseDir})
		if err != nil {
			return nil, fmt.Errorf("init fs artifact store: %w", err)
		}
		return store, nil
	case "gcs":
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("init gcs client: %w", err)
		}
		store, err := artifact.NewGCSStore(client, artifact.GCSConfig{
			Bucket: cfg.GCSBucket,
			Prefix: cfg.GCSPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("init gcs artifact store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown artifacts backend %q", cfg.Backend)
	}
}

// Close gracefully shuts down all services.
func (a *App) Close() {
	a.Logger.Info("shutting down services")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(ctx); err != nil {
			a.Logger.Warn("status server shutdown", zap.Error(err))
		}
	}
	if a.Hub != nil {
		if err := a.Hub.Close(ctx); err != nil {
			a.Logger.Warn("progress hub close", zap.Error(err))
		}
	}
	if a.Postgres != nil {
		a.Postgres.Close()
	}
	// Publisher close is handled by the hub through its sink when wired;
	// close directly otherwise.
	if a.Publisher != nil && a.Hub == nil {
		if err := a.Publisher.Close(); err != nil {
			a.Logger.Warn("publisher close", zap.Error(err))
		}
	}
	_ = a.Logger.Sync()
}
