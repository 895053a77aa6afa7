package publisher

import (
	"context"

	"go.uber.org/zap"

	"github.com/competiscan/competiscan/internal/progress"
)

// Sink bridges progress events to the publisher: every product completion
// event becomes a published message.
type Sink struct {
	pub    Publisher
	logger *zap.Logger
}

// NewSink wraps a publisher as a progress sink.
func NewSink(pub Publisher, logger *zap.Logger) *Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{pub: pub, logger: logger}
}

// Consume publishes product completion events and ignores the rest.
func (s *Sink) Consume(ctx context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		if evt.Stage != progress.StageProductDone {
			continue
		}
		ev := Event{
			RunID:       evt.RunID.String(),
			ProductName: evt.Product,
			PricesFound: evt.PricesFound,
			ResolvedAt:  evt.TS,
		}
		if err := s.pub.Publish(ctx, ev); err != nil {
			s.logger.Warn("publish resolved-product event",
				zap.String("product", ev.ProductName),
				zap.Error(err),
			)
		}
	}
	return nil
}

// Close closes the underlying publisher.
func (s *Sink) Close(context.Context) error {
	return s.pub.Close()
}
