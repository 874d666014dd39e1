package audit

import (
	"context"
	"log/slog"
	"time"

	"kitstock/pkg/platform/circuit"
)

// Sink receives events fanned out beyond the primary store, such as the
// Kafka feed for downstream consumers.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Worker consumes audit events from a channel and forwards them to a sink.
// The commit path stays synchronous against the store; downstream delivery
// happens here, off the hot path. A circuit breaker stops the worker from
// hammering a dead broker; dropped events survive in the audit store.
type Worker struct {
	sink    Sink
	inbox   <-chan Event
	logger  *slog.Logger
	breaker *circuit.Breaker
	probe   time.Duration
	skipped int
}

func NewWorker(sink Sink, inbox <-chan Event, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		sink:    sink,
		inbox:   inbox,
		logger:  logger,
		breaker: circuit.New("audit-sink", circuit.WithFailureThreshold(5)),
		probe:   30 * time.Second,
	}
}

// Run forwards events until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	var lastAttempt time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			// While open, only probe the sink occasionally.
			if w.breaker.IsOpen() && time.Since(lastAttempt) < w.probe {
				w.skipped++
				continue
			}
			lastAttempt = time.Now()

			if err := w.sink.Publish(ctx, event); err != nil {
				_, change := w.breaker.RecordFailure()
				if change.Opened {
					w.logger.ErrorContext(ctx, "audit sink circuit opened", "error", err)
				} else {
					w.logger.ErrorContext(ctx, "audit sink publish failed",
						"event_id", event.ID, "error", err)
				}
				continue
			}
			if _, change := w.breaker.RecordSuccess(); change.Closed {
				w.logger.InfoContext(ctx, "audit sink circuit closed", "events_skipped", w.skipped)
				w.skipped = 0
			}
		}
	}
}
