package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"kitstock/internal/audit"
	"kitstock/internal/catalog"
	"kitstock/internal/ledger"
	"kitstock/internal/platform/metrics"
	"kitstock/pkg/derrors"
	"kitstock/pkg/platform/sentinel"
	"kitstock/pkg/requestcontext"
	"kitstock/pkg/retry"
)

// TxRunner executes fn inside one store transaction. Everything fn writes
// through the context either lands together or not at all.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// NoopTxRunner runs fn directly. Suits the in-memory stores, which have no
// transactions to offer.
type NoopTxRunner struct{}

func (NoopTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Engine validates a count batch, plans its movements, and applies them as
// one atomic commit with an audit record per movement.
type Engine struct {
	store     ledger.Store
	catalog   catalog.Catalog
	publisher *audit.Publisher
	runner    TxRunner
	policy    retry.Policy
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// Option configures the Engine.
type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithRetryPolicy(p retry.Policy) Option {
	return func(e *Engine) { e.policy = p }
}

func NewEngine(store ledger.Store, cat catalog.Catalog, publisher *audit.Publisher, runner TxRunner, opts ...Option) (*Engine, error) {
	if store == nil || cat == nil || publisher == nil {
		return nil, errors.New("store, catalog and publisher are required")
	}
	if runner == nil {
		runner = NoopTxRunner{}
	}
	e := &Engine{
		store:     store,
		catalog:   cat,
		publisher: publisher,
		runner:    runner,
		policy:    retry.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Apply commits the count batch. Validation failures block the whole batch;
// a validation pass is followed by one atomic apply of every movement and
// its audit record. An empty plan is a successful no-op.
func (e *Engine) Apply(ctx context.Context, counts []Count) (Result, error) {
	if err := Validate(ctx, e.catalog, requestcontext.Now(ctx), counts); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			e.metrics.ObserveValidationFailures(len(verr.Failures))
		}
		return Result{}, err
	}

	movements, outcomes, err := Plan(ctx, e.store, counts)
	if err != nil {
		return Result{}, derrors.Wrap(err, derrors.CodePersistenceFailure, "plan movements")
	}
	if len(movements) == 0 {
		return Result{Outcomes: outcomes}, nil
	}

	result := Result{
		DocumentReference: uuid.NewString(),
		Movements:         movements,
		Outcomes:          outcomes,
	}

	started := time.Now()
	attempts := 0
	err = e.policy.Do(ctx, func(ctx context.Context) error {
		attempts++
		if attempts > 1 {
			e.metrics.ObserveCommitRetry()
		}
		return e.runner.RunInTx(ctx, func(ctx context.Context) error {
			return e.applyAll(ctx, result.DocumentReference, movements)
		})
	})
	e.metrics.ObserveCommitDuration(time.Since(started))
	if err != nil {
		return Result{}, err
	}

	e.logInfo(ctx, "count batch committed",
		"document_reference", result.DocumentReference,
		"movements", len(movements))
	return result, nil
}

func (e *Engine) applyAll(ctx context.Context, documentReference string, movements []Movement) error {
	for _, m := range movements {
		line, err := e.store.Get(ctx, m.Address)
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			if !m.Receive {
				return derrors.Newf(derrors.CodeUnknownAddress,
					"withdrawal against unknown address %s", m.Address.Encode())
			}
			line = ledger.StockLine{Address: m.Address}
		case err != nil:
			return fmt.Errorf("load line %s: %w", m.Address.Encode(), err)
		}

		direction := audit.DirectionOut
		label := "out"
		if m.Receive {
			direction = audit.DirectionIn
			label = "in"
			line.QtyIn += m.Quantity
		} else {
			line.QtyOut += m.Quantity
		}

		if err := e.store.Upsert(ctx, line); err != nil {
			return fmt.Errorf("apply movement at %s: %w", m.Address.Encode(), err)
		}
		e.metrics.ObserveMovement(label)

		event := audit.Event{
			Scenario:          m.Address.Scenario,
			Address:           m.Address.Encode(),
			Item:              m.Address.Item,
			Direction:         direction,
			Quantity:          m.Quantity,
			Discrepancy:       m.Discrepancy,
			Remarks:           remarks(m),
			DocumentReference: documentReference,
		}
		if err := e.publisher.Emit(ctx, event); err != nil {
			return fmt.Errorf("record movement at %s: %w", m.Address.Encode(), err)
		}
	}
	return nil
}

func remarks(m Movement) string {
	if m.Remarks == "" {
		return m.Reason
	}
	return fmt.Sprintf("%s: %s", m.Reason, m.Remarks)
}

func (e *Engine) logInfo(ctx context.Context, msg string, args ...any) {
	if e.logger != nil {
		e.logger.InfoContext(ctx, msg, args...)
	}
}
