package ledger

import (
	"context"
	"errors"
	"log/slog"

	"kitstock/internal/address"
	"kitstock/internal/platform/metrics"
	"kitstock/pkg/derrors"
	"kitstock/pkg/platform/sentinel"
	"kitstock/pkg/retry"
)

// Service implements the ledger operations. All writes go through one retry
// policy so transient store contention is absorbed uniformly.
type Service struct {
	store   Store
	policy  retry.Policy
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets a logger for movement events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithRetryPolicy overrides the default persistence retry policy.
func WithRetryPolicy(p retry.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// NewService constructs the ledger service.
func NewService(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("ledger store is required")
	}
	s := &Service{store: store, policy: retry.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Get looks up the line at an exact address.
func (s *Service) Get(ctx context.Context, addr address.StockAddress) (StockLine, error) {
	line, err := s.store.Get(ctx, addr)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return StockLine{}, derrors.Newf(derrors.CodeUnknownAddress, "no stock line at %s", addr.Encode())
		}
		return StockLine{}, derrors.Wrap(err, derrors.CodePersistenceFailure, "load stock line")
	}
	return line, nil
}

// Receive increments qty_in at the address, creating the line on first
// receipt. qty_out is never touched here.
func (s *Service) Receive(ctx context.Context, addr address.StockAddress, qty int) (StockLine, error) {
	if qty < 1 {
		return StockLine{}, derrors.Newf(derrors.CodeValidation, "receipt quantity must be positive, got %d", qty)
	}

	line, err := s.store.Get(ctx, addr)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		line = StockLine{Address: addr, QtyIn: qty, QtyOut: 0}
	case err != nil:
		return StockLine{}, derrors.Wrap(err, derrors.CodePersistenceFailure, "load stock line")
	default:
		line.QtyIn += qty
	}

	if err := s.upsert(ctx, line); err != nil {
		return StockLine{}, err
	}
	s.metrics.ObserveMovement("in")
	s.logDebug(ctx, "stock received", "address", addr.Encode(), "qty", qty, "final", line.Final())
	return line, nil
}

// Withdraw increments qty_out at the address. Withdrawing against a line
// that does not exist is an UnknownAddress failure.
func (s *Service) Withdraw(ctx context.Context, addr address.StockAddress, qty int) (StockLine, error) {
	if qty < 1 {
		return StockLine{}, derrors.Newf(derrors.CodeValidation, "withdrawal quantity must be positive, got %d", qty)
	}

	line, err := s.store.Get(ctx, addr)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return StockLine{}, derrors.Newf(derrors.CodeUnknownAddress,
				"withdrawal against unknown address %s", addr.Encode())
		}
		return StockLine{}, derrors.Wrap(err, derrors.CodePersistenceFailure, "load stock line")
	}

	line.QtyOut += qty
	if err := s.upsert(ctx, line); err != nil {
		return StockLine{}, err
	}
	s.metrics.ObserveMovement("out")
	s.logDebug(ctx, "stock withdrawn", "address", addr.Encode(), "qty", qty, "final", line.Final())
	return line, nil
}

// FinalQuantity computes qty_in - qty_out on read. A missing line counts as
// zero so callers can probe addresses freely.
func (s *Service) FinalQuantity(ctx context.Context, addr address.StockAddress) (int, error) {
	line, err := s.store.Get(ctx, addr)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return 0, nil
		}
		return 0, derrors.Wrap(err, derrors.CodePersistenceFailure, "load stock line")
	}
	return line.Final(), nil
}

// ListScenario returns every line in the scenario.
func (s *Service) ListScenario(ctx context.Context, scenario int) ([]StockLine, error) {
	lines, err := s.store.ListScenario(ctx, scenario)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodePersistenceFailure, "list stock lines")
	}
	return lines, nil
}

func (s *Service) upsert(ctx context.Context, line StockLine) error {
	return s.policy.Do(ctx, func(ctx context.Context) error {
		return s.store.Upsert(ctx, line)
	})
}

func (s *Service) logDebug(ctx context.Context, msg string, args ...any) {
	if s.logger != nil {
		s.logger.DebugContext(ctx, msg, args...)
	}
}
