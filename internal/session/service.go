package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"kitstock/internal/cascade"
	"kitstock/internal/reconcile"
	"kitstock/pkg/derrors"
	"kitstock/pkg/platform/sentinel"
	"kitstock/pkg/requestcontext"
)

// Service manages live sessions and drives the commit step: recompute the
// cascade, validate every line, take exclusive possession of the touched
// addresses, and apply the batch atomically.
type Service struct {
	engine *reconcile.Engine
	locker Locker
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func NewService(engine *reconcile.Engine, locker Locker, opts ...Option) (*Service, error) {
	if engine == nil {
		return nil, errors.New("reconcile engine is required")
	}
	if locker == nil {
		locker = NewInMemoryLocker()
	}
	s := &Service{
		engine:   engine,
		locker:   locker,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start opens a session for the operator carried in ctx.
func (s *Service) Start(ctx context.Context, scenarioID int) (*Session, error) {
	sess := newSession(uuid.NewString(), scenarioID, requestcontext.Operator(ctx), requestcontext.Now(ctx))

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	s.logDebug(ctx, "session started", "session_id", sess.ID, "scenario", scenarioID)
	return sess, nil
}

// Get returns a live session.
func (s *Service) Get(_ context.Context, sessionID string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, derrors.Newf(derrors.CodeNotFound, "session %s not found", sessionID)
	}
	return sess, nil
}

// Commit applies the session's pending counts as one atomic batch. The
// session stays open afterwards with its counts rebased, so an immediate
// re-commit moves nothing.
func (s *Service) Commit(ctx context.Context, sessionID string) (reconcile.Result, error) {
	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return reconcile.Result{}, err
	}

	sess.mu.Lock()
	zeroings := cascade.Recompute(sess.rows)
	counts := sess.pendingLocked()
	sess.mu.Unlock()
	for _, z := range zeroings {
		s.logDebug(ctx, "row zeroed at commit", "session_id", sessionID, "zeroing", z.String())
	}

	if len(counts) == 0 {
		return reconcile.Result{}, nil
	}

	addresses := make([]string, len(counts))
	for i, c := range counts {
		addresses[i] = c.Address.Encode()
	}
	if err := s.locker.Acquire(ctx, sessionID, addresses); err != nil {
		if errors.Is(err, sentinel.ErrLocked) {
			return reconcile.Result{}, derrors.Wrap(err, derrors.CodeConflict,
				"addresses held by another session")
		}
		return reconcile.Result{}, derrors.Wrap(err, derrors.CodePersistenceFailure, "acquire address locks")
	}
	defer func() {
		if err := s.locker.Release(ctx, sessionID, addresses); err != nil {
			s.logError(ctx, "release address locks", "session_id", sessionID, "error", err)
		}
	}()

	result, err := s.engine.Apply(ctx, counts)
	if err != nil {
		return reconcile.Result{}, err
	}

	sess.rebase(result.Outcomes)
	return result, nil
}

// End closes a session and discards its working set.
func (s *Service) End(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	_, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	if !ok {
		return derrors.Newf(derrors.CodeNotFound, "session %s not found", sessionID)
	}
	s.logDebug(ctx, "session ended", "session_id", sessionID)
	return nil
}

func (s *Service) logDebug(ctx context.Context, msg string, args ...any) {
	if s.logger != nil {
		s.logger.DebugContext(ctx, msg, args...)
	}
}

func (s *Service) logError(ctx context.Context, msg string, args ...any) {
	if s.logger != nil {
		s.logger.ErrorContext(ctx, msg, args...)
	}
}
