package audit

import (
	"context"

	"github.com/google/uuid"

	"kitstock/pkg/requestcontext"
)

// Store persists audit events append-only.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByAddress(ctx context.Context, address string) ([]Event, error)
	ListByDocument(ctx context.Context, documentReference string) ([]Event, error)
}

// FanoutStore appends to the primary store and offers the event to an inbox
// for background delivery. A full inbox is skipped rather than blocking a
// commit.
type FanoutStore struct {
	Store
	Inbox chan<- Event
}

func (s FanoutStore) Append(ctx context.Context, event Event) error {
	if err := s.Store.Append(ctx, event); err != nil {
		return err
	}
	select {
	case s.Inbox <- event:
	default:
	}
	return nil
}

// Publisher captures structured audit events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.Operator == "" {
		event.Operator = requestcontext.Operator(ctx)
	}
	return p.store.Append(ctx, event)
}

func (p *Publisher) ListByAddress(ctx context.Context, address string) ([]Event, error) {
	return p.store.ListByAddress(ctx, address)
}

func (p *Publisher) ListByDocument(ctx context.Context, documentReference string) ([]Event, error) {
	return p.store.ListByDocument(ctx, documentReference)
}
