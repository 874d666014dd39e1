// Package scenario manages operational planning contexts. A scenario scopes
// every treecode and most ledger addresses. The registry replaces the
// original application's global scenario-name cache: callers hold a Store
// and pass it into operations explicitly.
package scenario

import (
	"context"
	"errors"
	"strings"

	"kitstock/internal/treecode"
	"kitstock/pkg/derrors"
	"kitstock/pkg/platform/sentinel"
)

// MaxActive caps concurrently active scenarios.
const MaxActive = 15

// Scenario is one operational planning context.
type Scenario struct {
	ID     int
	Name   string
	Active bool
}

// Store persists scenarios. Implementations return sentinel.ErrNotFound for
// unknown ids and sentinel.ErrConflict when an id is already taken.
type Store interface {
	Create(ctx context.Context, sc Scenario) error
	FindByID(ctx context.Context, id int) (Scenario, error)
	List(ctx context.Context) ([]Scenario, error)
	SetActive(ctx context.Context, id int, active bool) error
}

// Service validates scenario lifecycle rules in front of a Store.
type Service struct {
	store Store
}

// NewService constructs the scenario registry service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create registers a new scenario. Ids share the treecode scenario segment,
// so they are bounded to 1..99; at most MaxActive may be active at once.
func (s *Service) Create(ctx context.Context, sc Scenario) (Scenario, error) {
	sc.Name = strings.TrimSpace(sc.Name)
	if sc.ID < 1 || sc.ID > treecode.MaxScenario {
		return Scenario{}, derrors.Newf(derrors.CodeValidation,
			"scenario id %d out of range 1..%d", sc.ID, treecode.MaxScenario)
	}
	if sc.Name == "" {
		return Scenario{}, derrors.New(derrors.CodeValidation, "scenario name is required")
	}

	if sc.Active {
		active, err := s.countActive(ctx)
		if err != nil {
			return Scenario{}, err
		}
		if active >= MaxActive {
			return Scenario{}, derrors.Newf(derrors.CodeConflict,
				"at most %d scenarios may be active", MaxActive)
		}
	}

	if err := s.store.Create(ctx, sc); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return Scenario{}, derrors.Newf(derrors.CodeConflict, "scenario %d already exists", sc.ID)
		}
		return Scenario{}, derrors.Wrap(err, derrors.CodePersistenceFailure, "create scenario")
	}
	return sc, nil
}

// Activate flips a scenario active, re-checking the cap.
func (s *Service) Activate(ctx context.Context, id int) error {
	sc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if sc.Active {
		return nil
	}
	active, err := s.countActive(ctx)
	if err != nil {
		return err
	}
	if active >= MaxActive {
		return derrors.Newf(derrors.CodeConflict, "at most %d scenarios may be active", MaxActive)
	}
	return s.store.SetActive(ctx, id, true)
}

// Deactivate retires a scenario without deleting its history.
func (s *Service) Deactivate(ctx context.Context, id int) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.store.SetActive(ctx, id, false)
}

// Get looks up one scenario.
func (s *Service) Get(ctx context.Context, id int) (Scenario, error) {
	sc, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Scenario{}, derrors.Newf(derrors.CodeNotFound, "scenario %d not found", id)
		}
		return Scenario{}, derrors.Wrap(err, derrors.CodePersistenceFailure, "load scenario")
	}
	return sc, nil
}

// List returns all scenarios.
func (s *Service) List(ctx context.Context) ([]Scenario, error) {
	return s.store.List(ctx)
}

func (s *Service) countActive(ctx context.Context) (int, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return 0, derrors.Wrap(err, derrors.CodePersistenceFailure, "list scenarios")
	}
	active := 0
	for _, sc := range all {
		if sc.Active {
			active++
		}
	}
	return active, nil
}
