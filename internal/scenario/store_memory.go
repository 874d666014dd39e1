package scenario

import (
	"context"
	"sort"
	"sync"

	"kitstock/pkg/platform/sentinel"
)

// InMemoryStore keeps scenarios in a map. Favors clarity over performance;
// there are at most 99.
type InMemoryStore struct {
	mu        sync.RWMutex
	scenarios map[int]Scenario
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{scenarios: make(map[int]Scenario)}
}

func (s *InMemoryStore) Create(_ context.Context, sc Scenario) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.scenarios[sc.ID]; ok {
		return sentinel.ErrConflict
	}
	s.scenarios[sc.ID] = sc
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id int) (Scenario, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sc, ok := s.scenarios[id]; ok {
		return sc, nil
	}
	return Scenario{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) List(_ context.Context) ([]Scenario, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Scenario, 0, len(s.scenarios))
	for _, sc := range s.scenarios {
		out = append(out, sc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemoryStore) SetActive(_ context.Context, id int, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.scenarios[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	sc.Active = active
	s.scenarios[id] = sc
	return nil
}
