package ledger

import (
	"context"
	"sort"
	"sync"

	"kitstock/internal/address"
	"kitstock/pkg/platform/sentinel"
)

// InMemoryStore keeps stock lines in a map keyed by the structured address.
type InMemoryStore struct {
	mu    sync.RWMutex
	lines map[address.StockAddress]StockLine
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{lines: make(map[address.StockAddress]StockLine)}
}

func (s *InMemoryStore) Get(_ context.Context, addr address.StockAddress) (StockLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if line, ok := s.lines[addr]; ok {
		return line, nil
	}
	return StockLine{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) Upsert(_ context.Context, line StockLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines[line.Address] = line
	return nil
}

func (s *InMemoryStore) ListScenario(_ context.Context, scenario int) ([]StockLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []StockLine
	for _, line := range s.lines {
		if line.Address.Scenario == scenario {
			out = append(out, line)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Address.Encode() < out[j].Address.Encode()
	})
	return out, nil
}
