package composition

import (
	"context"
	"sort"
	"sync"

	"kitstock/internal/treecode"
	"kitstock/pkg/platform/sentinel"
)

// InMemoryStore keeps composition nodes in a map keyed by treecode.
type InMemoryStore struct {
	mu    sync.RWMutex
	nodes map[treecode.Treecode]Node
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{nodes: make(map[treecode.Treecode]Node)}
}

func (s *InMemoryStore) Insert(_ context.Context, node Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nodes[node.Treecode]; ok {
		return sentinel.ErrConflict
	}
	s.nodes[node.Treecode] = node
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, tc treecode.Treecode) (Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n, ok := s.nodes[tc]; ok {
		return n, nil
	}
	return Node{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) ListScenario(_ context.Context, scenario int) ([]Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Node
	for _, n := range s.nodes {
		if n.Scenario == scenario {
			out = append(out, n)
		}
	}
	sortNodes(out)
	return out, nil
}

func (s *InMemoryStore) ListSubtree(_ context.Context, root treecode.Treecode) ([]Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Node
	for _, n := range s.nodes {
		if root.Contains(n.Treecode) {
			out = append(out, n)
		}
	}
	sortNodes(out)
	return out, nil
}

func (s *InMemoryStore) UpdateQuantity(_ context.Context, tc treecode.Treecode, stdQty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[tc]
	if !ok {
		return sentinel.ErrNotFound
	}
	n.StdQty = stdQty
	s.nodes[tc] = n
	return nil
}

func (s *InMemoryStore) DeleteSubtree(_ context.Context, root treecode.Treecode) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for tc := range s.nodes {
		if root.Contains(tc) {
			delete(s.nodes, tc)
			deleted++
		}
	}
	return deleted, nil
}

func sortNodes(nodes []Node) {
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].Treecode.String() < nodes[j].Treecode.String()
	})
}
