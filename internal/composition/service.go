package composition

import (
	"context"
	"errors"
	"log/slog"

	"kitstock/internal/catalog"
	"kitstock/internal/platform/metrics"
	"kitstock/internal/treecode"
	"kitstock/pkg/derrors"
	"kitstock/pkg/platform/sentinel"
)

// Service implements composition authoring: node creation with hierarchy
// validation, quantity edits, subtree deletion and duplication. Treecode
// slots come from the allocator scans in the treecode package.
type Service struct {
	store   Store
	catalog catalog.Catalog
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets a logger for authoring events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService constructs the composition service.
func NewService(store Store, cat catalog.Catalog, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("composition store is required")
	}
	if cat == nil {
		return nil, errors.New("catalog is required")
	}
	s := &Service{store: store, catalog: cat}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// AddNode validates and creates one composition node under parent (nil for a
// primary-level node) and returns it with its freshly allocated treecode.
func (s *Service) AddNode(ctx context.Context, scenario int, kind catalog.Kind, code string, stdQty int, parent *treecode.Treecode) (Node, error) {
	declared, err := s.catalog.Kind(ctx, code)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Node{}, derrors.Newf(derrors.CodeValidation, "catalog code %q is unknown", code)
		}
		return Node{}, derrors.Wrap(err, derrors.CodePersistenceFailure, "catalog lookup")
	}
	if kind != declared {
		return Node{}, derrors.Newf(derrors.CodeInvalidHierarchy,
			"code %q is declared %s in the catalog, not %s", code, declared, kind)
	}

	// A container either exists once or not at all.
	switch kind {
	case catalog.KindKit, catalog.KindModule:
		stdQty = 1
	case catalog.KindItem:
		if stdQty < 1 {
			return Node{}, derrors.Newf(derrors.CodeValidation,
				"standard quantity must be positive, got %d", stdQty)
		}
	default:
		return Node{}, derrors.Newf(derrors.CodeInvalidHierarchy, "unknown kind %q", kind)
	}

	var parentNode *Node
	if parent != nil {
		p, err := s.Get(ctx, *parent)
		if err != nil {
			return Node{}, err
		}
		if err := checkParentChild(p, kind); err != nil {
			return Node{}, err
		}
		parentNode = &p
		scenario = p.Scenario
	} else if kind == catalog.KindItem {
		// Standalone bulk items are legitimate primary nodes.
		s.logDebug(ctx, "adding standalone item node", "code", code, "scenario", scenario)
	}

	tc, err := s.allocate(ctx, scenario, parentNode)
	if err != nil {
		return Node{}, err
	}

	node := Node{Scenario: scenario, Kind: kind, Code: code, StdQty: stdQty, Treecode: tc}
	if err := s.store.Insert(ctx, node); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return Node{}, derrors.Wrap(err, derrors.CodePersistenceConflict, "treecode slot taken concurrently")
		}
		return Node{}, derrors.Wrap(err, derrors.CodePersistenceFailure, "insert node")
	}
	return node, nil
}

// Get loads one node.
func (s *Service) Get(ctx context.Context, tc treecode.Treecode) (Node, error) {
	n, err := s.store.Get(ctx, tc)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Node{}, derrors.Newf(derrors.CodeNotFound, "no composition node at %s", tc)
		}
		return Node{}, derrors.Wrap(err, derrors.CodePersistenceFailure, "load node")
	}
	return n, nil
}

// EditQuantity changes an ITEM node's standard quantity. Containers are
// structurally fixed at 1.
func (s *Service) EditQuantity(ctx context.Context, tc treecode.Treecode, stdQty int) error {
	node, err := s.Get(ctx, tc)
	if err != nil {
		return err
	}
	if node.Kind != catalog.KindItem {
		return derrors.Newf(derrors.CodeValidation,
			"%s node quantity is fixed at 1", node.Kind)
	}
	if stdQty < 1 {
		return derrors.Newf(derrors.CodeValidation, "standard quantity must be positive, got %d", stdQty)
	}
	if err := s.store.UpdateQuantity(ctx, tc, stdQty); err != nil {
		return derrors.Wrap(err, derrors.CodePersistenceFailure, "update quantity")
	}
	return nil
}

// ListChildren returns the direct children of a node.
func (s *Service) ListChildren(ctx context.Context, parent treecode.Treecode) ([]Node, error) {
	subtree, err := s.store.ListSubtree(ctx, parent)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodePersistenceFailure, "list subtree")
	}
	children := make([]Node, 0, len(subtree))
	for _, n := range subtree {
		if n.Treecode.ChildOf(parent) {
			children = append(children, n)
		}
	}
	return children, nil
}

// DeleteSubtree removes the node at root and everything beneath it,
// returning the number of removed nodes.
func (s *Service) DeleteSubtree(ctx context.Context, root treecode.Treecode) (int, error) {
	if _, err := s.Get(ctx, root); err != nil {
		return 0, err
	}
	deleted, err := s.store.DeleteSubtree(ctx, root)
	if err != nil {
		return 0, derrors.Wrap(err, derrors.CodePersistenceFailure, "delete subtree")
	}
	s.logDebug(ctx, "deleted composition subtree", "root", root.String(), "nodes", deleted)
	return deleted, nil
}

// DuplicateKit copies a kit subtree into a freshly allocated primary slot.
// The copy is a structural template: quantities and kinds are preserved, no
// instance numbers are assigned.
func (s *Service) DuplicateKit(ctx context.Context, source treecode.Treecode) (Node, error) {
	root, err := s.Get(ctx, source)
	if err != nil {
		return Node{}, err
	}
	if root.Kind != catalog.KindKit {
		return Node{}, derrors.Newf(derrors.CodeInvalidHierarchy,
			"%s is a %s, not a kit", source, root.Kind)
	}
	return s.duplicate(ctx, root, false)
}

// DuplicateModule copies a module subtree. A nested module gets a fresh
// secondary slot under its own kit; a standalone (primary-level) module gets
// a fresh primary slot.
func (s *Service) DuplicateModule(ctx context.Context, source treecode.Treecode) (Node, error) {
	root, err := s.Get(ctx, source)
	if err != nil {
		return Node{}, err
	}
	if root.Kind != catalog.KindModule {
		return Node{}, derrors.Newf(derrors.CodeInvalidHierarchy,
			"%s is a %s, not a module", source, root.Kind)
	}
	nested := root.Level() == treecode.LevelSecondary
	return s.duplicate(ctx, root, nested)
}

// duplicate walks the source subtree depth-first and re-allocates every slot
// inside the destination scope, inserting copies as it goes.
func (s *Service) duplicate(ctx context.Context, root Node, nested bool) (Node, error) {
	existing, err := s.listCodes(ctx, root.Scenario)
	if err != nil {
		return Node{}, err
	}
	subtree, err := s.store.ListSubtree(ctx, root.Treecode)
	if err != nil {
		return Node{}, derrors.Wrap(err, derrors.CodePersistenceFailure, "list source subtree")
	}
	tree := BuildTree(subtree)

	var newRootCode treecode.Treecode
	if nested {
		newRootCode, err = treecode.NextSecondary(existing, root.Scenario, root.Treecode.Primary)
	} else {
		newRootCode, err = treecode.NextPrimary(existing, root.Scenario)
	}
	if err != nil {
		return Node{}, s.allocErr(err)
	}
	existing = append(existing, newRootCode)

	newRoot := Node{
		Scenario: root.Scenario,
		Kind:     root.Kind,
		Code:     root.Code,
		StdQty:   root.StdQty,
		Treecode: newRootCode,
	}
	if err := s.insertCopy(ctx, newRoot); err != nil {
		return Node{}, err
	}

	if err := s.copyChildren(ctx, tree, root.Treecode, newRootCode, &existing); err != nil {
		return Node{}, err
	}
	s.logDebug(ctx, "duplicated subtree",
		"source", root.Treecode.String(), "target", newRootCode.String(), "nodes", len(subtree))
	return newRoot, nil
}

func (s *Service) copyChildren(ctx context.Context, tree *Tree, oldParent, newParent treecode.Treecode, existing *[]treecode.Treecode) error {
	for _, child := range tree.Children(oldParent) {
		var (
			tc  treecode.Treecode
			err error
		)
		switch newParent.Level() {
		case treecode.LevelPrimary:
			tc, err = treecode.NextSecondary(*existing, newParent.Scenario, newParent.Primary)
		case treecode.LevelSecondary:
			tc, err = treecode.NextTertiary(*existing, newParent.Scenario, newParent.Primary, newParent.Secondary)
		default:
			return derrors.Newf(derrors.CodeInvalidHierarchy,
				"cannot copy children below tertiary level at %s", newParent)
		}
		if err != nil {
			return s.allocErr(err)
		}
		*existing = append(*existing, tc)

		copyNode := Node{
			Scenario: child.Scenario,
			Kind:     child.Kind,
			Code:     child.Code,
			StdQty:   child.StdQty,
			Treecode: tc,
		}
		if err := s.insertCopy(ctx, copyNode); err != nil {
			return err
		}
		if err := s.copyChildren(ctx, tree, child.Treecode, tc, existing); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) insertCopy(ctx context.Context, node Node) error {
	if err := s.store.Insert(ctx, node); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return derrors.Wrap(err, derrors.CodePersistenceConflict, "treecode slot taken concurrently")
		}
		return derrors.Wrap(err, derrors.CodePersistenceFailure, "insert copied node")
	}
	return nil
}

func (s *Service) allocate(ctx context.Context, scenario int, parent *Node) (treecode.Treecode, error) {
	existing, err := s.listCodes(ctx, scenario)
	if err != nil {
		return treecode.Treecode{}, err
	}
	if parent == nil {
		tc, err := treecode.NextPrimary(existing, scenario)
		return tc, s.allocErr(err)
	}
	switch parent.Level() {
	case treecode.LevelPrimary:
		tc, err := treecode.NextSecondary(existing, scenario, parent.Treecode.Primary)
		return tc, s.allocErr(err)
	case treecode.LevelSecondary:
		tc, err := treecode.NextTertiary(existing, scenario, parent.Treecode.Primary, parent.Treecode.Secondary)
		return tc, s.allocErr(err)
	default:
		return treecode.Treecode{}, derrors.Newf(derrors.CodeInvalidHierarchy,
			"node %s is at tertiary level and cannot have children", parent.Treecode)
	}
}

// allocErr counts exhausted-slot failures before passing the error through.
func (s *Service) allocErr(err error) error {
	if err != nil && s.metrics != nil && derrors.HasCode(err, derrors.CodeAddressSpaceExhausted) {
		s.metrics.ObserveSlotExhausted()
	}
	return err
}

func (s *Service) listCodes(ctx context.Context, scenario int) ([]treecode.Treecode, error) {
	nodes, err := s.store.ListScenario(ctx, scenario)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodePersistenceFailure, "list scenario nodes")
	}
	codes := make([]treecode.Treecode, len(nodes))
	for i, n := range nodes {
		codes[i] = n.Treecode
	}
	return codes, nil
}

func checkParentChild(parent Node, childKind catalog.Kind) error {
	switch parent.Kind {
	case catalog.KindItem:
		return derrors.Newf(derrors.CodeInvalidHierarchy, "item %s cannot have children", parent.Code)
	case catalog.KindModule:
		if childKind != catalog.KindItem {
			return derrors.Newf(derrors.CodeInvalidHierarchy,
				"module %s accepts only item children, got %s", parent.Code, childKind)
		}
	case catalog.KindKit:
		if childKind == catalog.KindKit {
			return derrors.Newf(derrors.CodeInvalidHierarchy, "kits cannot nest inside kits")
		}
	}
	return nil
}

func (s *Service) logDebug(ctx context.Context, msg string, args ...any) {
	if s.logger != nil {
		s.logger.DebugContext(ctx, msg, args...)
	}
}
