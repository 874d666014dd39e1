package composition

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"kitstock/internal/catalog"
	"kitstock/internal/treecode"
	"kitstock/pkg/derrors"
	"kitstock/pkg/platform/sentinel"
)

// Row is the flat interchange form used for bulk structural edits. Hierarchy
// is carried by row order: a KIT row opens a kit scope, MODULE rows nest
// under the open kit, ITEM rows nest under the open module (or kit, or stand
// alone when nothing is open).
type Row struct {
	Kind   catalog.Kind `json:"kind"`
	Code   string       `json:"code"`
	StdQty int          `json:"std_qty"`
}

// RowError ties a rejected import row to its reason.
type RowError struct {
	Index  int    `json:"index"`
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// Export flattens a scenario's composition into depth-first rows.
func (s *Service) Export(ctx context.Context, scenario int) ([]Row, error) {
	nodes, err := s.store.ListScenario(ctx, scenario)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodePersistenceFailure, "list scenario nodes")
	}
	tree := BuildTree(nodes)

	rows := make([]Row, 0, len(nodes))
	for _, root := range tree.Roots() {
		tree.Walk(root.Treecode, func(n Node) {
			rows = append(rows, Row{Kind: n.Kind, Code: n.Code, StdQty: n.StdQty})
		})
	}
	return rows, nil
}

// Import validates every row against the catalog, then replays the rows
// through AddNode so treecodes are re-derived by the allocator. Validation is
// all-or-nothing: any rejected row blocks the whole import, and every
// offending row is reported at once.
func (s *Service) Import(ctx context.Context, scenario int, rows []Row) ([]Node, error) {
	var rowErrs []RowError
	for i, row := range rows {
		declared, err := s.catalog.Kind(ctx, row.Code)
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			rowErrs = append(rowErrs, RowError{Index: i, Code: row.Code, Reason: "unknown catalog code"})
		case err != nil:
			return nil, derrors.Wrap(err, derrors.CodePersistenceFailure, "catalog lookup")
		case declared != row.Kind:
			rowErrs = append(rowErrs, RowError{
				Index: i, Code: row.Code,
				Reason: fmt.Sprintf("declared %s in catalog, row says %s", declared, row.Kind),
			})
		case row.Kind == catalog.KindItem && row.StdQty < 1:
			rowErrs = append(rowErrs, RowError{Index: i, Code: row.Code, Reason: "standard quantity must be positive"})
		}
	}
	if len(rowErrs) > 0 {
		return nil, importError(rowErrs)
	}

	var (
		created       []Node
		currentKit    *treecode.Treecode
		currentModule *treecode.Treecode
	)
	for _, row := range rows {
		var parent *treecode.Treecode
		switch row.Kind {
		case catalog.KindKit:
			currentKit, currentModule = nil, nil
		case catalog.KindModule:
			currentModule = nil
			parent = currentKit
		case catalog.KindItem:
			if currentModule != nil {
				parent = currentModule
			} else {
				parent = currentKit
			}
		}

		node, err := s.AddNode(ctx, scenario, row.Kind, row.Code, row.StdQty, parent)
		if err != nil {
			return created, err
		}
		created = append(created, node)

		switch row.Kind {
		case catalog.KindKit:
			tc := node.Treecode
			currentKit = &tc
		case catalog.KindModule:
			tc := node.Treecode
			currentModule = &tc
		}
	}
	return created, nil
}

func importError(rowErrs []RowError) error {
	reasons := make([]string, len(rowErrs))
	for i, re := range rowErrs {
		reasons[i] = fmt.Sprintf("row %d (%s): %s", re.Index, re.Code, re.Reason)
	}
	return derrors.Newf(derrors.CodeValidation, "import rejected: %s", strings.Join(reasons, "; "))
}
