// Package loopcall detects repository reads inside loops.
package loopcall

import (
	"go/ast"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// Analyzer detects whole-table reads and per-id lookups issued from a loop.
// The family graph and scoring input are built from one pass over each
// table, so a read inside a loop is almost always a missed hoist.
var Analyzer = &analysis.Analyzer{
	Name:     "loopcall",
	Doc:      "detects relational database reads inside loops that should be hoisted",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

// readMethods are RelationalDB methods that hit the database once per call.
var readMethods = map[string]bool{
	"FindPersonByID":           true,
	"SearchPeople":             true,
	"ListPeople":               true,
	"ListPartnerships":         true,
	"ListParentChild":          true,
	"ListRejections":           true,
	"ListEvidence":             true,
	"ListHouseholdMemberships": true,
	"ListResidences":           true,
	"FindAuditLog":             true,
}

func run(pass *analysis.Pass) (any, error) {
	inspect := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{
		(*ast.RangeStmt)(nil),
		(*ast.ForStmt)(nil),
	}

	inspect.Preorder(nodeFilter, func(n ast.Node) {
		var body *ast.BlockStmt
		switch stmt := n.(type) {
		case *ast.RangeStmt:
			body = stmt.Body
		case *ast.ForStmt:
			body = stmt.Body
		}
		if body == nil {
			return
		}

		ast.Inspect(body, func(n ast.Node) bool {
			// Nested loops are visited by Preorder on their own.
			switch n.(type) {
			case *ast.RangeStmt, *ast.ForStmt:
				return false
			}

			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}
			sel, ok := call.Fun.(*ast.SelectorExpr)
			if !ok {
				return true
			}

			if name := sel.Sel.Name; readMethods[name] {
				pass.Reportf(call.Pos(),
					"potential N+1: %s called inside loop - load once before the loop",
					name)
			}
			return true
		})
	})

	return nil, nil
}
