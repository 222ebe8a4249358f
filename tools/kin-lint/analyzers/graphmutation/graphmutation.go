// Package graphmutation reports graph mutations that bypass the family tree
// service.
package graphmutation

import (
	"go/ast"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// Analyzer flags calls to *graph.Graph mutators made outside the graph and
// services packages. Test files may build graphs directly. Edges committed any other way are never persisted or
// audited, and skip the service's write lock.
var Analyzer = &analysis.Analyzer{
	Name:     "graphmutation",
	Doc:      "reports *graph.Graph mutations outside the graph and services packages",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

const (
	graphPkgSuffix    = "/domain/graph"
	servicesPkgSuffix = "/domain/services"
)

var mutators = map[string]bool{
	"AddPartnership": true,
	"AddParentChild": true,
	"RemoveEdge":     true,
	"SetPeople":      true,
}

func run(pass *analysis.Pass) (any, error) {
	if allowed(pass.Pkg.Path()) {
		return nil, nil
	}

	inspect := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)
	inspect.Preorder([]ast.Node{(*ast.CallExpr)(nil)}, func(n ast.Node) {
		call := n.(*ast.CallExpr)
		if strings.HasSuffix(pass.Fset.File(call.Pos()).Name(), "_test.go") {
			return
		}
		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok || !mutators[sel.Sel.Name] {
			return
		}
		fn, ok := pass.TypesInfo.Uses[sel.Sel].(*types.Func)
		if !ok {
			return
		}
		recv := fn.Type().(*types.Signature).Recv()
		if recv == nil || !isGraph(recv.Type()) {
			return
		}
		pass.Reportf(call.Pos(),
			"graph.%s called outside the family tree service - use FamilyTreeService so the change is persisted",
			sel.Sel.Name)
	})

	return nil, nil
}

func allowed(path string) bool {
	path = strings.TrimSuffix(path, "_test")
	return strings.HasSuffix(path, graphPkgSuffix) || strings.HasSuffix(path, servicesPkgSuffix)
}

func isGraph(t types.Type) bool {
	if p, ok := t.(*types.Pointer); ok {
		t = p.Elem()
	}
	named, ok := t.(*types.Named)
	if !ok {
		return false
	}
	obj := named.Obj()
	return obj.Name() == "Graph" && obj.Pkg() != nil && strings.HasSuffix(obj.Pkg().Path(), graphPkgSuffix)
}
