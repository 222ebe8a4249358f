// Package analyzers provides all custom static analyzers for kin-core.
package analyzers

import (
	"golang.org/x/tools/go/analysis"

	"github.com/ersonp/kin-core/tools/kin-lint/analyzers/graphmutation"
	"github.com/ersonp/kin-core/tools/kin-lint/analyzers/loopcall"
)

// All returns all analyzers to run.
func All() []*analysis.Analyzer {
	return []*analysis.Analyzer{
		graphmutation.Analyzer,
		loopcall.Analyzer,
	}
}
