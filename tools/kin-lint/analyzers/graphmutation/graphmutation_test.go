package graphmutation_test

import (
	"testing"

	"golang.org/x/tools/go/analysis/analysistest"

	"github.com/ersonp/kin-core/tools/kin-lint/analyzers/graphmutation"
)

func TestAnalyzer(t *testing.T) {
	testdata := analysistest.TestData()
	analysistest.Run(t, testdata, graphmutation.Analyzer,
		"example.com/kin/a",
		"example.com/kin/internal/domain/services",
	)
}
