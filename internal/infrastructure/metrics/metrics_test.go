package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordProposal(t *testing.T) {
	before := testutil.ToFloat64(edgeProposals.WithLabelValues("parent_child", ResultRejected))
	RecordProposal("parent_child", ResultRejected)
	RecordProposal("parent_child", ResultRejected)
	after := testutil.ToFloat64(edgeProposals.WithLabelValues("parent_child", ResultRejected))
	assert.Equal(t, 2.0, after-before)
}

func TestRecordSuggestionResponse(t *testing.T) {
	before := testutil.ToFloat64(suggestionResponses.WithLabelValues("accepted", ResultCommitted))
	RecordSuggestionResponse(true, ResultCommitted)
	assert.Equal(t, 1.0, testutil.ToFloat64(suggestionResponses.WithLabelValues("accepted", ResultCommitted))-before)
}

func TestRecordScoring(t *testing.T) {
	before := testutil.ToFloat64(suggestionsScored)
	RecordScoring(7, 0.01)
	assert.Equal(t, 7.0, testutil.ToFloat64(suggestionsScored)-before)
}

func TestSetGraphEdges(t *testing.T) {
	SetGraphEdges(3, 5)
	assert.Equal(t, 3.0, testutil.ToFloat64(graphEdges.WithLabelValues("partnership")))
	assert.Equal(t, 5.0, testutil.ToFloat64(graphEdges.WithLabelValues("parent_child")))

	SetGraphEdges(2, 5)
	assert.Equal(t, 2.0, testutil.ToFloat64(graphEdges.WithLabelValues("partnership")))
}

func TestHandler(t *testing.T) {
	RecordProjection("fan", "ok", 0.002)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `kin_projector_projections_total{result="ok",view="fan"}`)
}
