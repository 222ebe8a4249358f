package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestSetup_ExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := Setup(Options{ServiceName: "kin-test", Writer: &buf, Sync: true})
	require.NoError(t, err)

	_, span := otel.Tracer("kin.test").Start(context.Background(), "project.fan")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), `"Name":"project.fan"`)
	assert.Contains(t, buf.String(), "kin-test")
}
