// Package telemetry installs the OpenTelemetry tracer provider.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// DefaultServiceName is reported on every exported span.
const DefaultServiceName = "kin"

// Options configures tracing.
type Options struct {
	ServiceName string
	// Writer receives spans as JSON. Nil means stdout.
	Writer io.Writer
	// Sync exports each span as it ends instead of batching.
	Sync bool
}

// ShutdownFunc flushes pending spans and releases the provider.
type ShutdownFunc func(context.Context) error

// Setup installs a global tracer provider that exports spans to a writer.
// Until Setup is called the otel no-op provider is in effect and spans
// cost nothing.
func Setup(opts Options) (ShutdownFunc, error) {
	name := opts.ServiceName
	if name == "" {
		name = DefaultServiceName
	}
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("creating stdout exporter: %w", err)
	}

	res := resource.NewSchemaless(attribute.String("service.name", name))

	var export sdktrace.TracerProviderOption
	if opts.Sync {
		export = sdktrace.WithSyncer(exporter)
	} else {
		export = sdktrace.WithBatcher(exporter)
	}
	tp := sdktrace.NewTracerProvider(export, sdktrace.WithResource(res))

	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)

	return func(ctx context.Context) error {
		err := tp.Shutdown(ctx)
		otel.SetTracerProvider(previous)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("shutting down tracer provider: %w", err)
		}
		return nil
	}, nil
}
