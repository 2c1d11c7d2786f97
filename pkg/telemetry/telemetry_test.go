// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

func restoreProvider(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
}

func TestInitDisabled(t *testing.T) {
	restoreProvider(t)

	ctx := context.Background()
	tp, shutdown, err := Init(ctx, Options{Enabled: false})
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, shutdown(ctx))
	}()

	_, ok := tp.(noop.TracerProvider)
	assert.True(t, ok, "expected noop.TracerProvider, got %T", tp)
}

func TestInitEnabledNoneExporter(t *testing.T) {
	restoreProvider(t)

	ctx := context.Background()
	tp, shutdown, err := Init(ctx, Options{
		Enabled:     true,
		Exporter:    ExporterNone,
		ServiceName: "test-service",
		Logger:      zap.NewNop().Sugar(),
	})
	require.NoError(t, err)
	defer func() { _ = shutdown(ctx) }()

	_, isNoop := tp.(noop.TracerProvider)
	assert.False(t, isNoop)
	assert.Equal(t, tp, otel.GetTracerProvider())
}

func TestInitStdoutExporterWritesSpans(t *testing.T) {
	restoreProvider(t)

	ctx := context.Background()
	buf := &bytes.Buffer{}
	_, shutdown, err := Init(ctx, Options{
		Enabled:      true,
		Exporter:     ExporterStdout,
		StdoutWriter: buf,
	})
	require.NoError(t, err)

	_, span := Tracer().Start(ctx, "activation.handle")
	span.End()
	require.NoError(t, shutdown(ctx))

	assert.Contains(t, buf.String(), "activation.handle")
	assert.Contains(t, buf.String(), InstrumentationName)
}

func TestInitInvalidExporter(t *testing.T) {
	_, _, err := Init(context.Background(), Options{
		Enabled:  true,
		Exporter: "invalid-exporter",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown OTel exporter")
}

func TestInitSamplingRateClamped(t *testing.T) {
	for _, rate := range []float64{-0.5, 2.0} {
		restoreProvider(t)
		ctx := context.Background()
		tp, shutdown, err := Init(ctx, Options{
			Enabled:      true,
			Exporter:     ExporterNone,
			SamplingRate: rate,
		})
		require.NoError(t, err)
		require.NotNil(t, tp)
		_ = shutdown(ctx)
	}
}

func TestShutdownIdempotent(t *testing.T) {
	restoreProvider(t)

	ctx := context.Background()
	_, shutdown, err := Init(ctx, Options{
		Enabled:  true,
		Exporter: ExporterNone,
	})
	require.NoError(t, err)

	assert.NoError(t, shutdown(ctx))
	// Second shutdown should also succeed (or return a benign error)
	_ = shutdown(ctx)
}

func TestInitOTLPExporterCreation(t *testing.T) {
	restoreProvider(t)

	ctx := context.Background()
	// OTLP exporter uses lazy connection, so New() succeeds even with a
	// non-routable endpoint.
	tp, shutdown, err := Init(ctx, Options{
		Enabled:  true,
		Exporter: ExporterOTLP,
		Endpoint: "localhost:0",
		Insecure: true,
		Logger:   zap.NewNop().Sugar(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = shutdown(ctx) })
	require.NotNil(t, tp)
}
