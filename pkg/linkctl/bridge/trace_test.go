package bridge

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/telekom/linkctl/pkg/linkctl/deliver"
	"github.com/telekom/linkctl/pkg/system"
)

func TestHandle_RecordsSpanWithoutSecret(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	recorder := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))

	b := New(newExtractor(t), deliver.NewChannel(4), system.NewTestLogger())
	assert.Equal(t, OutcomeDelivered, b.Handle(context.Background(), "app://auth/callback?token="+secret))
	assert.Equal(t, OutcomeMissingToken, b.Handle(context.Background(), "app://auth/callback?code=1"))

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	for _, span := range spans {
		assert.Equal(t, "activation.handle", span.Name())
		for _, kv := range span.Attributes() {
			assert.False(t, strings.Contains(kv.Value.Emit(), secret), "span attribute %s leaks the token", kv.Key)
		}
	}

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "app", attrs["linkctl.callback.scheme"])
	assert.Equal(t, "delivered", attrs["linkctl.outcome"])
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}
