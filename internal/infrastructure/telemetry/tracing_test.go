package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/shopsync/backend/internal/domain/shared"
	"github.com/shopsync/backend/internal/infrastructure/telemetry"
)

// setupTestTracer installs an in-memory span recorder as the global provider
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func attrValue(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, a := range attrs {
		if string(a.Key) == key {
			return a.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestStartSpan_WithOptions(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "woocommerce.request",
		telemetry.WithSpanKind(trace.SpanKindClient),
		telemetry.WithAttribute(telemetry.SpanAttrSite, "uk"),
		telemetry.WithAttribute(telemetry.SpanAttrAttempt, 2),
	)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "woocommerce.request", spans[0].Name())
	assert.Equal(t, trace.SpanKindClient, spans[0].SpanKind())

	site, ok := attrValue(spans[0].Attributes(), "site")
	require.True(t, ok)
	assert.Equal(t, "uk", site.AsString())
	attempt, ok := attrValue(spans[0].Attributes(), "attempt")
	require.True(t, ok)
	assert.Equal(t, int64(2), attempt.AsInt64())
}

func TestStartServiceSpan(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartServiceSpan(context.Background(), "order_sweep", "sync_site")
	span.End()

	require.Len(t, sr.Ended(), 1)
	assert.Equal(t, "order_sweep.sync_site", sr.Ended()[0].Name())
}

func TestSetAttributes_Conversions(t *testing.T) {
	sr := setupTestTracer(t)

	progressID := uuid.New()
	_, span := telemetry.StartSpan(context.Background(), "catalog.full_pull")
	telemetry.SetAttributes(span,
		"site", shared.SiteCode("de"),
		"sku_count", 12,
		"remote_id", int64(9001),
		"fields", []string{"prices", "stock"},
		"dangling",
	)
	telemetry.SetAttribute(span, "progress_id", progressID)
	span.End()

	attrs := sr.Ended()[0].Attributes()
	v, _ := attrValue(attrs, "site")
	assert.Equal(t, "de", v.AsString())
	v, _ = attrValue(attrs, "sku_count")
	assert.Equal(t, int64(12), v.AsInt64())
	v, _ = attrValue(attrs, "remote_id")
	assert.Equal(t, int64(9001), v.AsInt64())
	v, _ = attrValue(attrs, "fields")
	assert.Equal(t, []string{"prices", "stock"}, v.AsStringSlice())
	v, _ = attrValue(attrs, "progress_id")
	assert.Equal(t, progressID.String(), v.AsString())
	_, ok := attrValue(attrs, "dangling")
	assert.False(t, ok)
}

func TestRecordErrorAndSetOK(t *testing.T) {
	sr := setupTestTracer(t)

	_, failed := telemetry.StartSpan(context.Background(), "failed")
	telemetry.RecordError(failed, errors.New("HTTP 503"))
	failed.End()

	_, ok := telemetry.StartSpan(context.Background(), "ok")
	telemetry.SetOK(ok)
	ok.End()

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "HTTP 503", spans[0].Status().Description)
	require.Len(t, spans[0].Events(), 1)
	kind, found := attrValue(spans[0].Attributes(), telemetry.SpanAttrErrorKind)
	require.True(t, found)
	assert.Equal(t, string(shared.KindOf(errors.New("HTTP 503"))), kind.AsString())
	assert.Equal(t, codes.Ok, spans[1].Status().Code)
}

func TestNestedSpans_ShareTrace(t *testing.T) {
	sr := setupTestTracer(t)

	ctx, parent := telemetry.StartSpan(context.Background(), "catalog.sync_batch")
	_, child := telemetry.StartSpan(ctx, "catalog.sync_product")
	assert.Equal(t, telemetry.GetTraceID(ctx), child.SpanContext().TraceID().String())
	child.End()
	parent.End()

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, spans[1].SpanContext().SpanID(), spans[0].Parent().SpanID())
}

func TestNilSpanHelpers(t *testing.T) {
	assert.NotPanics(t, func() {
		telemetry.SetAttributes(nil, "site", "com")
		telemetry.SetAttribute(nil, "site", "com")
		telemetry.RecordError(nil, errors.New("boom"))
		telemetry.SetOK(nil)
		telemetry.AddEvent(nil, "event")
	})
	assert.Empty(t, telemetry.GetTraceID(context.Background()))
	assert.Empty(t, telemetry.GetSpanID(context.Background()))
}
