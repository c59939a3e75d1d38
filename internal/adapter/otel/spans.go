package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "schoolpay"

// StartBatchSpan starts a span around one webhook batch.
func StartBatchSpan(ctx context.Context, items int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "payments.ingest",
		trace.WithAttributes(attribute.Int("batch.items", items)),
	)
}

// StartUpsertSpan starts a span for a single payment upsert.
func StartUpsertSpan(ctx context.Context, tenantID, externalID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "payments.upsert",
		trace.WithAttributes(
			attribute.String("tenant.id", tenantID),
			attribute.String("payment.external_id", externalID),
		),
	)
}
