package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "schoolpay"

// Metrics holds the payment ingestion instruments.
type Metrics struct {
	PaymentsReceived metric.Int64Counter
	PaymentsInserted metric.Int64Counter
	PaymentsRejected metric.Int64Counter
	BatchDuration    metric.Float64Histogram
}

// NewMetrics creates all metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.PaymentsReceived, err = meter.Int64Counter("schoolpay.payments.received",
		metric.WithDescription("Payment items received by the webhook"))
	if err != nil {
		return nil, err
	}

	m.PaymentsInserted, err = meter.Int64Counter("schoolpay.payments.inserted",
		metric.WithDescription("Payment items upserted"))
	if err != nil {
		return nil, err
	}

	m.PaymentsRejected, err = meter.Int64Counter("schoolpay.payments.rejected",
		metric.WithDescription("Payment items rejected by validation, tenant check or store"))
	if err != nil {
		return nil, err
	}

	m.BatchDuration, err = meter.Float64Histogram("schoolpay.batch.duration_seconds",
		metric.WithDescription("Webhook batch processing time in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
