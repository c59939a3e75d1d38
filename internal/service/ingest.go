package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	spotel "github.com/Strob0t/SchoolPay/internal/adapter/otel"
	"github.com/Strob0t/SchoolPay/internal/domain/payment"
	"github.com/Strob0t/SchoolPay/internal/port/database"
	"github.com/Strob0t/SchoolPay/internal/port/messagequeue"
	"github.com/Strob0t/SchoolPay/internal/resilience"
)

// IngestResult summarizes one webhook batch.
type IngestResult struct {
	Success   bool      `json:"success"`
	Received  int       `json:"received"`
	Inserted  int       `json:"inserted"`
	Errors    []string  `json:"errors"`
	Timestamp time.Time `json:"timestamp"`
}

// StatusCode is 422 when the batch had errors and nothing was written,
// 200 otherwise.
func (r *IngestResult) StatusCode() int {
	if len(r.Errors) > 0 && r.Inserted == 0 {
		return http.StatusUnprocessableEntity
	}
	return http.StatusOK
}

// TenantChecker resolves a set of tenant ids to those that exist.
type TenantChecker interface {
	Existing(ctx context.Context, ids []string) (map[string]bool, error)
}

// IngestService validates and upserts webhook batches.
type IngestService struct {
	store   database.PaymentStore
	tenants TenantChecker
	queue   messagequeue.Publisher
	breaker *resilience.Breaker
	metrics *spotel.Metrics
	now     func() time.Time
}

// NewIngestService creates a new IngestService. queue, breaker and metrics
// may be nil.
func NewIngestService(
	store database.PaymentStore,
	tenants TenantChecker,
	queue messagequeue.Publisher,
	breaker *resilience.Breaker,
	metrics *spotel.Metrics,
) *IngestService {
	if queue == nil {
		queue = messagequeue.Noop{}
	}
	return &IngestService{
		store:   store,
		tenants: tenants,
		queue:   queue,
		breaker: breaker,
		metrics: metrics,
		now:     time.Now,
	}
}

// Ingest processes a batch in order. Each item is validated, checked against
// the set of known tenants and upserted; a failing item adds one message to
// the result and never stops the rest of the batch. An error is returned only
// when the tenant lookup itself fails.
func (s *IngestService) Ingest(ctx context.Context, items []payment.Item) (*IngestResult, error) {
	start := s.now()
	ctx, span := spotel.StartBatchSpan(ctx, len(items))
	defer span.End()

	res := &IngestResult{Received: len(items), Errors: []string{}}

	records := make([]*payment.Payment, len(items))
	invalid := make([]error, len(items))
	var tenantIDs []string
	for i, item := range items {
		p, err := payment.Validate(item, i, start)
		if err != nil {
			invalid[i] = err
			continue
		}
		records[i] = p
		tenantIDs = append(tenantIDs, p.TenantID)
	}

	known, err := s.tenants.Existing(ctx, tenantIDs)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	for i, p := range records {
		if invalid[i] != nil {
			res.Errors = append(res.Errors, invalid[i].Error())
			continue
		}
		if !known[p.TenantID] {
			res.Errors = append(res.Errors, fmt.Sprintf("Item %d: tenant_id %q not found", i, p.TenantID))
			continue
		}
		if err := s.upsert(ctx, p); err != nil {
			slog.Warn("payment upsert failed", "item", i, "external_payment_id", p.ExternalPaymentID, "error", err)
			res.Errors = append(res.Errors, fmt.Sprintf("Item %d: %s", i, err.Error()))
			continue
		}
		res.Inserted++
		s.publish(ctx, p)
	}

	res.Success = res.Inserted > 0
	res.Timestamp = s.now().UTC()
	s.record(ctx, res, start)

	slog.Info("payment batch processed",
		"received", res.Received,
		"inserted", res.Inserted,
		"errors", len(res.Errors),
	)
	return res, nil
}

func (s *IngestService) upsert(ctx context.Context, p *payment.Payment) error {
	ctx, span := spotel.StartUpsertSpan(ctx, p.TenantID, p.ExternalPaymentID)
	defer span.End()

	write := func(ctx context.Context) error { return s.store.UpsertPayment(ctx, p) }
	var err error
	if s.breaker != nil {
		err = s.breaker.Execute(ctx, write)
	} else {
		err = write(ctx)
	}
	if err != nil {
		span.RecordError(err)
	}
	return err
}

// publish announces a written payment. Failures are logged only; the row
// is already committed.
func (s *IngestService) publish(ctx context.Context, p *payment.Payment) {
	data, err := json.Marshal(payment.UpsertedEvent{
		EventID:           uuid.NewString(),
		TenantID:          p.TenantID,
		ExternalPaymentID: p.ExternalPaymentID,
		Status:            p.Status,
		Value:             p.Value,
		MessageSent:       p.MessageSent,
		SyncedAt:          p.LastSyncDate,
	})
	if err != nil {
		slog.Error("marshal payment event", "external_payment_id", p.ExternalPaymentID, "error", err)
		return
	}
	if err := s.queue.Publish(ctx, messagequeue.SubjectPaymentUpserted, data); err != nil {
		slog.Warn("publish payment event failed", "external_payment_id", p.ExternalPaymentID, "error", err)
	}
}

func (s *IngestService) record(ctx context.Context, res *IngestResult, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.PaymentsReceived.Add(ctx, int64(res.Received))
	s.metrics.PaymentsInserted.Add(ctx, int64(res.Inserted))
	s.metrics.PaymentsRejected.Add(ctx, int64(len(res.Errors)))
	s.metrics.BatchDuration.Record(ctx, s.now().Sub(start).Seconds())
}
