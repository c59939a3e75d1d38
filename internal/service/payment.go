package service

import (
	"context"
	"time"

	"github.com/Strob0t/SchoolPay/internal/domain/payment"
	"github.com/Strob0t/SchoolPay/internal/port/database"
)

// Listing bounds for the read API.
const (
	DefaultListLimit = 50
	MaxListLimit     = 1000
)

// PaymentService serves the dashboard read API.
type PaymentService struct {
	store database.PaymentStore
	now   func() time.Time
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(store database.PaymentStore) *PaymentService {
	return &PaymentService{store: store, now: time.Now}
}

// List returns a tenant's payments, newest first. The limit defaults to
// DefaultListLimit and is capped at MaxListLimit.
func (s *PaymentService) List(ctx context.Context, tenantID string, filter payment.ListFilter) ([]payment.Payment, error) {
	switch {
	case filter.Limit <= 0:
		filter.Limit = DefaultListLimit
	case filter.Limit > MaxListLimit:
		filter.Limit = MaxListLimit
	}
	if filter.Status != "" {
		filter.Status = payment.NormalizeStatus(string(filter.Status))
	}
	return s.store.ListPayments(ctx, tenantID, filter)
}

// Summary computes dashboard KPIs over the tenant's most recent payments
// created within [from, to]. Zero bounds are open.
func (s *PaymentService) Summary(ctx context.Context, tenantID string, from, to time.Time) (*payment.Summary, error) {
	payments, err := s.store.ListPayments(ctx, tenantID, payment.ListFilter{
		From:  from,
		To:    to,
		Limit: MaxListLimit,
	})
	if err != nil {
		return nil, err
	}
	summary := payment.Summarize(payments, s.now())
	return &summary, nil
}
