// Package database defines the database store port (interface).
package database

import (
	"context"

	"github.com/Strob0t/SchoolPay/internal/domain/payment"
	"github.com/Strob0t/SchoolPay/internal/domain/tenant"
)

// TenantLookup resolves which of a set of tenant IDs exist.
type TenantLookup interface {
	// ExistingTenantIDs returns the subset of ids that reference a tenant.
	// Order is unspecified; malformed ids are simply absent from the result.
	ExistingTenantIDs(ctx context.Context, ids []string) ([]string, error)
}

// PaymentStore persists and reads payment records.
type PaymentStore interface {
	// UpsertPayment inserts p or overwrites the row with the same
	// ExternalPaymentID. ID, CreatedAt and UpdatedAt are filled on return.
	UpsertPayment(ctx context.Context, p *payment.Payment) error

	// ListPayments returns a tenant's payments, newest first.
	ListPayments(ctx context.Context, tenantID string, filter payment.ListFilter) ([]payment.Payment, error)
}

// Store is the full PostgreSQL-backed store used by the server and the CLI.
type Store interface {
	TenantLookup
	PaymentStore

	// Tenants
	ListTenants(ctx context.Context) ([]tenant.Tenant, error)
	CreateTenant(ctx context.Context, req tenant.CreateRequest) (*tenant.Tenant, error)

	Ping(ctx context.Context) error
}
