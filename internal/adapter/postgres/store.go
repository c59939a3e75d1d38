package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Strob0t/SchoolPay/internal/domain/payment"
	"github.com/Strob0t/SchoolPay/internal/port/database"
)

// MaxListLimit caps how many payments a single listing returns.
const MaxListLimit = 1000

// Store implements database.Store using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

var _ database.Store = (*Store)(nil)

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Payments ---

const paymentColumns = `id::text, tenant_id::text, external_payment_id, customer_name, customer_phone,
	value::text, status, to_char(due_date, 'YYYY-MM-DD'),
	to_char(payment_date AT TIME ZONE 'UTC', 'YYYY-MM-DD"T"HH24:MI:SS.MS"Z"'),
	to_char(dispatch_date AT TIME ZONE 'UTC', 'YYYY-MM-DD"T"HH24:MI:SS.MS"Z"'),
	message_sent, last_sync_date, description, conversion_time_hours::float8,
	created_at, updated_at`

// UpsertPayment writes p keyed by external_payment_id. Dates travel as
// text and are cast by PostgreSQL, so an impossible calendar date fails
// here rather than in the parser.
func (s *Store) UpsertPayment(ctx context.Context, p *payment.Payment) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO payments (tenant_id, external_payment_id, customer_name, customer_phone,
			value, status, due_date, payment_date, dispatch_date, message_sent, last_sync_date, description)
		 VALUES ($1::text::uuid, $2, $3, $4, $5::text::numeric, $6, $7::text::date,
			$8::text::timestamptz, $9::text::timestamptz, $10, $11, $12)
		 ON CONFLICT (external_payment_id) DO UPDATE SET
			tenant_id = EXCLUDED.tenant_id,
			customer_name = EXCLUDED.customer_name,
			customer_phone = EXCLUDED.customer_phone,
			value = EXCLUDED.value,
			status = EXCLUDED.status,
			due_date = EXCLUDED.due_date,
			payment_date = EXCLUDED.payment_date,
			dispatch_date = EXCLUDED.dispatch_date,
			message_sent = EXCLUDED.message_sent,
			last_sync_date = EXCLUDED.last_sync_date,
			description = EXCLUDED.description,
			updated_at = now()
		 RETURNING id::text, conversion_time_hours::float8, created_at, updated_at`,
		p.TenantID, p.ExternalPaymentID, p.CustomerName, p.CustomerPhone,
		p.Value.String(), string(p.Status), p.DueDate, p.PaymentDate, p.DispatchDate,
		p.MessageSent, p.LastSyncDate, p.Description,
	).Scan(&p.ID, &p.ConversionTimeHours, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert payment %s: %w", p.ExternalPaymentID, err)
	}
	return nil
}

// ListPayments returns a tenant's payments, newest first.
// A non-positive limit or one above MaxListLimit is clamped.
func (s *Store) ListPayments(ctx context.Context, tenantID string, f payment.ListFilter) ([]payment.Payment, error) {
	limit := f.Limit
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+paymentColumns+`
		 FROM payments
		 WHERE tenant_id = $1::text::uuid
		   AND ($2 = '' OR status = $2)
		   AND ($3::timestamptz IS NULL OR created_at >= $3)
		   AND ($4::timestamptz IS NULL OR created_at <= $4)
		 ORDER BY created_at DESC
		 LIMIT $5`,
		tenantID, string(f.Status), timeArg(f.From), timeArg(f.To), limit)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []payment.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return nonNil(payments), nil
}

// GetPaymentByExternalID returns the payment with the given external id.
func (s *Store) GetPaymentByExternalID(ctx context.Context, externalID string) (*payment.Payment, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE external_payment_id = $1`, externalID)
	p, err := scanPayment(row)
	if err != nil {
		return nil, wrapLookup(err, "get payment "+externalID)
	}
	return &p, nil
}

func scanPayment(row rowScanner) (payment.Payment, error) {
	var (
		p      payment.Payment
		value  string
		status string
	)
	err := row.Scan(&p.ID, &p.TenantID, &p.ExternalPaymentID, &p.CustomerName, &p.CustomerPhone,
		&value, &status, &p.DueDate, &p.PaymentDate, &p.DispatchDate,
		&p.MessageSent, &p.LastSyncDate, &p.Description, &p.ConversionTimeHours,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return p, err
	}
	p.Status = payment.Status(status)
	p.Value, err = decimal.NewFromString(value)
	if err != nil {
		return p, fmt.Errorf("scan payment %s value %q: %w", p.ExternalPaymentID, value, err)
	}
	return p, nil
}
