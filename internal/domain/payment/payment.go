// Package payment defines the payment record ingested from the n8n/Asaas
// automation and the rules that normalize its free-form fields.
package payment

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the canonical payment status.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusReceived  Status = "RECEIVED"
	StatusOverdue   Status = "OVERDUE"
	StatusRefunded  Status = "REFUNDED"
	StatusCancelled Status = "CANCELLED"
)

// statusAliases maps upstream vocabulary (English and Portuguese) to canonical statuses.
var statusAliases = map[string]Status{
	"PAGO":      StatusReceived,
	"RECEBIDO":  StatusReceived,
	"RECEIVED":  StatusReceived,
	"CONFIRMED": StatusReceived,
	"PENDENTE":  StatusPending,
	"PENDING":   StatusPending,
	"OVERDUE":   StatusOverdue,
	"VENCIDO":   StatusOverdue,
	"VENCIDA":   StatusOverdue,
	"REFUNDED":  StatusRefunded,
	"ESTORNADO": StatusRefunded,
	"CANCELLED": StatusCancelled,
	"CANCELADO": StatusCancelled,
	"CANCELADA": StatusCancelled,
}

// NormalizeStatus maps a raw status token to its canonical form.
// Blank input is PENDING. Unknown tokens pass through uppercased.
func NormalizeStatus(raw string) Status {
	upper := strings.ToUpper(strings.TrimSpace(raw))
	if upper == "" {
		return StatusPending
	}
	if s, ok := statusAliases[upper]; ok {
		return s
	}
	return Status(upper)
}

// Payment is a normalized payment record keyed by ExternalPaymentID.
//
// DueDate, PaymentDate and DispatchDate hold ISO-8601 strings exactly as the
// date parser produced them; see ParseDate.
type Payment struct {
	ID                  string          `json:"id,omitempty"`
	TenantID            string          `json:"tenant_id"`
	ExternalPaymentID   string          `json:"external_payment_id"`
	CustomerName        string          `json:"customer_name"`
	CustomerPhone       *string         `json:"customer_phone"`
	Value               decimal.Decimal `json:"value"`
	Status              Status          `json:"status"`
	DueDate             string          `json:"due_date"`
	PaymentDate         *string         `json:"payment_date"`
	DispatchDate        *string         `json:"dispatch_date"`
	MessageSent         bool            `json:"message_sent"`
	LastSyncDate        time.Time       `json:"last_sync_date"`
	Description         *string         `json:"description"`
	ConversionTimeHours *float64        `json:"conversion_time_hours,omitempty"`
	CreatedAt           time.Time       `json:"created_at,omitzero"`
	UpdatedAt           time.Time       `json:"updated_at,omitzero"`
}

// ListFilter narrows a tenant's payment listing.
type ListFilter struct {
	Status Status
	From   time.Time
	To     time.Time
	Limit  int
}

// UpsertedEvent is published after a payment is written.
type UpsertedEvent struct {
	EventID           string          `json:"event_id"`
	TenantID          string          `json:"tenant_id"`
	ExternalPaymentID string          `json:"external_payment_id"`
	Status            Status          `json:"status"`
	Value             decimal.Decimal `json:"value"`
	MessageSent       bool            `json:"message_sent"`
	SyncedAt          time.Time       `json:"synced_at"`
}
