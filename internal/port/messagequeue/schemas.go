package messagequeue

// PaymentUpsertedPayload is the schema for payments.upserted messages.
type PaymentUpsertedPayload struct {
	EventID           string `json:"event_id"`
	TenantID          string `json:"tenant_id"`
	ExternalPaymentID string `json:"external_payment_id"`
	Status            string `json:"status"`
	Value             string `json:"value"`
	MessageSent       bool   `json:"message_sent"`
	SyncedAt          string `json:"synced_at"`
}
