package messagequeue

import (
	"encoding/json"
	"fmt"
)

// Validate checks whether data is valid JSON conforming to the schema
// associated with the given subject. Unknown subjects only need valid JSON.
func Validate(subject string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON on subject %s", subject)
	}

	switch subject {
	case SubjectPaymentUpserted:
		var p PaymentUpsertedPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("schema validation failed for %s: %w", subject, err)
		}
		if p.EventID == "" || p.TenantID == "" || p.ExternalPaymentID == "" {
			return fmt.Errorf("schema validation failed for %s: event_id, tenant_id and external_payment_id are required", subject)
		}
	}
	return nil
}
