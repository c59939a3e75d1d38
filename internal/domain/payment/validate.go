package payment

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Strob0t/SchoolPay/internal/domain"
)

// ErrEmptyBatch is returned by DecodeBatch for an empty JSON array.
var ErrEmptyBatch = fmt.Errorf("%w: no items sent", domain.ErrValidation)

// Item is one raw payment object as decoded from the webhook body.
// Numbers are kept as json.Number so identifiers and amounts survive intact.
type Item map[string]any

// Field names on the wire. The legacy n8n workflows send the school_id and
// asaas_payment_id aliases; the canonical name wins when both are present.
const (
	FieldTenantID          = "tenant_id"
	FieldExternalPaymentID = "external_payment_id"
	FieldCustomerName      = "customer_name"
	FieldValue             = "value"

	aliasTenantID          = "school_id"
	aliasExternalPaymentID = "asaas_payment_id"
)

// lookup returns the first key present in the item.
func (it Item) lookup(keys ...string) any {
	for _, k := range keys {
		if v, ok := it[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// ItemError describes every problem found on one batch item.
type ItemError struct {
	Index    int
	Problems []string
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("Item %d: %s", e.Index, strings.Join(e.Problems, ", "))
}

func (e *ItemError) Unwrap() error { return domain.ErrValidation }

// DecodeBatch parses a webhook body that is either a single payment object
// or an array of them. Array elements that are not objects decode as empty
// items and fail validation on their own.
func DecodeBatch(body []byte) ([]Item, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var root any
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON body", domain.ErrValidation)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after JSON body", domain.ErrValidation)
	}

	switch v := root.(type) {
	case map[string]any:
		return []Item{v}, nil
	case []any:
		if len(v) == 0 {
			return nil, ErrEmptyBatch
		}
		items := make([]Item, len(v))
		for i, el := range v {
			if obj, ok := el.(map[string]any); ok {
				items[i] = obj
			} else {
				items[i] = Item{}
			}
		}
		return items, nil
	default:
		return nil, fmt.Errorf("%w: body must be a JSON object or array", domain.ErrValidation)
	}
}

// Validate checks the required fields of item and builds the normalized
// record. All missing fields are reported together; a rejected item yields
// no record at all. now stamps LastSyncDate and backs a missing due date.
func Validate(item Item, index int, now time.Time) (*Payment, error) {
	tenantID := item.lookup(FieldTenantID, aliasTenantID)
	externalID := item.lookup(FieldExternalPaymentID, aliasExternalPaymentID)
	rawValue := item.lookup(FieldValue)
	customerName := item.lookup(FieldCustomerName)

	var problems []string
	if !truthy(tenantID) {
		problems = append(problems, FieldTenantID+" is required")
	}
	if !truthy(externalID) {
		problems = append(problems, FieldExternalPaymentID+" is required")
	}
	if rawValue == nil {
		problems = append(problems, FieldValue+" is required")
	}
	if !truthy(customerName) {
		problems = append(problems, FieldCustomerName+" is required")
	}
	if len(problems) > 0 {
		return nil, &ItemError{Index: index, Problems: problems}
	}

	value, ok := toDecimal(rawValue)
	if !ok {
		return nil, &ItemError{Index: index, Problems: []string{FieldValue + " must be numeric"}}
	}

	dueDate, ok := ParseDate(item["due_date"])
	if !ok {
		dueDate = now.UTC().Format(time.DateOnly)
	}

	p := &Payment{
		TenantID:          stringify(tenantID),
		ExternalPaymentID: stringify(externalID),
		CustomerName:      stringify(customerName),
		CustomerPhone:     optionalString(item["customer_phone"]),
		Value:             value,
		Status:            NormalizeStatus(statusToken(item["status"])),
		DueDate:           dueDate,
		PaymentDate:       optionalDate(item["payment_date"]),
		DispatchDate:      optionalDate(item["dispatch_date"]),
		MessageSent:       isTrue(item["message_sent"]),
		LastSyncDate:      now,
		Description:       optionalString(item["description"]),
	}
	return p, nil
}

// truthy treats absent, null, empty strings, false and zero as missing.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case json.Number:
		f, err := x.Float64()
		return err != nil || f != 0
	default:
		return true
	}
}

func isTrue(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		return x == "true"
	default:
		return false
	}
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case nil:
		return ""
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}

func statusToken(v any) string {
	if v == nil {
		return ""
	}
	return stringify(v)
}

func optionalString(v any) *string {
	if !truthy(v) {
		return nil
	}
	s := stringify(v)
	return &s
}

func optionalDate(v any) *string {
	s, ok := ParseDate(v)
	if !ok {
		return nil
	}
	return &s
}

func toDecimal(v any) (decimal.Decimal, bool) {
	var s string
	switch x := v.(type) {
	case json.Number:
		s = x.String()
	case string:
		s = strings.TrimSpace(x)
	default:
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
