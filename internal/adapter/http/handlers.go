package http

import (
	"context"
	"io"
	"net/http"

	"github.com/Strob0t/SchoolPay/internal/domain/payment"
	"github.com/Strob0t/SchoolPay/internal/logger"
	"github.com/Strob0t/SchoolPay/internal/middleware"
	"github.com/Strob0t/SchoolPay/internal/service"
)

// Version is reported by GET /api/v1/.
const Version = "1.0.0"

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers holds the HTTP handlers and their service dependencies.
type Handlers struct {
	Ingest   *service.IngestService
	Payments *service.PaymentService
	Postgres Pinger
}

// HandlePaymentWebhook handles POST /api/webhook and POST /api/v1/webhooks/payments.
func (h *Handlers) HandlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeDomainError(w, r, err, "")
		return
	}

	items, err := payment.DecodeBatch(body)
	if err != nil {
		writeDomainError(w, r, err, "")
		return
	}

	res, err := h.Ingest.Ingest(r.Context(), items)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	if len(res.Errors) > 0 {
		logger.From(r.Context()).Warn("payment batch had rejected items",
			"received", res.Received,
			"inserted", res.Inserted,
			"errors", res.Errors,
		)
	}
	writeJSON(w, res.StatusCode(), res)
}

// ListPayments handles GET /api/v1/payments
func (h *Handlers) ListPayments(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeDomainError(w, r, err, "")
		return
	}
	filter := payment.ListFilter{
		Status: payment.Status(r.URL.Query().Get("status")),
		Limit:  limit,
	}
	if filter.From, err = queryTime(r, "from"); err != nil {
		writeDomainError(w, r, err, "")
		return
	}
	if filter.To, err = queryTime(r, "to"); err != nil {
		writeDomainError(w, r, err, "")
		return
	}

	payments, err := h.Payments.List(r.Context(), middleware.TenantIDFromContext(r.Context()), filter)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	if payments == nil {
		payments = []payment.Payment{}
	}
	writeJSON(w, http.StatusOK, payments)
}

// DashboardSummary handles GET /api/v1/dashboard/summary
func (h *Handlers) DashboardSummary(w http.ResponseWriter, r *http.Request) {
	from, err := queryTime(r, "from")
	if err != nil {
		writeDomainError(w, r, err, "")
		return
	}
	to, err := queryTime(r, "to")
	if err != nil {
		writeDomainError(w, r, err, "")
		return
	}

	summary, err := h.Payments.Summary(r.Context(), middleware.TenantIDFromContext(r.Context()), from, to)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type healthStatus struct {
	Status   string `json:"status"`
	Postgres string `json:"postgres"`
}

// Health handles GET /health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Postgres.Ping(r.Context()); err != nil {
		logger.From(r.Context()).Warn("health check: postgres unreachable", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, healthStatus{Status: "degraded", Postgres: "unreachable"})
		return
	}
	writeJSON(w, http.StatusOK, healthStatus{Status: "ok", Postgres: "ok"})
}
