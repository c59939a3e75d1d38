package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/SchoolPay/internal/config"
	"github.com/Strob0t/SchoolPay/internal/middleware"
	"github.com/Strob0t/SchoolPay/internal/port/cache"
	"github.com/Strob0t/SchoolPay/internal/secrets"
)

// LegacyWebhookSunset is announced on POST /api/webhook.
var LegacyWebhookSunset = time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC)

const paymentWebhookPath = "/api/v1/webhooks/payments"

// RouteOptions carries the guards applied to the webhook routes.
type RouteOptions struct {
	Webhook        config.Webhook
	Credentials    *secrets.Vault // overrides Webhook.Token and Webhook.Secret when set
	Limiter        *middleware.RateLimiter // nil disables rate limiting
	Idempotency    cache.Cache             // nil disables Idempotency-Key replay
	IdempotencyTTL time.Duration
}

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers, opts RouteOptions) {
	r.Get("/health", h.Health)

	webhook := webhookGuards(opts)

	// Original n8n target, kept for workflows that have not moved yet.
	r.With(middleware.Deprecation(paymentWebhookPath, LegacyWebhookSunset)).
		With(webhook...).
		Post("/api/webhook", h.HandlePaymentWebhook)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"version": Version})
		})

		r.With(webhook...).Post("/webhooks/payments", h.HandlePaymentWebhook)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireTenant)
			r.Get("/payments", h.ListPayments)
			r.Get("/dashboard/summary", h.DashboardSummary)
		})
	})
}

// webhookGuards orders the ingestion middleware: cheap rejections first,
// then body-reading checks, then replay.
func webhookGuards(opts RouteOptions) []func(http.Handler) http.Handler {
	var mw []func(http.Handler) http.Handler
	if opts.Limiter != nil && opts.Limiter.Enabled() {
		mw = append(mw, opts.Limiter.Handler)
	}
	if opts.Webhook.MaxBodyBytes > 0 {
		mw = append(mw, middleware.MaxBody(opts.Webhook.MaxBodyBytes))
	}
	token, secret := middleware.Static(opts.Webhook.Token), middleware.Static(opts.Webhook.Secret)
	if opts.Credentials != nil {
		token = opts.Credentials.Getter(secrets.KeyWebhookToken)
		secret = opts.Credentials.Getter(secrets.KeyWebhookSecret)
	}
	mw = append(mw,
		middleware.WebhookToken(token, middleware.HeaderWebhookToken),
		middleware.WebhookHMAC(secret, middleware.HeaderSignature),
	)
	if opts.Idempotency != nil && opts.IdempotencyTTL > 0 {
		mw = append(mw, middleware.Idempotency(opts.Idempotency, opts.IdempotencyTTL))
	}
	return mw
}
