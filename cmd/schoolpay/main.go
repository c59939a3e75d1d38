package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	sphttp "github.com/Strob0t/SchoolPay/internal/adapter/http"
	spnats "github.com/Strob0t/SchoolPay/internal/adapter/nats"
	"github.com/Strob0t/SchoolPay/internal/adapter/natskv"
	spotel "github.com/Strob0t/SchoolPay/internal/adapter/otel"
	"github.com/Strob0t/SchoolPay/internal/adapter/postgres"
	"github.com/Strob0t/SchoolPay/internal/adapter/ristretto"
	"github.com/Strob0t/SchoolPay/internal/adapter/tiered"
	"github.com/Strob0t/SchoolPay/internal/config"
	"github.com/Strob0t/SchoolPay/internal/logger"
	"github.com/Strob0t/SchoolPay/internal/middleware"
	"github.com/Strob0t/SchoolPay/internal/port/cache"
	"github.com/Strob0t/SchoolPay/internal/port/messagequeue"
	"github.com/Strob0t/SchoolPay/internal/resilience"
	"github.com/Strob0t/SchoolPay/internal/secrets"
	"github.com/Strob0t/SchoolPay/internal/service"
)

const (
	requestTimeout   = 30 * time.Second
	l1IdempotencyTTL = 10 * time.Minute
	otelFlushTimeout = 5 * time.Second
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if err := run(os.Args[1:]); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) > 0 {
		switch args[0] {
		case "serve":
			return serve(args[1:])
		case "migrate":
			return runMigrate(args[1:])
		case "tenants":
			return runTenants(args[1:])
		case "help", "-h", "--help":
			printUsage()
			return nil
		}
	}
	return serve(args)
}

func printUsage() {
	fmt.Fprint(os.Stderr, `Usage: schoolpay [command] [options]

Commands:
  serve            Run the HTTP server (default)
  migrate          Apply, roll back or inspect database migrations
  tenants          List or create tenants
  help             Show this help message

Serve options:
  -c, -config      Path to YAML config (default schoolpay.yaml)
  -p, -port        HTTP port
  -log-level       debug, info, warn or error
  -dsn             PostgreSQL DSN
  -nats-url        NATS URL (empty disables events and the L2 cache)
`)
}

func serve(args []string) error {
	flags, err := config.ParseFlags(args)
	if err != nil {
		return err
	}
	cfg, cfgPath, err := config.LoadWithCLI(flags)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logCloser := logger.New(cfg.Logging)
	defer logCloser.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"config_file", cfgPath,
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"pg_max_conns", cfg.Postgres.MaxConns,
		"nats_enabled", cfg.NATS.URL != "",
		"otel_enabled", cfg.OTEL.Endpoint != "",
		"webhook_token", cfg.Webhook.Token != "",
		"webhook_hmac", cfg.Webhook.Secret != "",
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Telemetry ---

	shutdownOTEL, err := spotel.Setup(ctx, cfg.OTEL, cfg.Logging.Service)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), otelFlushTimeout)
		defer cancel()
		if err := shutdownOTEL(flushCtx); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	}()

	metrics, err := spotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("otel metrics: %w", err)
	}

	// --- Infrastructure ---

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	l1, err := ristretto.New(cfg.Cache.L1MaxSizeMB)
	if err != nil {
		return fmt.Errorf("l1 cache: %w", err)
	}
	defer l1.Close()

	var (
		queue       messagequeue.Queue = messagequeue.Noop{}
		idempotency cache.Cache        = l1
	)
	if cfg.NATS.URL != "" {
		nq, err := spnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() {
			if err := nq.Drain(); err != nil {
				slog.Warn("nats drain", "error", err)
			}
		}()
		queue = nq

		kv, err := natskv.Open(ctx, nq.JetStream(), cfg.NATS.KVBucket, cfg.Cache.IdempotencyTTL)
		if err != nil {
			return fmt.Errorf("nats kv: %w", err)
		}
		idempotency = tiered.New(l1, kv, l1IdempotencyTTL)
		slog.Info("nats connected", "kv_bucket", cfg.NATS.KVBucket)
	} else {
		slog.Info("nats disabled, payment events are not published")
	}

	// --- Services ---

	store := postgres.NewStore(pool)
	breaker := resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout,
		resilience.WithName("postgres"),
		resilience.WithFailureFilter(postgres.IsOutage),
	)
	tenantSvc := service.NewTenantService(store, l1, cfg.Cache.TenantTTL)
	ingestSvc := service.NewIngestService(store, tenantSvc, queue, breaker, metrics)
	paymentSvc := service.NewPaymentService(store)

	// --- HTTP ---

	handlers := &sphttp.Handlers{
		Ingest:   ingestSvc,
		Payments: paymentSvc,
		Postgres: store,
	}

	limiter := middleware.NewRateLimiter(cfg.Rate)

	var credentials *secrets.Vault
	if cfg.Webhook.SecretsFile != "" {
		credentials, err = secrets.NewVault(secrets.FileLoader(cfg.Webhook.SecretsFile,
			secrets.KeyWebhookToken, secrets.KeyWebhookSecret))
		if err != nil {
			return fmt.Errorf("webhook secrets: %w", err)
		}
		slog.Info("webhook credentials loaded from file", "path", cfg.Webhook.SecretsFile,
			"webhook_token", credentials.Redacted(secrets.KeyWebhookToken))
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(sphttp.Logger)
	r.Use(chimw.Recoverer)
	r.Use(spotel.HTTPMiddleware(cfg.Logging.Service))
	r.Use(sphttp.SecurityHeaders)
	r.Use(sphttp.CORS(cfg.Server.CORSOrigin))
	r.Use(chimw.Timeout(requestTimeout))

	sphttp.MountRoutes(r, handlers, sphttp.RouteOptions{
		Webhook:        cfg.Webhook,
		Credentials:    credentials,
		Limiter:        limiter,
		Idempotency:    idempotency,
		IdempotencyTTL: cfg.Cache.IdempotencyTTL,
	})

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return limiter.Run(gctx)
	})
	if credentials != nil {
		g.Go(func() error {
			return credentials.ReloadOnSIGHUP(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
