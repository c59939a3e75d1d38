package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the YAML file read when no --config flag is given.
const DefaultConfigFile = "schoolpay.yaml"

// DefaultEnvFiles are dotenv files merged into the process environment
// before the env overlay. Variables already set in the process win.
var DefaultEnvFiles = []string{".env.local", ".env"}

// Load reads dotenv files and DefaultConfigFile and returns the merged
// configuration (defaults < YAML < ENV).
func Load() (*Config, error) {
	if err := loadDotenv(DefaultEnvFiles...); err != nil {
		return nil, fmt.Errorf("config dotenv: %w", err)
	}
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom is Load without the dotenv step and with an explicit YAML path.
// A missing YAML file is not an error.
func LoadFrom(yamlPath string) (*Config, error) {
	return build(yamlPath, CLIFlags{})
}

// build layers YAML, ENV and CLI over Defaults and validates the result.
func build(yamlPath string, flags CLIFlags) (*Config, error) {
	cfg := Defaults()
	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}
	loadEnv(&cfg)
	applyCLI(&cfg, flags)
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}
	return &cfg, nil
}

func loadDotenv(paths ...string) error {
	for _, p := range paths {
		_, err := os.Stat(p)
		switch {
		case errors.Is(err, os.ErrNotExist):
			continue
		case err != nil:
			return fmt.Errorf("stat %s: %w", p, err)
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// envBinding maps one environment variable onto a config field.
type envBinding struct {
	key string
	set func(string) error
}

func envBindings(cfg *Config) []envBinding {
	return []envBinding{
		{"SCHOOLPAY_PORT", asString(&cfg.Server.Port)},
		{"SCHOOLPAY_CORS_ORIGIN", asString(&cfg.Server.CORSOrigin)},
		{"SCHOOLPAY_READ_TIMEOUT", asDuration(&cfg.Server.ReadTimeout)},
		{"SCHOOLPAY_WRITE_TIMEOUT", asDuration(&cfg.Server.WriteTimeout)},
		{"SCHOOLPAY_SHUTDOWN_TIMEOUT", asDuration(&cfg.Server.ShutdownTimeout)},

		{"DATABASE_URL", asString(&cfg.Postgres.DSN)},
		{"SCHOOLPAY_PG_MAX_CONNS", asInt(&cfg.Postgres.MaxConns)},
		{"SCHOOLPAY_PG_MIN_CONNS", asInt(&cfg.Postgres.MinConns)},
		{"SCHOOLPAY_PG_MAX_CONN_LIFETIME", asDuration(&cfg.Postgres.MaxConnLifetime)},
		{"SCHOOLPAY_PG_MAX_CONN_IDLE_TIME", asDuration(&cfg.Postgres.MaxConnIdleTime)},
		{"SCHOOLPAY_PG_HEALTH_CHECK", asDuration(&cfg.Postgres.HealthCheck)},

		{"NATS_URL", asString(&cfg.NATS.URL)},
		{"SCHOOLPAY_NATS_KV_BUCKET", asString(&cfg.NATS.KVBucket)},

		{"SCHOOLPAY_LOG_LEVEL", asString(&cfg.Logging.Level)},
		{"SCHOOLPAY_LOG_SERVICE", asString(&cfg.Logging.Service)},
		{"SCHOOLPAY_LOG_ASYNC", asBool(&cfg.Logging.Async)},

		{"SCHOOLPAY_BREAKER_MAX_FAILURES", asInt(&cfg.Breaker.MaxFailures)},
		{"SCHOOLPAY_BREAKER_TIMEOUT", asDuration(&cfg.Breaker.Timeout)},

		{"SCHOOLPAY_RATE_RPS", asFloat(&cfg.Rate.RequestsPerSecond)},
		{"SCHOOLPAY_RATE_BURST", asInt(&cfg.Rate.Burst)},
		{"SCHOOLPAY_RATE_CLEANUP_INTERVAL", asDuration(&cfg.Rate.CleanupInterval)},
		{"SCHOOLPAY_RATE_MAX_IDLE_TIME", asDuration(&cfg.Rate.MaxIdleTime)},

		{"SCHOOLPAY_WEBHOOK_TOKEN", asString(&cfg.Webhook.Token)},
		{"SCHOOLPAY_WEBHOOK_SECRET", asString(&cfg.Webhook.Secret)},
		{"SCHOOLPAY_WEBHOOK_SECRETS_FILE", asString(&cfg.Webhook.SecretsFile)},
		{"SCHOOLPAY_WEBHOOK_MAX_BODY_BYTES", asInt(&cfg.Webhook.MaxBodyBytes)},

		{"SCHOOLPAY_CACHE_L1_SIZE_MB", asInt(&cfg.Cache.L1MaxSizeMB)},
		{"SCHOOLPAY_CACHE_TENANT_TTL", asDuration(&cfg.Cache.TenantTTL)},
		{"SCHOOLPAY_IDEMPOTENCY_TTL", asDuration(&cfg.Cache.IdempotencyTTL)},

		{"OTEL_EXPORTER_OTLP_ENDPOINT", asString(&cfg.OTEL.Endpoint)},
		{"OTEL_EXPORTER_OTLP_INSECURE", asBool(&cfg.OTEL.Insecure)},
	}
}

// loadEnv applies every non-empty bound variable. Values that fail to
// parse leave the field unchanged.
func loadEnv(cfg *Config) {
	for _, b := range envBindings(cfg) {
		v := os.Getenv(b.key)
		if v == "" {
			continue
		}
		_ = b.set(v)
	}
}

func validate(cfg *Config) error {
	switch {
	case cfg.Server.Port == "":
		return errors.New("server.port is required")
	case cfg.Postgres.DSN == "":
		return errors.New("postgres.dsn is required")
	case cfg.Postgres.MaxConns < 1:
		return errors.New("postgres.max_conns must be >= 1")
	case cfg.Breaker.MaxFailures < 1:
		return errors.New("breaker.max_failures must be >= 1")
	case cfg.Rate.RequestsPerSecond > 0 && cfg.Rate.Burst < 1:
		return errors.New("rate.burst must be >= 1")
	case cfg.Webhook.MaxBodyBytes < 1:
		return errors.New("webhook.max_body_bytes must be >= 1")
	case cfg.Cache.L1MaxSizeMB < 1:
		return errors.New("cache.l1_max_size_mb must be >= 1")
	}
	return nil
}

func asString(dst *string) func(string) error {
	return func(v string) error { *dst = v; return nil }
}

func asInt[T int | int32 | int64](dst *T) func(string) error {
	return func(v string) error {
		var zero T
		n, err := strconv.ParseInt(v, 10, bitSize(zero))
		if err != nil {
			return err
		}
		*dst = T(n)
		return nil
	}
}

func bitSize(v any) int {
	if _, ok := v.(int32); ok {
		return 32
	}
	return 64
}

func asFloat(dst *float64) func(string) error {
	return func(v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			*dst = f
		}
		return err
	}
}

func asBool(dst *bool) func(string) error {
	return func(v string) error {
		b, err := strconv.ParseBool(v)
		if err == nil {
			*dst = b
		}
		return err
	}
}

func asDuration(dst *time.Duration) func(string) error {
	return func(v string) error {
		d, err := time.ParseDuration(v)
		if err == nil {
			*dst = d
		}
		return err
	}
}
