// Package secrets holds rotatable credentials with hot reload support.
package secrets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Keys of the webhook credentials, named after their environment variables.
const (
	KeyWebhookToken  = "SCHOOLPAY_WEBHOOK_TOKEN"
	KeyWebhookSecret = "SCHOOLPAY_WEBHOOK_SECRET" //nolint:gosec // key name, not a secret
)

// Loader retrieves secrets from a source.
type Loader func() (map[string]string, error)

// Vault holds secret values in memory and supports atomic reloading.
type Vault struct {
	mu     sync.RWMutex
	values map[string]string
	loader Loader
}

// NewVault creates a Vault, calling the loader once to populate initial values.
func NewVault(loader Loader) (*Vault, error) {
	vals, err := loader()
	if err != nil {
		return nil, fmt.Errorf("initial secret load: %w", err)
	}
	return &Vault{
		values: vals,
		loader: loader,
	}, nil
}

// Get returns the secret for key, or an empty string if not found.
func (v *Vault) Get(key string) string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.values[key]
}

// Getter binds key, for callers that read one credential per request.
func (v *Vault) Getter(key string) func() string {
	return func() string { return v.Get(key) }
}

// Reload calls the loader and swaps in the new values atomically.
// If the loader returns an error, existing values are preserved.
func (v *Vault) Reload() error {
	newVals, err := v.loader()
	if err != nil {
		return fmt.Errorf("reload secrets: %w", err)
	}
	v.mu.Lock()
	v.values = newVals
	v.mu.Unlock()
	return nil
}

// Redacted returns a masked form of the secret for logs: the first two
// characters followed by "****", or "****" alone for short values.
func (v *Vault) Redacted(key string) string {
	val := v.Get(key)
	switch {
	case val == "":
		return ""
	case len(val) <= 4:
		return "****"
	default:
		return val[:2] + "****"
	}
}

// ReloadOnSIGHUP reloads the vault each time the process receives SIGHUP,
// until ctx is done.
func (v *Vault) ReloadOnSIGHUP(ctx context.Context) error {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP)
	defer signal.Stop(sig)
	return v.ReloadOn(ctx, sig)
}

// ReloadOn reloads the vault on every receive from trigger until ctx is
// done. A failed reload is logged and the old values stay.
func (v *Vault) ReloadOn(ctx context.Context, trigger <-chan os.Signal) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-trigger:
			if err := v.Reload(); err != nil {
				slog.Error("secret reload failed, keeping previous values", "error", err)
				continue
			}
			slog.Info("secrets reloaded",
				"webhook_token", v.Redacted(KeyWebhookToken),
				"webhook_secret", v.Redacted(KeyWebhookSecret),
			)
		}
	}
}
