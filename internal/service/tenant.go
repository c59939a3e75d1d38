package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Strob0t/SchoolPay/internal/domain/tenant"
	"github.com/Strob0t/SchoolPay/internal/port/cache"
	"github.com/Strob0t/SchoolPay/internal/port/database"
)

const tenantCachePrefix = "tenant:"

// TenantService manages tenants and answers the batch existence check.
type TenantService struct {
	store database.Store
	cache cache.Cache
	ttl   time.Duration
}

// NewTenantService creates a new TenantService. A nil cache or a zero ttl
// disables lookup caching.
func NewTenantService(store database.Store, c cache.Cache, ttl time.Duration) *TenantService {
	return &TenantService{store: store, cache: c, ttl: ttl}
}

// Create validates and creates a new tenant.
func (s *TenantService) Create(ctx context.Context, req tenant.CreateRequest) (*tenant.Tenant, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.store.CreateTenant(ctx, req)
}

// List returns all tenants.
func (s *TenantService) List(ctx context.Context) ([]tenant.Tenant, error) {
	return s.store.ListTenants(ctx)
}

// Existing returns the subset of ids that reference a tenant, as a set.
// Ids already known to exist are served from the cache; the rest are
// resolved in a single store call. Unknown ids are never cached.
func (s *TenantService) Existing(ctx context.Context, ids []string) (map[string]bool, error) {
	found := make(map[string]bool, len(ids))
	var misses []string
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		if s.cached(ctx, id) {
			found[id] = true
			continue
		}
		misses = append(misses, id)
	}
	if len(misses) == 0 {
		return found, nil
	}

	existing, err := s.store.ExistingTenantIDs(ctx, misses)
	if err != nil {
		return nil, fmt.Errorf("tenant lookup: %w", err)
	}
	for _, id := range existing {
		found[id] = true
		s.remember(ctx, id)
	}
	return found, nil
}

func (s *TenantService) cachingEnabled() bool {
	return s.cache != nil && s.ttl > 0
}

func (s *TenantService) cached(ctx context.Context, id string) bool {
	if !s.cachingEnabled() {
		return false
	}
	_, ok, err := s.cache.Get(ctx, tenantCachePrefix+id)
	if err != nil {
		slog.Warn("tenant cache get failed", "tenant_id", id, "error", err)
		return false
	}
	return ok
}

func (s *TenantService) remember(ctx context.Context, id string) {
	if !s.cachingEnabled() {
		return
	}
	if err := s.cache.Set(ctx, tenantCachePrefix+id, []byte{1}, s.ttl); err != nil {
		slog.Warn("tenant cache set failed", "tenant_id", id, "error", err)
	}
}
