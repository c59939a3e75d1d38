package postgres

import (
	"context"
	"fmt"

	"github.com/Strob0t/SchoolPay/internal/domain/tenant"
)

// --- Tenants ---

// ExistingTenantIDs returns the subset of ids that exist. Ids are compared
// as text so malformed UUIDs simply do not match.
func (s *Store) ExistingTenantIDs(ctx context.Context, ids []string) ([]string, error) {
	ids = distinctIDs(ids)
	if len(ids) == 0 {
		return ids, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id::text FROM tenants WHERE id::text = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("lookup tenants: %w", err)
	}
	defer rows.Close()

	found := make([]string, 0, len(ids))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan tenant id: %w", err)
		}
		found = append(found, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("lookup tenants: %w", err)
	}
	return found, nil
}

func (s *Store) CreateTenant(ctx context.Context, req tenant.CreateRequest) (*tenant.Tenant, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO tenants (name, slug) VALUES ($1, $2)
		 RETURNING id::text, name, slug, enabled, created_at, updated_at`,
		req.Name, req.Slug)
	t, err := scanTenant(row)
	if err != nil {
		return nil, wrapInsert(err, "create tenant "+req.Slug)
	}
	return &t, nil
}

func (s *Store) GetTenantBySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id::text, name, slug, enabled, created_at, updated_at
		 FROM tenants WHERE slug = $1`, slug)
	t, err := scanTenant(row)
	if err != nil {
		return nil, wrapLookup(err, "get tenant "+slug)
	}
	return &t, nil
}

func (s *Store) ListTenants(ctx context.Context) ([]tenant.Tenant, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, name, slug, enabled, created_at, updated_at
		 FROM tenants ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []tenant.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		tenants = append(tenants, t)
	}
	return nonNil(tenants), rows.Err()
}

func scanTenant(row rowScanner) (tenant.Tenant, error) {
	var t tenant.Tenant
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.Enabled, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}
