// Package tenant defines the tenant (school) that owns payment records.
package tenant

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Strob0t/SchoolPay/internal/domain"
)

// Tenant is a school whose payments are ingested and reported.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateRequest holds the fields required to register a tenant.
type CreateRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Validate checks that the request carries a name and a lowercase,
// dash-separated slug.
func (r CreateRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if !slugPattern.MatchString(r.Slug) {
		return fmt.Errorf("%w: slug %q must be lowercase letters, digits and dashes", domain.ErrValidation, r.Slug)
	}
	return nil
}
