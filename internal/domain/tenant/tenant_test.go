package tenant

import (
	"errors"
	"testing"

	"github.com/Strob0t/SchoolPay/internal/domain"
)

func TestCreateRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateRequest
		wantErr bool
	}{
		{"valid", CreateRequest{Name: "Escola Alfa", Slug: "escola-alfa"}, false},
		{"digits", CreateRequest{Name: "Colegio 2", Slug: "colegio-2"}, false},
		{"missing name", CreateRequest{Name: "  ", Slug: "x"}, true},
		{"missing slug", CreateRequest{Name: "X"}, true},
		{"uppercase slug", CreateRequest{Name: "X", Slug: "Escola"}, true},
		{"trailing dash", CreateRequest{Name: "X", Slug: "escola-"}, true},
		{"spaces", CreateRequest{Name: "X", Slug: "escola alfa"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}
