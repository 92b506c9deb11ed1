package access_test

import (
	"errors"
	"testing"

	"github.com/agronova-labs/agronova/internal/access"
	"github.com/agronova-labs/agronova/internal/catalog"
)

func listedProduct(owner string) *catalog.Product {
	return &catalog.Product{ID: "AGR-1001", Owner: owner, Status: catalog.StatusListed}
}

func TestAuthorize_roleMatrix(t *testing.T) {
	tests := []struct {
		name    string
		actorID string
		role    access.Role
		op      access.Operation
		product *catalog.Product
		allowed bool
	}{
		{"farmer lists own produce", "F-001", access.RoleFarmer, access.OpListProduct, listedProduct("F-001"), true},
		{"farmer lists someone else's produce", "F-001", access.RoleFarmer, access.OpListProduct, listedProduct("F-002"), false},
		{"broker cannot list", "B-001", access.RoleBroker, access.OpListProduct, listedProduct("B-001"), false},
		{"consumer cannot list", "C-001", access.RoleConsumer, access.OpListProduct, listedProduct("C-001"), false},
		{"admin cannot list", "ADM-001", access.RoleAdmin, access.OpListProduct, listedProduct("ADM-001"), false},

		{"broker orders listed product", "B-001", access.RoleBroker, access.OpOrderProduct, listedProduct("F-001"), true},
		{"farmer cannot order", "F-001", access.RoleFarmer, access.OpOrderProduct, listedProduct("F-002"), false},
		{"consumer cannot order", "C-001", access.RoleConsumer, access.OpOrderProduct, listedProduct("F-001"), false},

		{"everyone reads: farmer", "F-001", access.RoleFarmer, access.OpRead, nil, true},
		{"everyone reads: consumer", "C-001", access.RoleConsumer, access.OpRead, nil, true},
		{"everyone reads: admin", "ADM-001", access.RoleAdmin, access.OpRead, nil, true},

		{"admin resets", "ADM-001", access.RoleAdmin, access.OpResetLedger, nil, true},
		{"farmer cannot reset", "F-001", access.RoleFarmer, access.OpResetLedger, nil, false},
		{"broker cannot reset", "B-001", access.RoleBroker, access.OpResetLedger, nil, false},
		{"consumer cannot reset", "C-001", access.RoleConsumer, access.OpResetLedger, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := access.Authorize(tt.actorID, tt.role, tt.op, tt.product)
			if tt.allowed && err != nil {
				t.Errorf("expected allow, got %v", err)
			}
			if !tt.allowed {
				var denied *access.DeniedError
				if !errors.As(err, &denied) {
					t.Errorf("expected *DeniedError, got %v", err)
				}
			}
		})
	}
}

func TestAuthorize_orderSoldProductDenied(t *testing.T) {
	sold := &catalog.Product{ID: "AGR-1001", Owner: "B-001", Status: catalog.StatusSold}

	err := access.Authorize("B-002", access.RoleBroker, access.OpOrderProduct, sold)
	var denied *access.DeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("expected *DeniedError ordering a sold product, got %v", err)
	}
}

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"farmer", "broker", "consumer", "admin"} {
		if _, err := access.ParseRole(valid); err != nil {
			t.Errorf("ParseRole(%q): %v", valid, err)
		}
	}
	if _, err := access.ParseRole("superuser"); err == nil {
		t.Error("ParseRole(superuser) should fail")
	}
}
