// Package access maps an authenticated actor role to the marketplace
// operations it may perform. Authorization never mutates state; callers run
// it before touching the ledger or the catalog.
package access

import (
	"fmt"

	"github.com/agronova-labs/agronova/internal/catalog"
)

// Role is the marketplace role of an authenticated actor.
type Role string

const (
	RoleFarmer   Role = "farmer"
	RoleBroker   Role = "broker"
	RoleConsumer Role = "consumer"
	RoleAdmin    Role = "admin"
)

// ParseRole validates a role string.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleFarmer, RoleBroker, RoleConsumer, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Operation is a gated marketplace action.
type Operation string

const (
	OpListProduct  Operation = "list_product"
	OpOrderProduct Operation = "order_product"
	OpRead         Operation = "read"
	OpResetLedger  Operation = "reset_ledger"
)

// DeniedError reports an authorization failure. It is always surfaced to the
// caller; denials are never silently ignored.
type DeniedError struct {
	Actor  string
	Op     Operation
	Reason string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("actor %s denied %s: %s", e.Actor, e.Op, e.Reason)
}

func deny(actor string, op Operation, reason string) error {
	return &DeniedError{Actor: actor, Op: op, Reason: reason}
}

// Authorize decides whether the actor may perform op. For product-scoped
// operations, product carries the target (the prospective listing for
// OpListProduct, the existing product for OpOrderProduct).
//
// Rules:
//   - Farmer: may create listings, only for products they own.
//   - Broker: may order, only products currently listed.
//   - Consumer: read only.
//   - Admin: may reset the ledger and read everything.
func Authorize(actorID string, role Role, op Operation, product *catalog.Product) error {
	switch op {
	case OpRead:
		return nil // every authenticated role may read

	case OpListProduct:
		if role != RoleFarmer {
			return deny(actorID, op, fmt.Sprintf("role %s may not create listings", role))
		}
		if product != nil && product.Owner != actorID {
			return deny(actorID, op, "farmers may only list their own produce")
		}
		return nil

	case OpOrderProduct:
		if role != RoleBroker {
			return deny(actorID, op, fmt.Sprintf("role %s may not order products", role))
		}
		if product != nil && product.Status != catalog.StatusListed {
			return deny(actorID, op, fmt.Sprintf("product %s is not listed", product.ID))
		}
		return nil

	case OpResetLedger:
		if role != RoleAdmin {
			return deny(actorID, op, fmt.Sprintf("role %s may not reset the ledger", role))
		}
		return nil
	}

	return deny(actorID, op, "unknown operation")
}
