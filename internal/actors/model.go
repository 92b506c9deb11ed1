// Package actors manages the registry of marketplace participants. Every
// ledger write is attributed to a registered actor, and transfer targets must
// themselves be registered — arbitrary recipient strings are rejected.
package actors

import (
	"time"

	"github.com/agronova-labs/agronova/internal/access"
)

// Actor is an authenticated marketplace participant.
type Actor struct {
	ID           string      `json:"id"           db:"id"`
	Role         access.Role `json:"role"         db:"role"`
	DisplayName  string      `json:"display_name" db:"display_name"`
	PasswordHash string      `json:"-"            db:"password_hash"`
	CreatedAt    time.Time   `json:"created_at"   db:"created_at"`
}
