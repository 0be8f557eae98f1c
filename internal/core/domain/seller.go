package domain

import (
	"time"

	"github.com/google/uuid"
)

// Seller represents a marketplace seller account. Accounts are created by the
// registration flow outside this service; this core only reads them and, under
// the stored-counter balance policy, adjusts Revenue.
type Seller struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Revenue   int64     `json:"revenue"` // Withdrawable balance in KES cents, never negative
	PINHash   *string   `json:"-"`       // Argon2id hash of the withdrawal PIN, nil if unset
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasPIN returns true if the seller has configured a withdrawal PIN.
func (s *Seller) HasPIN() bool {
	return s.PINHash != nil && *s.PINHash != ""
}
