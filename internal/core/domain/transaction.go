package domain

import (
	"time"

	"github.com/google/uuid"
)

// Direction is the sign of a ledger entry.
type Direction string

const (
	DirectionCredit Direction = "CREDIT"
	DirectionDebit  Direction = "DEBIT"
)

// Transaction is an immutable ledger entry for one balance movement on a band.
// Entries are never updated or deleted; applying a band's entries in timestamp
// order reconstructs its balance exactly.
type Transaction struct {
	ID          uuid.UUID  `json:"id"`
	BandID      string     `json:"band_id"`
	Amount      int64      `json:"amount"` // positive magnitude, minor units
	Direction   Direction  `json:"direction"`
	Description string     `json:"description"`
	SellerID    *uuid.UUID `json:"seller_id,omitempty"`
	ReferenceID string     `json:"reference_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// SignedAmount returns the entry's effect on the balance.
func (t *Transaction) SignedAmount() int64 {
	if t.Direction == DirectionDebit {
		return -t.Amount
	}
	return t.Amount
}
