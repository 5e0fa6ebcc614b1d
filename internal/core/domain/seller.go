package domain

import (
	"time"

	"github.com/google/uuid"
)

// Seller is an authenticated operator that accepts band payments.
type Seller struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	BusinessName string    `json:"business_name"`
	Phone        string    `json:"phone"`
	PINHash      string    `json:"-"` // Argon2id, never expose
	CreatedAt    time.Time `json:"created_at"`
}
