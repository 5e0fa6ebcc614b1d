package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is an event attendee bound 1:1 to a physical NFC band.
// Balance is the running total in minor currency units; the transactions
// ledger is the auditable source of truth and must always sum to it.
type User struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Phone     string     `json:"phone"`
	BandID    string     `json:"band_id"`
	PINHash   string     `json:"-"` // Argon2id, never expose
	Balance   int64      `json:"balance"`
	Blocked   bool       `json:"is_blocked"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"-"` // soft-delete tombstone
}

// IsDeleted reports whether the band has been soft-deleted.
func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

// NormalizeBandID canonicalizes a band identifier for lookup and storage.
// Band ids are matched case-insensitively; the stored form is uppercase.
func NormalizeBandID(bandID string) string {
	return strings.ToUpper(strings.TrimSpace(bandID))
}
