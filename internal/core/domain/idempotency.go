package domain

import (
	"time"

	"github.com/google/uuid"
)

// IdempotencyLog caches a committed payment response so retried requests
// with the same key return the original result instead of double-charging.
type IdempotencyLog struct {
	Key           string    `json:"key"` // Format: "band_id:reference_id"
	TransactionID uuid.UUID `json:"transaction_id"`
	ResponseJSON  []byte    `json:"response_json"`
	CreatedAt     time.Time `json:"created_at"`
}

// BuildPaymentIdempotencyKey constructs the standard key format.
func BuildPaymentIdempotencyKey(bandID, referenceID string) string {
	return NormalizeBandID(bandID) + ":" + referenceID
}
