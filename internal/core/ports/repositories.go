package ports

import (
	"context"
	"time"

	"bandpay/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UserRepository defines persistence operations for band holders.
// Methods accepting pgx.Tx run inside transaction blocks for pessimistic
// locking; lookup methods exclude soft-deleted rows unless noted.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByBandID(ctx context.Context, bandID string) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	// BandIDExists reports whether a band id was ever issued, tombstones
	// included. Deleted ids are never reassigned.
	BandIDExists(ctx context.Context, bandID string) (bool, error)
	List(ctx context.Context) ([]domain.User, error)
	GetByBandIDForUpdate(ctx context.Context, tx pgx.Tx, bandID string) (*domain.User, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, userID uuid.UUID, balance int64) error
	SetBlocked(ctx context.Context, bandID string, blocked bool) (*domain.User, error)
	SoftDelete(ctx context.Context, bandID string) (bool, error)
	GetRegistryStats(ctx context.Context) (*RegistryStats, error)
}

// RegistryStats aggregates the user/band population for the dashboard.
type RegistryStats struct {
	TotalUsers   int64
	TotalBalance int64
	ActiveBands  int64
	BlockedBands int64
}

// TransactionRepository defines persistence operations for ledger entries.
// Entries are append-only; there is no update or delete.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error
	ListRecent(ctx context.Context, bandID string, limit int) ([]domain.Transaction, error)
	// SumByBand folds a band's entries into its signed balance (audit path).
	SumByBand(ctx context.Context, bandID string) (int64, error)
	// GetVolume counts entries and sums magnitudes within [from, to).
	GetVolume(ctx context.Context, from, to time.Time) (*LedgerVolume, error)
}

// LedgerVolume holds aggregated ledger activity for a time window.
type LedgerVolume struct {
	Transactions int64
	Volume       int64
}

// SellerRepository defines persistence operations for sellers.
type SellerRepository interface {
	Create(ctx context.Context, seller *domain.Seller) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Seller, error)
	GetByPhone(ctx context.Context, phone string) (*domain.Seller, error)
}

// IdempotencyRepository defines persistence for idempotency logs (DB backup).
type IdempotencyRepository interface {
	Create(ctx context.Context, tx pgx.Tx, log *domain.IdempotencyLog) error
	Get(ctx context.Context, key string) (*domain.IdempotencyLog, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
