package postgres

import (
	"context"
	"errors"
	"fmt"

	"bandpay/internal/core/domain"
	"bandpay/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, name, phone, band_id, pin_hash, balance, blocked, created_at, deleted_at`

// UserRepo implements ports.UserRepository.
type UserRepo struct {
	pool Pool
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(pool Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func scanUser(row pgx.Row) (*domain.User, error) {
	u := &domain.User{}
	err := row.Scan(
		&u.ID, &u.Name, &u.Phone, &u.BandID, &u.PINHash,
		&u.Balance, &u.Blocked, &u.CreatedAt, &u.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

// Create inserts a new user into the database.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	query := `INSERT INTO users (id, name, phone, band_id, pin_hash, balance, blocked, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		u.ID, u.Name, u.Phone, u.BandID, u.PINHash,
		u.Balance, u.Blocked, u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByBandID fetches a live user by band id (non-locking read).
func (r *UserRepo) GetByBandID(ctx context.Context, bandID string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE band_id = $1 AND deleted_at IS NULL`

	u, err := scanUser(r.pool.QueryRow(ctx, query, bandID))
	if err != nil {
		return nil, fmt.Errorf("get user by band id: %w", err)
	}
	return u, nil
}

// GetByPhone fetches a live user by phone number.
func (r *UserRepo) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE phone = $1 AND deleted_at IS NULL`

	u, err := scanUser(r.pool.QueryRow(ctx, query, phone))
	if err != nil {
		return nil, fmt.Errorf("get user by phone: %w", err)
	}
	return u, nil
}

// BandIDExists reports whether a band id was ever issued. Soft-deleted rows
// count: a tombstoned id must never be handed out again.
func (r *UserRepo) BandIDExists(ctx context.Context, bandID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE band_id = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, bandID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check band id exists: %w", err)
	}
	return exists, nil
}

// List returns all live users, newest first.
func (r *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE deleted_at IS NULL ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u := domain.User{}
		if err := rows.Scan(
			&u.ID, &u.Name, &u.Phone, &u.BandID, &u.PINHash,
			&u.Balance, &u.Blocked, &u.CreatedAt, &u.DeletedAt,
		); err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user rows: %w", err)
	}
	return users, nil
}

// GetByBandIDForUpdate fetches a live user with a row-level lock (FOR UPDATE).
// Must be called within a transaction; concurrent debits against the same
// band serialize here.
func (r *UserRepo) GetByBandIDForUpdate(ctx context.Context, tx pgx.Tx, bandID string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE band_id = $1 AND deleted_at IS NULL FOR UPDATE`

	u, err := scanUser(tx.QueryRow(ctx, query, bandID))
	if err != nil {
		return nil, fmt.Errorf("get user for update: %w", err)
	}
	return u, nil
}

// UpdateBalance sets the running balance within a transaction.
func (r *UserRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, userID uuid.UUID, balance int64) error {
	query := `UPDATE users SET balance = $1 WHERE id = $2`

	tag, err := tx.Exec(ctx, query, balance, userID)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update balance: user %s not found", userID)
	}
	return nil
}

// SetBlocked sets the blocked flag and returns the updated user, or nil if
// no live user holds the band id.
func (r *UserRepo) SetBlocked(ctx context.Context, bandID string, blocked bool) (*domain.User, error) {
	query := `UPDATE users SET blocked = $1
		WHERE band_id = $2 AND deleted_at IS NULL
		RETURNING ` + userColumns

	u, err := scanUser(r.pool.QueryRow(ctx, query, blocked, bandID))
	if err != nil {
		return nil, fmt.Errorf("set blocked: %w", err)
	}
	return u, nil
}

// SoftDelete tombstones a user row. Returns false if no live user matched.
func (r *UserRepo) SoftDelete(ctx context.Context, bandID string) (bool, error) {
	query := `UPDATE users SET deleted_at = now()
		WHERE band_id = $1 AND deleted_at IS NULL`

	tag, err := r.pool.Exec(ctx, query, bandID)
	if err != nil {
		return false, fmt.Errorf("soft delete user: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetRegistryStats aggregates the live user population in one query.
func (r *UserRepo) GetRegistryStats(ctx context.Context) (*ports.RegistryStats, error) {
	query := `SELECT
		COUNT(*),
		COALESCE(SUM(balance), 0),
		COUNT(*) FILTER (WHERE NOT blocked),
		COUNT(*) FILTER (WHERE blocked)
		FROM users WHERE deleted_at IS NULL`

	stats := &ports.RegistryStats{}
	err := r.pool.QueryRow(ctx, query).Scan(
		&stats.TotalUsers, &stats.TotalBalance,
		&stats.ActiveBands, &stats.BlockedBands,
	)
	if err != nil {
		return nil, fmt.Errorf("get registry stats: %w", err)
	}
	return stats, nil
}
