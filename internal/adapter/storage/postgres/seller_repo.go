package postgres

import (
	"context"
	"errors"
	"fmt"

	"bandpay/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const sellerColumns = `id, name, business_name, phone, pin_hash, created_at`

// SellerRepo implements ports.SellerRepository.
type SellerRepo struct {
	pool Pool
}

// NewSellerRepo creates a new SellerRepo.
func NewSellerRepo(pool Pool) *SellerRepo {
	return &SellerRepo{pool: pool}
}

func scanSeller(row pgx.Row) (*domain.Seller, error) {
	s := &domain.Seller{}
	err := row.Scan(&s.ID, &s.Name, &s.BusinessName, &s.Phone, &s.PINHash, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

// Create inserts a new seller into the database.
func (r *SellerRepo) Create(ctx context.Context, s *domain.Seller) error {
	query := `INSERT INTO sellers (id, name, business_name, phone, pin_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		s.ID, s.Name, s.BusinessName, s.Phone, s.PINHash, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert seller: %w", err)
	}
	return nil
}

// GetByID fetches a seller by UUID.
func (r *SellerRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Seller, error) {
	query := `SELECT ` + sellerColumns + ` FROM sellers WHERE id = $1`

	s, err := scanSeller(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get seller by id: %w", err)
	}
	return s, nil
}

// GetByPhone fetches a seller by phone number.
func (r *SellerRepo) GetByPhone(ctx context.Context, phone string) (*domain.Seller, error) {
	query := `SELECT ` + sellerColumns + ` FROM sellers WHERE phone = $1`

	s, err := scanSeller(r.pool.QueryRow(ctx, query, phone))
	if err != nil {
		return nil, fmt.Errorf("get seller by phone: %w", err)
	}
	return s, nil
}
