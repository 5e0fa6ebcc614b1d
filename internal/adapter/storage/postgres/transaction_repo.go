package postgres

import (
	"context"
	"fmt"
	"time"

	"bandpay/internal/core/domain"
	"bandpay/internal/core/ports"

	"github.com/jackc/pgx/v5"
)

const transactionColumns = `id, band_id, amount, direction, description, seller_id, reference_id, created_at`

// TransactionRepo implements ports.TransactionRepository. The transactions
// table is append-only.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Create appends a ledger entry within a database transaction.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO transactions (id, band_id, amount, direction, description, seller_id, reference_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := tx.Exec(ctx, query,
		t.ID, t.BandID, t.Amount, t.Direction, t.Description,
		t.SellerID, t.ReferenceID, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// ListRecent returns a band's newest entries, newest first.
func (r *TransactionRepo) ListRecent(ctx context.Context, bandID string, limit int) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE band_id = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, bandID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		t := domain.Transaction{}
		if err := rows.Scan(
			&t.ID, &t.BandID, &t.Amount, &t.Direction, &t.Description,
			&t.SellerID, &t.ReferenceID, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return txns, nil
}

// SumByBand folds a band's entries into its signed balance. This is the
// audit path; it must agree with the running balance on the user row.
func (r *TransactionRepo) SumByBand(ctx context.Context, bandID string) (int64, error) {
	query := `SELECT COALESCE(SUM(CASE WHEN direction = 'CREDIT' THEN amount ELSE -amount END), 0)
		FROM transactions WHERE band_id = $1`

	var sum int64
	if err := r.pool.QueryRow(ctx, query, bandID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum transactions: %w", err)
	}
	return sum, nil
}

// GetVolume counts entries and sums magnitudes within [from, to).
func (r *TransactionRepo) GetVolume(ctx context.Context, from, to time.Time) (*ports.LedgerVolume, error) {
	query := `SELECT COUNT(*), COALESCE(SUM(amount), 0)
		FROM transactions WHERE created_at >= $1 AND created_at < $2`

	v := &ports.LedgerVolume{}
	if err := r.pool.QueryRow(ctx, query, from, to).Scan(&v.Transactions, &v.Volume); err != nil {
		return nil, fmt.Errorf("ledger volume: %w", err)
	}
	return v, nil
}
