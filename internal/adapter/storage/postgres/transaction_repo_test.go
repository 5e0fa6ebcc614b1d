package postgres

import (
	"context"
	"testing"
	"time"

	"bandpay/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLedgerEntry(bandID string, direction domain.Direction) *domain.Transaction {
	sellerID := uuid.New()
	return &domain.Transaction{
		ID:          uuid.New(),
		BandID:      bandID,
		Amount:      3500,
		Direction:   direction,
		Description: "2x masala dosa",
		SellerID:    &sellerID,
		ReferenceID: "POS-001",
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
}

func transactionRow(t *domain.Transaction) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "band_id", "amount", "direction", "description", "seller_id", "reference_id", "created_at"}).
		AddRow(t.ID, t.BandID, t.Amount, t.Direction, t.Description, t.SellerID, t.ReferenceID, t.CreatedAt)
}

func TestTransactionRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	txn := newLedgerEntry("NKM-AB12CD3", domain.DirectionDebit)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO transactions").
		WithArgs(txn.ID, txn.BandID, txn.Amount, txn.Direction, txn.Description,
			txn.SellerID, txn.ReferenceID, txn.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, txn)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_ListRecent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	txn := newLedgerEntry("NKM-AB12CD3", domain.DirectionCredit)

	mock.ExpectQuery("SELECT .+ FROM transactions .+ ORDER BY created_at DESC LIMIT").
		WithArgs("NKM-AB12CD3", 5).
		WillReturnRows(transactionRow(txn))

	txns, err := repo.ListRecent(context.Background(), "NKM-AB12CD3", 5)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, txn.ID, txns[0].ID)
	assert.Equal(t, domain.DirectionCredit, txns[0].Direction)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_SumByBand(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)

	mock.ExpectQuery("SELECT COALESCE").
		WithArgs("NKM-AB12CD3").
		WillReturnRows(pgxmock.NewRows([]string{"sum"}).AddRow(int64(6500)))

	sum, err := repo.SumByBand(context.Background(), "NKM-AB12CD3")
	require.NoError(t, err)
	assert.EqualValues(t, 6500, sum)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_GetVolume(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(from, to).
		WillReturnRows(pgxmock.NewRows([]string{"count", "sum"}).AddRow(int64(42), int64(98765)))

	v, err := repo.GetVolume(context.Background(), from, to)
	require.NoError(t, err)
	assert.EqualValues(t, 42, v.Transactions)
	assert.EqualValues(t, 98765, v.Volume)
	assert.NoError(t, mock.ExpectationsWereMet())
}
