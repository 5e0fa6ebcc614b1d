package integration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bandpay/internal/core/domain"
	"bandpay/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory User Repo ---

type inMemoryUserRepo struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*domain.User
}

func newInMemoryUserRepo() *inMemoryUserRepo {
	return &inMemoryUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *inMemoryUserRepo) Create(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
	return nil
}

func (r *inMemoryUserRepo) GetByBandID(ctx context.Context, bandID string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.findByBandID(bandID), nil
}

// findByBandID must be called with the lock held. Skips tombstones.
func (r *inMemoryUserRepo) findByBandID(bandID string) *domain.User {
	for _, u := range r.users {
		if u.BandID == bandID && u.DeletedAt == nil {
			return u
		}
	}
	return nil
}

func (r *inMemoryUserRepo) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Phone == phone && u.DeletedAt == nil {
			return u, nil
		}
	}
	return nil, nil
}

func (r *inMemoryUserRepo) BandIDExists(ctx context.Context, bandID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	// Tombstones count: a deleted band id is never reissued.
	for _, u := range r.users {
		if u.BandID == bandID {
			return true, nil
		}
	}
	return false, nil
}

func (r *inMemoryUserRepo) List(ctx context.Context) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.User
	for _, u := range r.users {
		if u.DeletedAt == nil {
			result = append(result, *u)
		}
	}
	return result, nil
}

func (r *inMemoryUserRepo) GetByBandIDForUpdate(ctx context.Context, tx pgx.Tx, bandID string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u := r.findByBandID(bandID)
	if u == nil {
		return nil, nil
	}
	// Copy so service-side mutation only lands via UpdateBalance.
	cp := *u
	return &cp, nil
}

func (r *inMemoryUserRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, userID uuid.UUID, balance int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return fmt.Errorf("user not found")
	}
	u.Balance = balance
	return nil
}

func (r *inMemoryUserRepo) SetBlocked(ctx context.Context, bandID string, blocked bool) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.findByBandID(bandID)
	if u == nil {
		return nil, nil
	}
	u.Blocked = blocked
	return u, nil
}

func (r *inMemoryUserRepo) SoftDelete(ctx context.Context, bandID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.findByBandID(bandID)
	if u == nil {
		return false, nil
	}
	now := time.Now().UTC()
	u.DeletedAt = &now
	return true, nil
}

func (r *inMemoryUserRepo) GetRegistryStats(ctx context.Context) (*ports.RegistryStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stats := &ports.RegistryStats{}
	for _, u := range r.users {
		if u.DeletedAt != nil {
			continue
		}
		stats.TotalUsers++
		stats.TotalBalance += u.Balance
		if u.Blocked {
			stats.BlockedBands++
		} else {
			stats.ActiveBands++
		}
	}
	return stats, nil
}

// --- In-Memory Seller Repo ---

type inMemorySellerRepo struct {
	mu      sync.RWMutex
	sellers map[uuid.UUID]*domain.Seller
}

func newInMemorySellerRepo() *inMemorySellerRepo {
	return &inMemorySellerRepo{sellers: make(map[uuid.UUID]*domain.Seller)}
}

func (r *inMemorySellerRepo) Create(ctx context.Context, s *domain.Seller) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sellers[s.ID] = s
	return nil
}

func (r *inMemorySellerRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Seller, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sellers[id]
	if !ok {
		return nil, nil
	}
	return s, nil
}

func (r *inMemorySellerRepo) GetByPhone(ctx context.Context, phone string) (*domain.Seller, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sellers {
		if s.Phone == phone {
			return s, nil
		}
	}
	return nil, nil
}

// --- In-Memory Transaction Repo ---

type inMemoryTransactionRepo struct {
	mu      sync.RWMutex
	entries []*domain.Transaction
}

func newInMemoryTransactionRepo() *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{}
}

func (r *inMemoryTransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, t)
	return nil
}

func (r *inMemoryTransactionRepo) ListRecent(ctx context.Context, bandID string, limit int) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Transaction
	for i := len(r.entries) - 1; i >= 0 && len(result) < limit; i-- {
		if r.entries[i].BandID == bandID {
			result = append(result, *r.entries[i])
		}
	}
	return result, nil
}

func (r *inMemoryTransactionRepo) SumByBand(ctx context.Context, bandID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sum int64
	for _, t := range r.entries {
		if t.BandID != bandID {
			continue
		}
		if t.Direction == domain.DirectionCredit {
			sum += t.Amount
		} else {
			sum -= t.Amount
		}
	}
	return sum, nil
}

func (r *inMemoryTransactionRepo) GetVolume(ctx context.Context, from, to time.Time) (*ports.LedgerVolume, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	vol := &ports.LedgerVolume{}
	for _, t := range r.entries {
		if t.CreatedAt.Before(from) || !t.CreatedAt.Before(to) {
			continue
		}
		vol.Transactions++
		vol.Volume += t.Amount
	}
	return vol, nil
}

// --- In-Memory Idempotency Repo ---

type inMemoryIdempotencyRepo struct {
	mu   sync.RWMutex
	logs map[string]*domain.IdempotencyLog
}

func newInMemoryIdempotencyRepo() *inMemoryIdempotencyRepo {
	return &inMemoryIdempotencyRepo{logs: make(map[string]*domain.IdempotencyLog)}
}

func (r *inMemoryIdempotencyRepo) Create(ctx context.Context, tx pgx.Tx, log *domain.IdempotencyLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs[log.Key] = log
	return nil
}

func (r *inMemoryIdempotencyRepo) Get(ctx context.Context, key string) (*domain.IdempotencyLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.logs[key]
	if !ok {
		return nil, nil
	}
	return l, nil
}

// --- In-Memory Transactor ---

// inMemoryTransactor serialises transaction blocks with a single mutex,
// standing in for the row lock SELECT FOR UPDATE takes in production. This
// keeps concurrent payment tests deterministic: read-check-write sequences
// never interleave.
type inMemoryTransactor struct {
	mu sync.Mutex
}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	t.mu.Lock()
	return &lockTx{mu: &t.mu}, nil
}

// lockTx holds the transactor mutex until Commit or Rollback, whichever
// comes first. Later calls are no-ops, matching the defer-Rollback pattern.
type lockTx struct {
	mu   *sync.Mutex
	done bool
}

func (t *lockTx) Commit(ctx context.Context) error {
	if !t.done {
		t.done = true
		t.mu.Unlock()
	}
	return nil
}

func (t *lockTx) Rollback(ctx context.Context) error {
	if !t.done {
		t.done = true
		t.mu.Unlock()
	}
	return nil
}

func (t *lockTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *lockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *lockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *lockTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *lockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *lockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *lockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *lockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *lockTx) Conn() *pgx.Conn { return nil }
