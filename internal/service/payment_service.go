package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bandpay/internal/core/domain"
	"bandpay/internal/core/ports"
	"bandpay/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const idempotencyTTL = 24 * time.Hour

// PaymentServiceImpl implements ports.PaymentService.
type PaymentServiceImpl struct {
	txRepo     ports.TransactionRepository
	userRepo   ports.UserRepository
	idempRepo  ports.IdempotencyRepository
	idempCache ports.IdempotencyCache
	hashSvc    ports.HashService
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewPaymentService creates a new PaymentServiceImpl.
func NewPaymentService(
	txRepo ports.TransactionRepository,
	userRepo ports.UserRepository,
	idempRepo ports.IdempotencyRepository,
	idempCache ports.IdempotencyCache,
	hashSvc ports.HashService,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *PaymentServiceImpl {
	return &PaymentServiceImpl{
		txRepo:     txRepo,
		userRepo:   userRepo,
		idempRepo:  idempRepo,
		idempCache: idempCache,
		hashSvc:    hashSvc,
		transactor: transactor,
		log:        log,
	}
}

// ProcessPayment debits a band with pessimistic locking. The user row is
// locked FOR UPDATE so concurrent debits against one band serialize; the
// balance check, ledger append and balance update commit atomically.
func (s *PaymentServiceImpl) ProcessPayment(ctx context.Context, req ports.PaymentRequest) (*ports.PaymentResult, error) {
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	idempKey := domain.BuildPaymentIdempotencyKey(req.BandID, req.ReferenceID)

	// Layer 1: Redis idempotency check
	cached, err := s.idempCache.Get(ctx, idempKey)
	if err != nil {
		s.log.Warn().Err(err).Str("key", idempKey).Msg("redis idempotency check failed, falling through to DB")
	}
	if cached != nil {
		return s.unmarshalCachedResult(cached)
	}

	// Layer 2: DB idempotency check
	idempLog, err := s.idempRepo.Get(ctx, idempKey)
	if err != nil {
		return nil, storageError(fmt.Errorf("db idempotency check: %w", err))
	}
	if idempLog != nil {
		return s.unmarshalCachedResult(idempLog.ResponseJSON)
	}

	// Begin database transaction
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, storageError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// Lock & get user row
	user, err := s.userRepo.GetByBandIDForUpdate(ctx, dbTx, domain.NormalizeBandID(req.BandID))
	if err != nil {
		return nil, storageError(fmt.Errorf("lock user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrBandNotFound()
	}

	// Business rules, checked in order: blocked, PIN, funds.
	if user.Blocked {
		return nil, apperror.ErrBandBlocked()
	}

	ok, err := s.hashSvc.Verify(req.PIN, user.PINHash)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("verify pin: %w", err))
	}
	if !ok {
		return nil, apperror.ErrInvalidPin()
	}

	if user.Balance < req.Amount {
		return nil, apperror.ErrInsufficientFunds()
	}

	newBalance := user.Balance - req.Amount
	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:          uuid.New(),
		BandID:      user.BandID,
		Amount:      req.Amount,
		Direction:   domain.DirectionDebit,
		Description: req.Description,
		SellerID:    req.SellerID,
		ReferenceID: req.ReferenceID,
		CreatedAt:   now,
	}

	// Persist: update running balance
	if err := s.userRepo.UpdateBalance(ctx, dbTx, user.ID, newBalance); err != nil {
		return nil, storageError(fmt.Errorf("update balance: %w", err))
	}

	// Persist: append ledger entry
	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return nil, storageError(fmt.Errorf("create transaction: %w", err))
	}

	// Persist: idempotency log
	result := &ports.PaymentResult{Transaction: txn, NewBalance: newBalance}
	respJSON, err := json.Marshal(result)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("marshal response: %w", err))
	}

	idempLogEntry := &domain.IdempotencyLog{
		Key:           idempKey,
		TransactionID: txn.ID,
		ResponseJSON:  respJSON,
		CreatedAt:     now,
	}
	if err := s.idempRepo.Create(ctx, dbTx, idempLogEntry); err != nil {
		return nil, storageError(fmt.Errorf("save idempotency log: %w", err))
	}

	// Commit
	if err := dbTx.Commit(ctx); err != nil {
		return nil, storageError(fmt.Errorf("commit tx: %w", err))
	}

	// Post-process: cache in Redis (best-effort)
	if err := s.idempCache.Set(ctx, idempKey, respJSON, idempotencyTTL); err != nil {
		s.log.Warn().Err(err).Str("key", idempKey).Msg("failed to cache idempotency in redis")
	}

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("band_id", user.BandID).
		Int64("amount", req.Amount).
		Int64("new_balance", newBalance).
		Msg("payment processed")

	return result, nil
}

// ProcessFund credits a band from the admin console. Blocked bands reject
// credits as well as debits; funds are returned at the counter instead.
func (s *PaymentServiceImpl) ProcessFund(ctx context.Context, req ports.FundRequest) (*ports.PaymentResult, error) {
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	// Begin database transaction
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, storageError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// Lock & get user row
	user, err := s.userRepo.GetByBandIDForUpdate(ctx, dbTx, domain.NormalizeBandID(req.BandID))
	if err != nil {
		return nil, storageError(fmt.Errorf("lock user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrBandNotFound()
	}
	if user.Blocked {
		return nil, apperror.ErrBandBlocked()
	}

	newBalance := user.Balance + req.Amount
	now := time.Now().UTC()
	description := req.Description
	if description == "" {
		description = "Top-up"
	}
	txn := &domain.Transaction{
		ID:          uuid.New(),
		BandID:      user.BandID,
		Amount:      req.Amount,
		Direction:   domain.DirectionCredit,
		Description: description,
		CreatedAt:   now,
	}

	// Persist: update running balance
	if err := s.userRepo.UpdateBalance(ctx, dbTx, user.ID, newBalance); err != nil {
		return nil, storageError(fmt.Errorf("update balance: %w", err))
	}

	// Persist: append ledger entry
	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return nil, storageError(fmt.Errorf("create transaction: %w", err))
	}

	// Commit
	if err := dbTx.Commit(ctx); err != nil {
		return nil, storageError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("band_id", user.BandID).
		Int64("amount", req.Amount).
		Int64("new_balance", newBalance).
		Msg("fund processed")

	return &ports.PaymentResult{Transaction: txn, NewBalance: newBalance}, nil
}

// unmarshalCachedResult deserializes a cached payment result.
func (s *PaymentServiceImpl) unmarshalCachedResult(data []byte) (*ports.PaymentResult, error) {
	result := &ports.PaymentResult{}
	if err := json.Unmarshal(data, result); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("unmarshal cached result: %w", err))
	}
	return result, nil
}

// storageError maps context expiry to a 503 and everything else to a 500.
func storageError(err error) *apperror.AppError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperror.ErrStorageUnavailable(err)
	}
	return apperror.InternalError(err)
}
