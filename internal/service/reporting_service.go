package service

import (
	"context"
	"fmt"
	"time"

	"bandpay/internal/core/domain"
	"bandpay/internal/core/ports"
	"bandpay/pkg/apperror"
)

const (
	defaultRecentLimit = 5
	maxRecentLimit     = 50
)

// reportingService implements ports.ReportingService.
type reportingService struct {
	userRepo ports.UserRepository
	txRepo   ports.TransactionRepository
	loc      *time.Location
}

// NewReportingService creates a new reporting service. The location fixes
// where "today" rolls over for the dashboard window.
func NewReportingService(
	userRepo ports.UserRepository,
	txRepo ports.TransactionRepository,
	loc *time.Location,
) ports.ReportingService {
	if loc == nil {
		loc = time.UTC
	}
	return &reportingService{
		userRepo: userRepo,
		txRepo:   txRepo,
		loc:      loc,
	}
}

// GetStats returns the admin dashboard aggregates.
func (s *reportingService) GetStats(ctx context.Context) (*ports.Stats, error) {
	registry, err := s.userRepo.GetRegistryStats(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("registry stats: %w", err))
	}

	from, to := todayWindow(time.Now(), s.loc)
	volume, err := s.txRepo.GetVolume(ctx, from, to)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("ledger volume: %w", err))
	}

	return &ports.Stats{
		TotalUsers:        registry.TotalUsers,
		TotalBalance:      registry.TotalBalance,
		ActiveBands:       registry.ActiveBands,
		BlockedBands:      registry.BlockedBands,
		TodayTransactions: volume.Transactions,
		TodayVolume:       volume.Volume,
	}, nil
}

// RecentTransactions returns a band's newest ledger entries, newest first.
// Limit defaults to 5 and caps at 50.
func (s *reportingService) RecentTransactions(ctx context.Context, bandID string, limit int) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	normalized := domain.NormalizeBandID(bandID)
	user, err := s.userRepo.GetByBandID(ctx, normalized)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lookup band: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrBandNotFound()
	}

	txns, err := s.txRepo.ListRecent(ctx, normalized, limit)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}
	return txns, nil
}

// todayWindow returns [midnight, next midnight) around now in loc.
func todayWindow(now time.Time, loc *time.Location) (time.Time, time.Time) {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
