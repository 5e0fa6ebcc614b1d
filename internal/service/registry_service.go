package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"bandpay/internal/core/domain"
	"bandpay/internal/core/ports"
	"bandpay/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const bandIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RegistryServiceImpl implements ports.RegistryService.
type RegistryServiceImpl struct {
	userRepo    ports.UserRepository
	hashSvc     ports.HashService
	idPrefix    string
	suffixLen   int
	genAttempts int
	log         zerolog.Logger
}

// NewRegistryService creates a new RegistryServiceImpl.
func NewRegistryService(
	userRepo ports.UserRepository,
	hashSvc ports.HashService,
	idPrefix string,
	suffixLen int,
	genAttempts int,
	log zerolog.Logger,
) *RegistryServiceImpl {
	return &RegistryServiceImpl{
		userRepo:    userRepo,
		hashSvc:     hashSvc,
		idPrefix:    idPrefix,
		suffixLen:   suffixLen,
		genAttempts: genAttempts,
		log:         log,
	}
}

// Register creates a new user bound to a fresh band identifier.
// The PIN is stored only as an Argon2id hash.
func (s *RegistryServiceImpl) Register(ctx context.Context, req ports.RegisterUserRequest) (*domain.User, error) {
	existing, err := s.userRepo.GetByPhone(ctx, req.Phone)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check phone: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrDuplicatePhone()
	}

	bandID := domain.NormalizeBandID(req.BandID)
	if bandID != "" {
		// Caller-supplied ids must not collide with any id ever issued,
		// tombstones included.
		taken, err := s.userRepo.BandIDExists(ctx, bandID)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("check band id: %w", err))
		}
		if taken {
			return nil, apperror.ErrBandIDTaken()
		}
	} else {
		bandID, err = s.generateBandID(ctx)
		if err != nil {
			return nil, err
		}
	}

	pinHash, err := s.hashSvc.Hash(req.PIN)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash pin: %w", err))
	}

	user := &domain.User{
		ID:        uuid.New(),
		Name:      req.Name,
		Phone:     req.Phone,
		BandID:    bandID,
		PINHash:   pinHash,
		Balance:   0,
		Blocked:   false,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create user: %w", err))
	}

	s.log.Info().
		Str("band_id", user.BandID).
		Str("user_id", user.ID.String()).
		Msg("user registered")

	return user, nil
}

// LookupByBand finds a live user by band identifier, case-insensitively.
func (s *RegistryServiceImpl) LookupByBand(ctx context.Context, bandID string) (*domain.User, error) {
	user, err := s.userRepo.GetByBandID(ctx, domain.NormalizeBandID(bandID))
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lookup band: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrBandNotFound()
	}
	return user, nil
}

// LookupByPhone finds a live user by phone number.
func (s *RegistryServiceImpl) LookupByPhone(ctx context.Context, phone string) (*domain.User, error) {
	user, err := s.userRepo.GetByPhone(ctx, phone)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lookup phone: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrBandNotFound()
	}
	return user, nil
}

// List returns all live users, newest first.
func (s *RegistryServiceImpl) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list users: %w", err))
	}
	return users, nil
}

// SetBlocked sets the blocked flag. Idempotent; balance and ledger untouched.
func (s *RegistryServiceImpl) SetBlocked(ctx context.Context, bandID string, blocked bool) (*domain.User, error) {
	user, err := s.userRepo.SetBlocked(ctx, domain.NormalizeBandID(bandID), blocked)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("set blocked: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrBandNotFound()
	}

	s.log.Info().
		Str("band_id", user.BandID).
		Bool("blocked", blocked).
		Msg("band block state changed")

	return user, nil
}

// ToggleBlocked flips the blocked flag, matching the admin console contract.
func (s *RegistryServiceImpl) ToggleBlocked(ctx context.Context, bandID string) (*domain.User, error) {
	user, err := s.LookupByBand(ctx, bandID)
	if err != nil {
		return nil, err
	}
	return s.SetBlocked(ctx, user.BandID, !user.Blocked)
}

// Delete soft-deletes a band. The identifier is tombstoned and never
// reassigned, so stale clients cannot credit a future owner.
func (s *RegistryServiceImpl) Delete(ctx context.Context, bandID string) error {
	found, err := s.userRepo.SoftDelete(ctx, domain.NormalizeBandID(bandID))
	if err != nil {
		return apperror.InternalError(fmt.Errorf("delete band: %w", err))
	}
	if !found {
		return apperror.ErrBandNotFound()
	}

	s.log.Info().Str("band_id", domain.NormalizeBandID(bandID)).Msg("band deleted")
	return nil
}

// generateBandID produces a fresh identifier (prefix + "-" + random suffix),
// collision-checked against every id ever issued.
func (s *RegistryServiceImpl) generateBandID(ctx context.Context) (string, error) {
	for attempt := 0; attempt < s.genAttempts; attempt++ {
		suffix, err := randomBandSuffix(s.suffixLen)
		if err != nil {
			return "", apperror.InternalError(fmt.Errorf("generate band suffix: %w", err))
		}
		candidate := s.idPrefix + "-" + suffix

		taken, err := s.userRepo.BandIDExists(ctx, candidate)
		if err != nil {
			return "", apperror.InternalError(fmt.Errorf("check band id: %w", err))
		}
		if !taken {
			return candidate, nil
		}
		s.log.Warn().Str("band_id", candidate).Msg("band id collision, retrying")
	}
	return "", apperror.InternalError(fmt.Errorf("band id space exhausted after %d attempts", s.genAttempts))
}

// randomBandSuffix returns n characters from the band id alphabet.
func randomBandSuffix(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = bandIDAlphabet[int(b)%len(bandIDAlphabet)]
	}
	return string(out), nil
}
