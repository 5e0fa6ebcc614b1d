package service

import (
	"context"
	"fmt"
	"time"

	"bandpay/internal/core/domain"
	"bandpay/internal/core/ports"
	"bandpay/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SellerServiceImpl implements ports.SellerService.
type SellerServiceImpl struct {
	sellerRepo ports.SellerRepository
	hashSvc    ports.HashService
	tokenSvc   ports.TokenService
	log        zerolog.Logger
}

// NewSellerService creates a new SellerServiceImpl.
func NewSellerService(
	sellerRepo ports.SellerRepository,
	hashSvc ports.HashService,
	tokenSvc ports.TokenService,
	log zerolog.Logger,
) *SellerServiceImpl {
	return &SellerServiceImpl{
		sellerRepo: sellerRepo,
		hashSvc:    hashSvc,
		tokenSvc:   tokenSvc,
		log:        log,
	}
}

// Register creates a new seller account.
func (s *SellerServiceImpl) Register(ctx context.Context, req ports.RegisterSellerRequest) (*domain.Seller, error) {
	existing, err := s.sellerRepo.GetByPhone(ctx, req.Phone)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check phone: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrDuplicatePhone()
	}

	pinHash, err := s.hashSvc.Hash(req.PIN)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash pin: %w", err))
	}

	seller := &domain.Seller{
		ID:           uuid.New(),
		Name:         req.Name,
		BusinessName: req.BusinessName,
		Phone:        req.Phone,
		PINHash:      pinHash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.sellerRepo.Create(ctx, seller); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create seller: %w", err))
	}

	s.log.Info().
		Str("seller_id", seller.ID.String()).
		Str("business_name", seller.BusinessName).
		Msg("seller registered")

	return seller, nil
}

// Login authenticates a seller by phone and PIN and issues a session token.
// Missing seller and wrong PIN return the same error.
func (s *SellerServiceImpl) Login(ctx context.Context, phone, pin string) (*ports.SellerSession, error) {
	seller, err := s.sellerRepo.GetByPhone(ctx, phone)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lookup seller: %w", err))
	}
	if seller == nil {
		return nil, apperror.ErrInvalidCredentials()
	}

	ok, err := s.hashSvc.Verify(pin, seller.PINHash)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("verify pin: %w", err))
	}
	if !ok {
		return nil, apperror.ErrInvalidCredentials()
	}

	token, expiresAt, err := s.tokenSvc.Generate(seller.ID, seller.BusinessName)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}

	s.log.Info().
		Str("seller_id", seller.ID.String()).
		Msg("seller logged in")

	return &ports.SellerSession{
		Token:     token,
		ExpiresAt: expiresAt,
		Seller:    seller,
	}, nil
}

// Me resolves the seller behind an authenticated session. A valid token for
// a seller that no longer exists reads as not found, not as a server error.
func (s *SellerServiceImpl) Me(ctx context.Context, sellerID uuid.UUID) (*domain.Seller, error) {
	seller, err := s.sellerRepo.GetByID(ctx, sellerID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lookup seller: %w", err))
	}
	if seller == nil {
		return nil, apperror.ErrSellerNotFound()
	}
	return seller, nil
}
