package ports

import (
	"context"
	"time"

	"bandpay/internal/core/domain"

	"github.com/google/uuid"
)

// HashService handles PIN hashing (Argon2id).
type HashService interface {
	Hash(pin string) (string, error)
	Verify(pin string, hash string) (bool, error)
}

// TokenService handles seller session JWT operations.
type TokenService interface {
	Generate(sellerID uuid.UUID, businessName string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed seller session claims.
type TokenClaims struct {
	SellerID     uuid.UUID
	BusinessName string
}

// IdempotencyCache is the Redis-layer idempotency check (fast path).
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached response JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// --- Service Ports (Business Logic) ---

// RegistryService manages the band registry.
type RegistryService interface {
	Register(ctx context.Context, req RegisterUserRequest) (*domain.User, error)
	LookupByBand(ctx context.Context, bandID string) (*domain.User, error)
	LookupByPhone(ctx context.Context, phone string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	SetBlocked(ctx context.Context, bandID string, blocked bool) (*domain.User, error)
	ToggleBlocked(ctx context.Context, bandID string) (*domain.User, error)
	Delete(ctx context.Context, bandID string) error
}

// RegisterUserRequest holds validated input for user registration.
type RegisterUserRequest struct {
	Name   string
	Phone  string
	PIN    string
	BandID string // optional; generated when empty
}

// PaymentService is the core debit/credit state machine.
type PaymentService interface {
	ProcessPayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error)
	ProcessFund(ctx context.Context, req FundRequest) (*PaymentResult, error)
}

// PaymentRequest holds validated input for a seller-initiated debit.
type PaymentRequest struct {
	BandID      string
	Amount      int64 // minor units
	PIN         string
	SellerID    *uuid.UUID
	ReferenceID string // idempotency key per payment attempt
	Description string
}

// FundRequest holds validated input for an admin credit (top-up).
type FundRequest struct {
	BandID      string
	Amount      int64 // minor units
	Description string
}

// PaymentResult is the outcome of a committed payment or fund operation.
type PaymentResult struct {
	Transaction *domain.Transaction `json:"transaction"`
	NewBalance  int64               `json:"new_balance"`
}

// SellerService manages seller registration and sessions.
type SellerService interface {
	Register(ctx context.Context, req RegisterSellerRequest) (*domain.Seller, error)
	Login(ctx context.Context, phone, pin string) (*SellerSession, error)
	// Me resolves the seller behind an authenticated session.
	Me(ctx context.Context, sellerID uuid.UUID) (*domain.Seller, error)
}

// RegisterSellerRequest holds validated input for seller self-registration.
type RegisterSellerRequest struct {
	Name         string
	BusinessName string
	Phone        string
	PIN          string
}

// SellerSession is an authenticated seller identity.
type SellerSession struct {
	Token     string
	ExpiresAt time.Time
	Seller    *domain.Seller
}

// ReportingService provides dashboard aggregates and ledger views.
type ReportingService interface {
	GetStats(ctx context.Context) (*Stats, error)
	RecentTransactions(ctx context.Context, bandID string, limit int) ([]domain.Transaction, error)
}

// Stats is the dashboard payload.
type Stats struct {
	TotalUsers        int64
	TotalBalance      int64
	ActiveBands       int64
	BlockedBands      int64
	TodayTransactions int64
	TodayVolume       int64
}
