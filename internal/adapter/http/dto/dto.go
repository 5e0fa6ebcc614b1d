package dto

import (
	"time"

	"bandpay/internal/core/domain"
	"bandpay/internal/core/ports"
)

// RegisterUserRequest is the request body for user registration.
type RegisterUserRequest struct {
	Name   string `json:"name" binding:"required,min=1,max=100"`
	Phone  string `json:"phone" binding:"required,phone_number"`
	PIN    string `json:"pin" binding:"required,pin_code"`
	BandID string `json:"band_id" binding:"omitempty,band_id"`
}

// FundRequest is the request body for crediting a band.
type FundRequest struct {
	BandID      string `json:"band_id" binding:"required,band_id"`
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	Description string `json:"description" binding:"max=200"`
}

// BlockRequest is the request body for blocking/unblocking a band.
// Blocked toggles when omitted.
type BlockRequest struct {
	BandID  string `json:"band_id" binding:"required,band_id"`
	Blocked *bool  `json:"blocked,omitempty"`
}

// DeleteRequest is the request body for retiring a band.
type DeleteRequest struct {
	BandID string `json:"band_id" binding:"required,band_id"`
}

// PaymentRequest is the request body for a seller-initiated debit.
type PaymentRequest struct {
	BandID      string `json:"band_id" binding:"required,band_id"`
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	PIN         string `json:"pin" binding:"required,pin_code"`
	ReferenceID string `json:"reference_id" binding:"required,max=100"`
	Description string `json:"description" binding:"max=200"`
}

// SellerRegisterRequest is the request body for seller registration.
type SellerRegisterRequest struct {
	Name         string `json:"name" binding:"required,min=1,max=100"`
	BusinessName string `json:"business_name" binding:"required,min=1,max=100"`
	Phone        string `json:"phone" binding:"required,phone_number"`
	PIN          string `json:"pin" binding:"required,pin_code"`
}

// SellerLoginRequest is the request body for seller login.
type SellerLoginRequest struct {
	Phone string `json:"phone" binding:"required,phone_number"`
	PIN   string `json:"pin" binding:"required,pin_code"`
}

// ScanRequest is the request body for reporting an NFC scan.
type ScanRequest struct {
	BandID string `json:"band_id" binding:"required,band_id"`
}

// UserResponse is the wire shape of a band holder.
type UserResponse struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	BandID    string `json:"band_id"`
	Balance   int64  `json:"balance"`
	IsBlocked bool   `json:"is_blocked"`
	CreatedAt string `json:"created_at"`
}

// NewUserResponse maps a domain user onto the wire shape.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		Name:      u.Name,
		Phone:     u.Phone,
		BandID:    u.BandID,
		Balance:   u.Balance,
		IsBlocked: u.Blocked,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

// TransactionResponse is the wire shape of a ledger entry.
type TransactionResponse struct {
	ID          string  `json:"id"`
	BandID      string  `json:"band_id"`
	Amount      int64   `json:"amount"`
	Direction   string  `json:"direction"`
	Description string  `json:"description"`
	SellerID    *string `json:"seller_id,omitempty"`
	ReferenceID string  `json:"reference_id,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

// NewTransactionResponse maps a ledger entry onto the wire shape.
func NewTransactionResponse(t *domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:          t.ID.String(),
		BandID:      t.BandID,
		Amount:      t.Amount,
		Direction:   string(t.Direction),
		Description: t.Description,
		ReferenceID: t.ReferenceID,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
	}
	if t.SellerID != nil {
		s := t.SellerID.String()
		resp.SellerID = &s
	}
	return resp
}

// PaymentResponse is the response body for payment and fund operations.
type PaymentResponse struct {
	Transaction TransactionResponse `json:"transaction"`
	NewBalance  int64               `json:"new_balance"`
}

// NewPaymentResponse maps a payment result onto the wire shape.
func NewPaymentResponse(r *ports.PaymentResult) PaymentResponse {
	return PaymentResponse{
		Transaction: NewTransactionResponse(r.Transaction),
		NewBalance:  r.NewBalance,
	}
}

// SellerResponse is the wire shape of a seller.
type SellerResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	BusinessName string `json:"business_name"`
	Phone        string `json:"phone"`
	CreatedAt    string `json:"created_at"`
}

// NewSellerResponse maps a domain seller onto the wire shape.
func NewSellerResponse(s *domain.Seller) SellerResponse {
	return SellerResponse{
		ID:           s.ID.String(),
		Name:         s.Name,
		BusinessName: s.BusinessName,
		Phone:        s.Phone,
		CreatedAt:    s.CreatedAt.Format(time.RFC3339),
	}
}

// SellerLoginResponse is the response body for successful seller login.
type SellerLoginResponse struct {
	Token  string         `json:"token"`
	Expiry int64          `json:"expiry"` // Unix timestamp
	Seller SellerResponse `json:"seller"`
}

// StatsResponse is the admin dashboard payload.
type StatsResponse struct {
	TotalUsers        int64 `json:"totalUsers"`
	TotalBalance      int64 `json:"totalBalance"`
	ActiveBands       int64 `json:"activeBands"`
	BlockedBands      int64 `json:"blockedBands"`
	TodayTransactions int64 `json:"todayTransactions"`
	TodayVolume       int64 `json:"todayVolume"`
}

// ScanEventResponse is the wire shape of a scan feed event.
type ScanEventResponse struct {
	BandID    string `json:"band_id"`
	Timestamp string `json:"timestamp"`
}

// NewScanEventResponse maps a scan event onto the wire shape.
func NewScanEventResponse(e domain.ScanEvent) ScanEventResponse {
	return ScanEventResponse{
		BandID:    e.BandID,
		Timestamp: e.Timestamp.Format(time.RFC3339Nano),
	}
}
