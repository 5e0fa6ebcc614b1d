package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Registry (REG) ----

func ErrDuplicatePhone() *AppError {
	return New("REG_001", "Phone number already registered", http.StatusConflict)
}

func ErrBandNotFound() *AppError {
	return New("REG_002", "Band not found", http.StatusNotFound)
}

func ErrSellerNotFound() *AppError {
	return New("REG_003", "Seller not found", http.StatusNotFound)
}

func ErrBandIDTaken() *AppError {
	return New("REG_004", "Band identifier already in use", http.StatusConflict)
}

// ---- Payment Business Logic (PAY) ----

func ErrInsufficientFunds() *AppError {
	return New("PAY_001", "Insufficient balance on band", http.StatusPaymentRequired)
}

func ErrInvalidAmount() *AppError {
	return New("PAY_002", "Invalid amount", http.StatusBadRequest)
}

func ErrBandBlocked() *AppError {
	return New("PAY_003", "Band is blocked", http.StatusForbidden)
}

func ErrInvalidPin() *AppError {
	return New("PAY_004", "Invalid band PIN", http.StatusUnauthorized)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_002", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// ErrStorageUnavailable signals a transient storage failure. Callers may retry.
func ErrStorageUnavailable(err error) *AppError {
	return Wrap("SYS_002", "Storage temporarily unavailable", http.StatusServiceUnavailable, err)
}

// Validation returns a VAL_001 input-shape error.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}
