package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without wrapped error",
			appErr:   New("PAY_001", "Insufficient funds", http.StatusPaymentRequired),
			expected: "[PAY_001] Insufficient funds",
		},
		{
			name:     "with wrapped error",
			appErr:   Wrap("SYS_001", "DB error", http.StatusInternalServerError, fmt.Errorf("connection refused")),
			expected: "[SYS_001] DB error: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := Wrap("SYS_001", "wrapped", http.StatusInternalServerError, inner)

	assert.True(t, errors.Is(appErr, inner))
}

func TestAppError_IsNilUnwrap(t *testing.T) {
	appErr := New("PAY_001", "test", http.StatusBadRequest)
	assert.Nil(t, appErr.Unwrap())
}

func TestRegistryErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"DuplicatePhone", ErrDuplicatePhone(), "REG_001", 409},
		{"BandNotFound", ErrBandNotFound(), "REG_002", 404},
		{"SellerNotFound", ErrSellerNotFound(), "REG_003", 404},
		{"BandIDTaken", ErrBandIDTaken(), "REG_004", 409},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestPaymentErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"InsufficientFunds", ErrInsufficientFunds(), "PAY_001", 402},
		{"InvalidAmount", ErrInvalidAmount(), "PAY_002", 400},
		{"BandBlocked", ErrBandBlocked(), "PAY_003", 403},
		{"InvalidPin", ErrInvalidPin(), "PAY_004", 401},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestAuthErrors(t *testing.T) {
	assert.Equal(t, "AUTH_001", ErrInvalidCredentials().Code)
	assert.Equal(t, 401, ErrInvalidCredentials().HTTPStatus)
	assert.Equal(t, "AUTH_002", ErrInvalidToken().Code)
	assert.Equal(t, 401, ErrInvalidToken().HTTPStatus)
}

func TestSystemErrors(t *testing.T) {
	inner := fmt.Errorf("pg: connection closed")
	sysErr := InternalError(inner)
	assert.Equal(t, "SYS_001", sysErr.Code)
	assert.Equal(t, 500, sysErr.HTTPStatus)
	assert.True(t, errors.Is(sysErr, inner))

	storageErr := ErrStorageUnavailable(inner)
	assert.Equal(t, "SYS_002", storageErr.Code)
	assert.Equal(t, 503, storageErr.HTTPStatus)
	assert.True(t, errors.Is(storageErr, inner))
}

func TestRateLimitError(t *testing.T) {
	err := ErrRateLimitExceeded()
	assert.Equal(t, "RATE_001", err.Code)
	assert.Equal(t, 429, err.HTTPStatus)
}

func TestValidation(t *testing.T) {
	err := Validation("pin must be 4 digits")
	assert.Equal(t, "VAL_001", err.Code)
	assert.Equal(t, 400, err.HTTPStatus)
	assert.Contains(t, err.Message, "pin")
}
