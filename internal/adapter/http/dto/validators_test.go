package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// --- SanitizeStruct tests ---

func TestSanitizeStruct_TrimsWhitespace(t *testing.T) {
	req := RegisterUserRequest{
		Name:   "  Asha Rao  ",
		Phone:  " 9876543210 ",
		BandID: " NKM-AB12CD3 ",
	}
	SanitizeStruct(&req)

	assert.Equal(t, "Asha Rao", req.Name)
	assert.Equal(t, "9876543210", req.Phone)
	assert.Equal(t, "NKM-AB12CD3", req.BandID)
}

func TestSanitizeStruct_EscapesHTML(t *testing.T) {
	req := PaymentRequest{
		BandID:      "NKM-AB12CD3",
		ReferenceID: "POS-001",
		Description: "customer <script>alert('x')</script> order",
	}
	SanitizeStruct(&req)

	assert.Contains(t, req.Description, "&lt;script&gt;")
	assert.NotContains(t, req.Description, "<script>")
}

func TestSanitizeStruct_NonPointerIsNoOp(t *testing.T) {
	s := "hello"
	SanitizeStruct(s) // should not panic
}

// --- Custom validator tests ---

func TestBandIDPattern(t *testing.T) {
	valid := []string{"NKM-AB12CD3", "nkm-ab12cd3", "NKM-1234567", "X-9"}
	for _, tc := range valid {
		assert.True(t, bandIDRe.MatchString(tc), "expected valid: %s", tc)
	}

	invalid := []string{"", "NKM", "NKM-", "-AB12CD3", "NKM AB12CD3", "NKM-AB12;D3"}
	for _, tc := range invalid {
		assert.False(t, bandIDRe.MatchString(tc), "expected invalid: %s", tc)
	}
}

func TestPhonePattern(t *testing.T) {
	valid := []string{"9876543210", "+919876543210", "1234567"}
	for _, tc := range valid {
		assert.True(t, phoneRe.MatchString(tc), "expected valid: %s", tc)
	}

	invalid := []string{"", "12345", "phone", "98765 43210", "+"}
	for _, tc := range invalid {
		assert.False(t, phoneRe.MatchString(tc), "expected invalid: %s", tc)
	}
}

func TestPINPattern(t *testing.T) {
	valid := []string{"0000", "4821", "9999"}
	for _, tc := range valid {
		assert.True(t, pinRe.MatchString(tc), "expected valid: %s", tc)
	}

	invalid := []string{"", "123", "12345", "abcd", "12 4"}
	for _, tc := range invalid {
		assert.False(t, pinRe.MatchString(tc), "expected invalid: %s", tc)
	}
}
