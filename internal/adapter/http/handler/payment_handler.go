package handler

import (
	"bandpay/internal/adapter/http/dto"
	"bandpay/internal/adapter/http/middleware"
	"bandpay/internal/core/ports"
	"bandpay/pkg/apperror"
	"bandpay/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PaymentHandler handles debit and credit endpoints.
type PaymentHandler struct {
	paymentSvc ports.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentSvc ports.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentSvc: paymentSvc}
}

// ProcessPayment handles POST /api/payment/. The seller identity comes from
// the session token, never from the request body.
func (h *PaymentHandler) ProcessPayment(c *gin.Context) {
	sellerID, ok := c.Get(middleware.CtxSellerID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	sid := sellerID.(uuid.UUID)
	result, err := h.paymentSvc.ProcessPayment(c.Request.Context(), ports.PaymentRequest{
		BandID:      req.BandID,
		Amount:      req.Amount,
		PIN:         req.PIN,
		SellerID:    &sid,
		ReferenceID: req.ReferenceID,
		Description: req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.NewPaymentResponse(result))
}

// ProcessFund handles POST /api/fund/ from the admin console.
func (h *PaymentHandler) ProcessFund(c *gin.Context) {
	var req dto.FundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	result, err := h.paymentSvc.ProcessFund(c.Request.Context(), ports.FundRequest{
		BandID:      req.BandID,
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.NewPaymentResponse(result))
}
