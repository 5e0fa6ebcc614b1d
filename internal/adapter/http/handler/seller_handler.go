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

// SellerHandler handles seller registration and login endpoints.
type SellerHandler struct {
	sellerSvc ports.SellerService
}

// NewSellerHandler creates a new SellerHandler.
func NewSellerHandler(sellerSvc ports.SellerService) *SellerHandler {
	return &SellerHandler{sellerSvc: sellerSvc}
}

// Register handles POST /api/sellers/register/.
func (h *SellerHandler) Register(c *gin.Context) {
	var req dto.SellerRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	seller, err := h.sellerSvc.Register(c.Request.Context(), ports.RegisterSellerRequest{
		Name:         req.Name,
		BusinessName: req.BusinessName,
		Phone:        req.Phone,
		PIN:          req.PIN,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.NewSellerResponse(seller))
}

// Login handles POST /api/sellers/login/.
func (h *SellerHandler) Login(c *gin.Context) {
	var req dto.SellerLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	session, err := h.sellerSvc.Login(c.Request.Context(), req.Phone, req.PIN)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.SellerLoginResponse{
		Token:  session.Token,
		Expiry: session.ExpiresAt.Unix(),
		Seller: dto.NewSellerResponse(session.Seller),
	})
}

// Me handles GET /api/sellers/me/ on an authenticated session.
func (h *SellerHandler) Me(c *gin.Context) {
	sellerID, ok := c.Get(middleware.CtxSellerID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	seller, err := h.sellerSvc.Me(c.Request.Context(), sellerID.(uuid.UUID))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewSellerResponse(seller))
}
