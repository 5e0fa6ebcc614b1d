package handler

import (
	"strconv"

	"bandpay/internal/adapter/http/dto"
	"bandpay/internal/core/ports"
	"bandpay/pkg/apperror"
	"bandpay/pkg/response"

	"github.com/gin-gonic/gin"
)

// UserHandler handles band registry endpoints for the admin console.
type UserHandler struct {
	registrySvc  ports.RegistryService
	reportingSvc ports.ReportingService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(registrySvc ports.RegistryService, reportingSvc ports.ReportingService) *UserHandler {
	return &UserHandler{registrySvc: registrySvc, reportingSvc: reportingSvc}
}

// List handles GET /api/users/. An optional phone query narrows the result
// to the matching guest, which is how the admin console finds the owner of
// a lost band.
func (h *UserHandler) List(c *gin.Context) {
	if phone := c.Query("phone"); phone != "" {
		user, err := h.registrySvc.LookupByPhone(c.Request.Context(), phone)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, []dto.UserResponse{dto.NewUserResponse(user)})
		return
	}

	users, err := h.registrySvc.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, dto.NewUserResponse(&users[i]))
	}
	response.OK(c, out)
}

// Get handles GET /api/users/:band_id/.
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.registrySvc.LookupByBand(c.Request.Context(), c.Param("band_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewUserResponse(user))
}

// Create handles POST /api/users/create/.
func (h *UserHandler) Create(c *gin.Context) {
	var req dto.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	user, err := h.registrySvc.Register(c.Request.Context(), ports.RegisterUserRequest{
		Name:   req.Name,
		Phone:  req.Phone,
		PIN:    req.PIN,
		BandID: req.BandID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.NewUserResponse(user))
}

// Delete handles POST /api/users/delete/. The band id is tombstoned, not
// freed for reuse.
func (h *UserHandler) Delete(c *gin.Context) {
	var req dto.DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	if err := h.registrySvc.Delete(c.Request.Context(), req.BandID); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"deleted": true})
}

// Block handles POST /api/block/. Without an explicit blocked value the
// flag toggles, matching the admin console's single block button.
func (h *UserHandler) Block(c *gin.Context) {
	var req dto.BlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	if req.Blocked != nil {
		u, err := h.registrySvc.SetBlocked(c.Request.Context(), req.BandID, *req.Blocked)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, dto.NewUserResponse(u))
		return
	}

	u, err := h.registrySvc.ToggleBlocked(c.Request.Context(), req.BandID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewUserResponse(u))
}

// Transactions handles GET /api/users/:band_id/transactions/.
func (h *UserHandler) Transactions(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, apperror.Validation("limit must be an integer"))
			return
		}
		limit = parsed
	}

	txns, err := h.reportingSvc.RecentTransactions(c.Request.Context(), c.Param("band_id"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]dto.TransactionResponse, 0, len(txns))
	for i := range txns {
		out = append(out, dto.NewTransactionResponse(&txns[i]))
	}
	response.OK(c, out)
}
