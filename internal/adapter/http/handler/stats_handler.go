package handler

import (
	"bandpay/internal/adapter/http/dto"
	"bandpay/internal/core/ports"
	"bandpay/pkg/response"

	"github.com/gin-gonic/gin"
)

// StatsHandler handles the admin dashboard aggregates endpoint.
type StatsHandler struct {
	reportingSvc ports.ReportingService
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(reportingSvc ports.ReportingService) *StatsHandler {
	return &StatsHandler{reportingSvc: reportingSvc}
}

// GetStats handles GET /api/stats/.
func (h *StatsHandler) GetStats(c *gin.Context) {
	stats, err := h.reportingSvc.GetStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.StatsResponse{
		TotalUsers:        stats.TotalUsers,
		TotalBalance:      stats.TotalBalance,
		ActiveBands:       stats.ActiveBands,
		BlockedBands:      stats.BlockedBands,
		TodayTransactions: stats.TodayTransactions,
		TodayVolume:       stats.TodayVolume,
	})
}
