package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/surenab/ireland-property-market-backend/internal/models"
	"github.com/surenab/ireland-property-market-backend/internal/service"
	"github.com/surenab/ireland-property-market-backend/pkg/response"
)

// StatsHandler handles HTTP requests for market statistics
type StatsHandler struct {
	statsService *service.StatsService
}

// NewStatsHandler creates a new statistics handler
func NewStatsHandler(statsService *service.StatsService) *StatsHandler {
	return &StatsHandler{
		statsService: statsService,
	}
}

// GetPriceTrends handles GET /api/v1/statistics/price-trends
func (h *StatsHandler) GetPriceTrends(c *gin.Context) {
	var filter models.TrendFilter

	// Parse query parameters
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}
	switch filter.Period {
	case "", service.PeriodMonthly, service.PeriodQuarterly, service.PeriodYearly:
	default:
		response.BadRequest(c, "Period must be monthly, quarterly or yearly")
		return
	}
	if !validDateRange(filter.StartDate, filter.EndDate) {
		response.BadRequest(c, "Dates must use the YYYY-MM-DD format")
		return
	}

	// Get per-period price statistics
	result, err := h.statsService.PriceTrends(c.Request.Context(), filter)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, result)
}

// GetPriceClusters handles GET /api/v1/statistics/price-clusters
func (h *StatsHandler) GetPriceClusters(c *gin.Context) {
	var filter models.ClusterStatsFilter

	// Parse query parameters
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}
	if filter.NClusters != 0 && (filter.NClusters < 2 || filter.NClusters > 20) {
		response.BadRequest(c, "n_clusters must be between 2 and 20")
		return
	}
	switch filter.Algorithm {
	case "", service.AlgorithmKMeans, service.AlgorithmRange:
	default:
		response.BadRequest(c, "Algorithm must be kmeans or range")
		return
	}
	if !validDateRange(filter.StartDate, filter.EndDate) {
		response.BadRequest(c, "Dates must use the YYYY-MM-DD format")
		return
	}

	// Cluster latest sale prices into bands
	result, err := h.statsService.PriceClusters(c.Request.Context(), filter)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, result)
}

// GetCountyComparison handles GET /api/v1/statistics/counties
func (h *StatsHandler) GetCountyComparison(c *gin.Context) {
	var filter models.CountyStatsFilter

	// Parse query parameters
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}
	if !validDateRange(filter.StartDate, filter.EndDate) {
		response.BadRequest(c, "Dates must use the YYYY-MM-DD format")
		return
	}

	// Compare counties on their latest sale prices
	result, err := h.statsService.CountyComparison(c.Request.Context(), filter)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, result)
}

// GetCorrelation handles GET /api/v1/statistics/correlation
func (h *StatsHandler) GetCorrelation(c *gin.Context) {
	var filter models.CorrelationFilter

	// Parse query parameters
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}
	switch filter.Variable {
	case "", service.VariableSize, service.VariableDate:
	default:
		response.BadRequest(c, "Variable must be size or date")
		return
	}

	// Correlate the variable against sale price
	result, err := h.statsService.Correlation(c.Request.Context(), filter)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, result)
}

// GetDateRange handles GET /api/v1/statistics/date-range
func (h *StatsHandler) GetDateRange(c *gin.Context) {
	result, err := h.statsService.DateRange(c.Request.Context())
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, result)
}
