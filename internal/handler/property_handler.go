package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/surenab/ireland-property-market-backend/internal/models"
	"github.com/surenab/ireland-property-market-backend/internal/service"
	"github.com/surenab/ireland-property-market-backend/pkg/response"
)

// PropertyHandler handles HTTP requests for property records
type PropertyHandler struct {
	propertyService *service.PropertyService
}

// NewPropertyHandler creates a new property handler
func NewPropertyHandler(propertyService *service.PropertyService) *PropertyHandler {
	return &PropertyHandler{
		propertyService: propertyService,
	}
}

// ListProperties handles GET /api/v1/properties
func (h *PropertyHandler) ListProperties(c *gin.Context) {
	var filter models.PropertyFilter

	// Parse query parameters
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}
	if !validDateRange(filter.StartDate, filter.EndDate) {
		response.BadRequest(c, "Dates must use the YYYY-MM-DD format")
		return
	}

	// List matching properties
	result, err := h.propertyService.List(c.Request.Context(), filter)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, result)
}

// GetProperty handles GET /api/v1/properties/:id
func (h *PropertyHandler) GetProperty(c *gin.Context) {
	// Parse ID
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "Invalid property ID")
		return
	}

	// Get property detail with address and sale history
	property, err := h.propertyService.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.NotFound(c, "Property not found")
			return
		}
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, property)
}

// GetPropertyHistory handles GET /api/v1/properties/:id/history
func (h *PropertyHandler) GetPropertyHistory(c *gin.Context) {
	// Parse ID
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "Invalid property ID")
		return
	}

	// Get sale history, oldest first
	history, err := h.propertyService.History(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.NotFound(c, "Property not found")
			return
		}
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, gin.H{
		"property_id": id,
		"history":     history,
		"count":       len(history),
	})
}

// ListCounties handles GET /api/v1/properties/counties
func (h *PropertyHandler) ListCounties(c *gin.Context) {
	counties, err := h.propertyService.Counties(c.Request.Context())
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, counties)
}
