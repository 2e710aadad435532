package handler

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/surenab/ireland-property-market-backend/internal/models"
	"github.com/surenab/ireland-property-market-backend/internal/service"
	"github.com/surenab/ireland-property-market-backend/internal/spatial"
	"github.com/surenab/ireland-property-market-backend/pkg/response"
)

// defaultZoom is used when the zoom parameter is absent.
const defaultZoom = 10

// MapHandler handles HTTP requests for viewport aggregation
type MapHandler struct {
	mapService *service.MapService
}

// NewMapHandler creates a new map handler
func NewMapHandler(mapService *service.MapService) *MapHandler {
	return &MapHandler{
		mapService: mapService,
	}
}

// viewportParams validates the shared viewport parameters. Bound floats
// default to zero, so missing bounds are only detectable on the raw
// query string.
func viewportParams(c *gin.Context, filter *models.MapFilter) bool {
	for _, param := range []string{"north", "south", "east", "west"} {
		if _, ok := c.GetQuery(param); !ok {
			response.BadRequest(c, "Viewport bounds (north, south, east, west) are required")
			return false
		}
	}
	if _, ok := c.GetQuery("zoom"); !ok {
		filter.Zoom = defaultZoom
	} else if filter.Zoom < 1 || filter.Zoom > 20 {
		response.BadRequest(c, "Zoom must be between 1 and 20")
		return false
	}
	if !validDateRange(filter.StartDate, filter.EndDate) {
		response.BadRequest(c, "Dates must use the YYYY-MM-DD format")
		return false
	}
	return true
}

// GetPoints handles GET /api/v1/map/points
func (h *MapHandler) GetPoints(c *gin.Context) {
	var filter models.MapFilter

	// Parse query parameters
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}
	if !viewportParams(c, &filter) {
		return
	}

	// Get individual points, planner-capped
	result, err := h.mapService.Points(c.Request.Context(), filter)
	if err != nil {
		if errors.Is(err, spatial.ErrInvalidBounds) {
			response.BadRequest(c, "Invalid viewport bounds")
			return
		}
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, result)
}

// GetClusters handles GET /api/v1/map/clusters
func (h *MapHandler) GetClusters(c *gin.Context) {
	var filter models.MapFilter

	// Parse query parameters
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}
	if !viewportParams(c, &filter) {
		return
	}

	// Cluster the viewport records
	result, err := h.mapService.Clusters(c.Request.Context(), filter)
	if err != nil {
		if errors.Is(err, spatial.ErrInvalidBounds) {
			response.BadRequest(c, "Invalid viewport bounds")
			return
		}
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, result)
}

// GetGrid handles GET /api/v1/map/grid
func (h *MapHandler) GetGrid(c *gin.Context) {
	var filter models.MapFilter

	// Parse query parameters
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}
	if !viewportParams(c, &filter) {
		return
	}

	// Aggregate the viewport into exact-count grid cells
	result, err := h.mapService.Grid(c.Request.Context(), filter)
	if err != nil {
		if errors.Is(err, spatial.ErrInvalidBounds) {
			response.BadRequest(c, "Invalid viewport bounds")
			return
		}
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, result)
}

// GetAnalysis handles GET /api/v1/map/analysis
func (h *MapHandler) GetAnalysis(c *gin.Context) {
	var filter models.AnalysisFilter

	// Parse query parameters
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}
	if !viewportParams(c, &filter.MapFilter) {
		return
	}

	// Run the requested analysis mode
	result, err := h.mapService.Analyze(c.Request.Context(), filter)
	if err != nil {
		if errors.Is(err, spatial.ErrInvalidBounds) {
			response.BadRequest(c, "Invalid viewport bounds")
			return
		}
		response.InternalError(c, err.Error())
		return
	}

	if strings.EqualFold(filter.Format, "geojson") {
		response.Success(c, analysisFeatureCollection(result))
		return
	}

	response.Success(c, result)
}

// analysisFeatureCollection converts an analysis payload to GeoJSON.
// Overlay entries and clusters become point features; heatmap cells
// keep their polygon rings.
func analysisFeatureCollection(resp *models.MapAnalysisResponse) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, cell := range resp.HeatmapCells {
		f := geojson.NewFeature(cell.Coordinates)
		f.Properties["intensity"] = cell.Metadata.Intensity
		f.Properties["sales_count"] = cell.Metadata.SalesCount
		if cell.Metadata.AvgPrice != nil {
			f.Properties["avg_price"] = *cell.Metadata.AvgPrice
		}
		fc.Append(f)
	}

	for _, entry := range resp.HeatmapData {
		f := geojson.NewFeature(orb.Point{entry.Lng, entry.Lat})
		f.Properties["intensity"] = entry.Intensity
		if entry.Data != nil {
			if entry.Data.SalesCount != nil {
				f.Properties["sales_count"] = *entry.Data.SalesCount
			}
			if entry.Data.AvgPrice != nil {
				f.Properties["avg_price"] = *entry.Data.AvgPrice
			}
			if entry.Data.ChangePercent != nil {
				f.Properties["change_percent"] = *entry.Data.ChangePercent
			}
			if entry.Data.EarlyAvg != nil {
				f.Properties["early_avg"] = *entry.Data.EarlyAvg
			}
			if entry.Data.LateAvg != nil {
				f.Properties["late_avg"] = *entry.Data.LateAvg
			}
		}
		fc.Append(f)
	}

	for _, cluster := range resp.Clusters {
		f := geojson.NewFeature(orb.Point{cluster.CenterLng, cluster.CenterLat})
		f.Properties["count"] = cluster.Count
		if cluster.AvgPrice != nil {
			f.Properties["avg_price"] = *cluster.AvgPrice
		}
		if cluster.PriceBucket != "" {
			f.Properties["price_bucket"] = cluster.PriceBucket
		}
		fc.Append(f)
	}

	return fc
}
