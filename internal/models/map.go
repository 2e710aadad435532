package models

import (
	"github.com/surenab/ireland-property-market-backend/internal/spatial"
)

// MapPointsResponse carries individual pins for a viewport. Total is set
// only when the fetch was exhaustive; a truncated fetch cannot know it.
type MapPointsResponse struct {
	Points    []spatial.GeoRecord `json:"points"`
	Returned  int                 `json:"returned"`
	Total     *int                `json:"total,omitempty"`
	Truncated bool                `json:"truncated"`
	Sampled   bool                `json:"sampled"`
	Viewport  spatial.BoundingBox `json:"viewport"`
}

// MapClustersResponse carries grid clusters for a viewport.
type MapClustersResponse struct {
	Clusters        []spatial.Cluster   `json:"clusters"`
	TotalProperties int                 `json:"total_properties"`
	Truncated       bool                `json:"truncated"`
	Viewport        spatial.BoundingBox `json:"viewport"`
}

// MapGridResponse carries exact-count grid aggregates for a viewport.
type MapGridResponse struct {
	Cells     []spatial.GridAggregate `json:"cells"`
	CellSize  float64                 `json:"cell_size"`
	Truncated bool                    `json:"truncated"`
	Viewport  spatial.BoundingBox     `json:"viewport"`
}

// HeatmapEntryData carries the per-mode details of one overlay entry.
type HeatmapEntryData struct {
	Intensity     float64  `json:"intensity"`
	SalesCount    *int     `json:"sales_count,omitempty"`
	AvgPrice      *int64   `json:"avg_price,omitempty"`
	ChangePercent *float64 `json:"change_percent,omitempty"`
	EarlyAvg      *int64   `json:"early_avg,omitempty"`
	LateAvg       *int64   `json:"late_avg,omitempty"`
}

// HeatmapEntry is one weighted point in an analysis overlay.
type HeatmapEntry struct {
	Lat       float64           `json:"lat"`
	Lng       float64           `json:"lng"`
	Intensity float64           `json:"intensity"`
	Data      *HeatmapEntryData `json:"data,omitempty"`
}

// MapAnalysisResponse is the payload for every analysis mode. Modes fill
// the slices they produce; the rest stay empty.
type MapAnalysisResponse struct {
	AnalysisMode    string                `json:"analysis_mode"`
	TotalProperties int                   `json:"total_properties"`
	Truncated       bool                  `json:"truncated"`
	Viewport        spatial.BoundingBox   `json:"viewport"`
	HeatmapData     []HeatmapEntry        `json:"heatmap_data"`
	HeatmapCells    []spatial.HeatmapCell `json:"heatmap_cells,omitempty"`
	Clusters        []spatial.Cluster     `json:"clusters"`
	Points          []spatial.GeoRecord   `json:"points"`
}
