package models

// PropertyFilter represents filter parameters for the property list
type PropertyFilter struct {
	Page         int    `form:"page"`
	PageSize     int    `form:"page_size"`
	County       string `form:"county"`
	MinPrice     *int64 `form:"min_price"`     // Euros, applied to latest sale
	MaxPrice     *int64 `form:"max_price"`     // Euros, applied to latest sale
	StartDate    string `form:"start_date"`    // YYYY-MM-DD
	EndDate      string `form:"end_date"`      // YYYY-MM-DD
	HasGeocoding *bool  `form:"has_geocoding"`
	MinSales     int    `form:"min_sales"`
	Sort         string `form:"sort"` // default, price_asc, price_desc, date_desc
}

// MapFilter represents the shared viewport parameters for map endpoints
type MapFilter struct {
	North       float64 `form:"north"`
	South       float64 `form:"south"`
	East        float64 `form:"east"`
	West        float64 `form:"west"`
	Zoom        int     `form:"zoom"` // 1-20
	County      string  `form:"county"`
	MinPrice    *int64  `form:"min_price"`
	MaxPrice    *int64  `form:"max_price"`
	StartDate   string  `form:"start_date"`   // YYYY-MM-DD
	EndDate     string  `form:"end_date"`     // YYYY-MM-DD
	ClusterMode string  `form:"cluster_mode"` // geographic, price, size
}

// AnalysisFilter represents the viewport parameters plus analysis controls
type AnalysisFilter struct {
	MapFilter
	AnalysisMode string  `form:"analysis_mode"` // density-heatmap, spatial-patterns, hotspots, cluster-identification, growth-decline, price-heatmap, sales-heatmap
	PatternType  string  `form:"pattern_type"`  // density, concentration
	Intensity    float64 `form:"intensity"`     // Hotspot scaling, 0-1
	GridCells    int     `form:"grid_cells"`    // Heatmap lattice size, default 40
	Format       string  `form:"format"`        // json, geojson
}

// TrendFilter represents filter parameters for price trends
type TrendFilter struct {
	Period    string `form:"period"` // monthly, quarterly, yearly
	County    string `form:"county"`
	MinPrice  *int64 `form:"min_price"`
	MaxPrice  *int64 `form:"max_price"`
	StartDate string `form:"start_date"` // YYYY-MM-DD
	EndDate   string `form:"end_date"`   // YYYY-MM-DD
}

// ClusterStatsFilter represents filter parameters for price clustering
type ClusterStatsFilter struct {
	NClusters int    `form:"n_clusters"` // 2-20
	Algorithm string `form:"algorithm"`  // kmeans, range
	County    string `form:"county"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

// CountyStatsFilter represents filter parameters for county comparison
type CountyStatsFilter struct {
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

// CorrelationFilter represents filter parameters for price correlation
type CorrelationFilter struct {
	Variable string `form:"variable"` // size, date
	County   string `form:"county"`
}
