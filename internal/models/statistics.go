package models

// PricePoint is one period entry in a price trend series. Prices are
// whole euros; the median keeps its half-euro resolution.
type PricePoint struct {
	Period string  `json:"period"` // 2021-03, 2021-Q1 or 2021
	Avg    int64   `json:"avg_price"`
	Median float64 `json:"median_price"`
	StdDev float64 `json:"std_dev"`
	Min    int64   `json:"min_price"`
	Max    int64   `json:"max_price"`
	Count  int     `json:"count"`
}

// PriceTrendsResponse is the trend endpoint payload.
type PriceTrendsResponse struct {
	Period string       `json:"period"`
	Points []PricePoint `json:"points"`
}

// PriceCluster is one price band found by the clustering endpoint.
type PriceCluster struct {
	ClusterID int     `json:"cluster_id"`
	MinPrice  int64   `json:"min_price"`
	MaxPrice  int64   `json:"max_price"`
	AvgPrice  int64   `json:"avg_price"`
	Count     int     `json:"count"`
	Center    float64 `json:"center"`
}

// PriceClustersResponse is the price clustering payload.
type PriceClustersResponse struct {
	Clusters  []PriceCluster `json:"clusters"`
	Algorithm string         `json:"algorithm"`
	Total     int            `json:"total_properties"`
}

// CountyStats summarizes latest sale prices within one county.
type CountyStats struct {
	County string  `json:"county"`
	Count  int     `json:"count"`
	Avg    int64   `json:"avg_price"`
	Median float64 `json:"median_price"`
	Min    int64   `json:"min_price"`
	Max    int64   `json:"max_price"`
}

// CountyComparisonResponse lists counties ordered by average price.
type CountyComparisonResponse struct {
	Counties      []CountyStats `json:"counties"`
	OverallAvg    int64         `json:"overall_avg_price"`
	OverallMedian float64       `json:"overall_median_price"`
}

// CorrelationResponse reports a Pearson correlation against price.
type CorrelationResponse struct {
	Variable       string  `json:"variable"`
	Coefficient    float64 `json:"coefficient"`
	Interpretation string  `json:"interpretation"`
	SampleSize     int     `json:"sample_size"`
}

// DateRangeResponse reports the sale date span present in the data.
type DateRangeResponse struct {
	MinDate string `json:"min_date"`
	MaxDate string `json:"max_date"`
	Years   []int  `json:"years"`
}

// SaleRecord is one sale row feeding trend aggregation.
type SaleRecord struct {
	DateOfSale string
	Price      int64
}

// CountyPrice pairs a county with one property's latest sale price.
type CountyPrice struct {
	County string
	Price  int64
}

// CorrelationSale is one sale row feeding correlation analysis.
type CorrelationSale struct {
	Price      int64
	DateOfSale string
	SizeDesc   *string
}
