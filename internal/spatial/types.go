package spatial

import (
	"errors"

	"github.com/paulmach/orb"
)

// GeoRecord is the minimal record shape the aggregation pipeline
// consumes. Lat, Lng and Price are pointers because source rows may lack
// geocoding or a recorded sale. The JSON tags match the map API payload.
type GeoRecord struct {
	ID       int64    `json:"id"`
	Lat      *float64 `json:"latitude"`
	Lng      *float64 `json:"longitude"`
	Price    *int64   `json:"price"` // Euros, latest sale in window
	Label    string   `json:"address"`
	Region   string   `json:"county"`
	SaleDate string   `json:"date,omitempty"` // YYYY-MM-DD
}

// HasCoords reports whether the record carries both coordinates.
func (r GeoRecord) HasCoords() bool {
	return r.Lat != nil && r.Lng != nil
}

// BoundingBox is an axis-aligned lat/lng box. West/East never wrap the
// antimeridian.
type BoundingBox struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

var (
	// ErrInvalidCellSize rejects non-positive grid cell sizes.
	ErrInvalidCellSize = errors.New("spatial: cell size must be positive")
	// ErrInvalidGridCells rejects non-positive heatmap lattice sizes.
	ErrInvalidGridCells = errors.New("spatial: grid cell count must be positive")
	// ErrInvalidBounds rejects inverted bounding boxes.
	ErrInvalidBounds = errors.New("spatial: bounding box is inverted")
)

// Validate checks box orientation.
func (b BoundingBox) Validate() error {
	if b.South > b.North || b.West > b.East {
		return ErrInvalidBounds
	}
	return nil
}

// Contains reports whether the point lies inside the box, edges included.
func (b BoundingBox) Contains(lat, lng float64) bool {
	return lat >= b.South && lat <= b.North && lng >= b.West && lng <= b.East
}

// CellKey identifies a grid cell by floored lat/lng division.
type CellKey struct {
	Row int
	Col int
}

// ClusterMode selects how ClusterRecords partitions records before
// spatial grouping.
type ClusterMode string

const (
	ModeGeographic ClusterMode = "geographic"
	ModePrice      ClusterMode = "price"
	ModeSize       ClusterMode = "size"
)

// ParseClusterMode maps a query value to a ClusterMode. Unknown values
// fall back to geographic grouping.
func ParseClusterMode(s string) ClusterMode {
	switch ClusterMode(s) {
	case ModePrice:
		return ModePrice
	case ModeSize:
		return ModeSize
	default:
		return ModeGeographic
	}
}

// Cluster is one occupied grid cell: all records whose floored
// coordinates share the cell (within one price band in price mode). The
// center is the member centroid, never the cell midpoint.
type Cluster struct {
	CenterLat   float64     `json:"center_lat"`
	CenterLng   float64     `json:"center_lng"`
	Count       int         `json:"count"`
	Bounds      BoundingBox `json:"bounds"`
	AvgPrice    *int64      `json:"avg_price,omitempty"`
	PriceBucket string      `json:"price_bucket,omitempty"`
	Members     []GeoRecord `json:"properties"`
}

// GridAggregate is one exact-count cell produced by AggregateRecords.
// Price fields are nil when no member carries a price.
type GridAggregate struct {
	CellID      string      `json:"cell_id"` // geohash of the cell midpoint
	CenterLat   float64     `json:"center_lat"`
	CenterLng   float64     `json:"center_lng"`
	Count       int         `json:"count"`
	PropertyIDs []int64     `json:"property_ids"`
	AvgPrice    *int64      `json:"avg_price,omitempty"`
	MinPrice    *int64      `json:"min_price,omitempty"`
	MaxPrice    *int64      `json:"max_price,omitempty"`
	Bounds      BoundingBox `json:"bounds"`
}

// CellMetadata describes one emitted heatmap cell.
type CellMetadata struct {
	Intensity  float64 `json:"intensity"` // Normalized to [0, 1]
	SalesCount int     `json:"sales_count"`
	AvgPrice   *int64  `json:"avg_price,omitempty"`
}

// HeatmapCell pairs a closed rectangular ring with its metadata. The
// ring marshals as GeoJSON-style nested [lng, lat] arrays.
type HeatmapCell struct {
	Coordinates orb.Polygon  `json:"coordinates"`
	Metadata    CellMetadata `json:"metadata"`
}
