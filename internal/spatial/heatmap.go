package spatial

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/floats"
)

// DefaultGridCells is the heatmap lattice size when the caller does not
// pick one.
const DefaultGridCells = 40

// HeatmapPolygons lays a gridCells x gridCells lattice over bbox and
// returns one closed rectangle per non-empty cell with count-normalized
// intensity. Cell edges are interpolated from the viewport itself, so
// the rectangles tile the requested box exactly regardless of zoom. The
// mode is accepted for forward compatibility: cell geometry and the
// intensity formula do not depend on it, callers layer mode-specific
// scoring on top.
func HeatmapPolygons(records []GeoRecord, bbox BoundingBox, mode string, gridCells int) ([]HeatmapCell, error) {
	if gridCells <= 0 {
		return nil, ErrInvalidGridCells
	}
	if err := bbox.Validate(); err != nil {
		return nil, err
	}

	latEdges := floats.Span(make([]float64, gridCells+1), bbox.South, bbox.North)
	lngEdges := floats.Span(make([]float64, gridCells+1), bbox.West, bbox.East)

	type bucket struct {
		count    int
		priceSum int64
		priced   int
	}
	buckets := make(map[CellKey]*bucket)

	for _, r := range records {
		if !r.HasCoords() {
			continue
		}
		row, ok := edgeIndex(latEdges, *r.Lat)
		if !ok {
			continue
		}
		col, ok := edgeIndex(lngEdges, *r.Lng)
		if !ok {
			continue
		}
		b := buckets[CellKey{Row: row, Col: col}]
		if b == nil {
			b = &bucket{}
			buckets[CellKey{Row: row, Col: col}] = b
		}
		b.count++
		if r.Price != nil {
			b.priceSum += *r.Price
			b.priced++
		}
	}

	maxCount := 0
	for _, b := range buckets {
		if b.count > maxCount {
			maxCount = b.count
		}
	}

	cells := make([]HeatmapCell, 0, len(buckets))
	for key, b := range buckets {
		south, north := latEdges[key.Row], latEdges[key.Row+1]
		west, east := lngEdges[key.Col], lngEdges[key.Col+1]

		intensity := 0.0
		if maxCount > 0 {
			intensity = clamp01(float64(b.count) / float64(maxCount))
		}

		cell := HeatmapCell{
			Coordinates: cellPolygon(south, north, west, east),
			Metadata: CellMetadata{
				Intensity:  intensity,
				SalesCount: b.count,
			},
		}
		if b.priced > 0 {
			avg := int64(math.Round(float64(b.priceSum) / float64(b.priced)))
			cell.Metadata.AvgPrice = &avg
		}
		cells = append(cells, cell)
	}
	return cells, nil
}

// edgeIndex locates the cell index for v inside sorted edges. Cells are
// right-open except that the maximum edge belongs to the last cell, so a
// record sitting exactly on the viewport boundary is kept.
func edgeIndex(edges []float64, v float64) (int, bool) {
	last := len(edges) - 1
	if v < edges[0] || v > edges[last] {
		return 0, false
	}
	if v == edges[last] {
		return last - 1, true
	}
	i := sort.SearchFloat64s(edges, v)
	if edges[i] == v {
		return i, true
	}
	return i - 1, true
}

// cellPolygon builds the closed 5-point ring for one cell in [lng, lat]
// order, the GeoJSON convention.
func cellPolygon(south, north, west, east float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{west, south},
		{east, south},
		{east, north},
		{west, north},
		{west, south},
	}}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
